package metrics

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the overall state reported by /health.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"  // error rate above DegradedErrorRate
	HealthStatusUnhealthy HealthStatus = "unhealthy" // at least one check failed
)

// DegradedErrorRate is the share of failed seal/open operations above which
// the service reports itself degraded. Rejected signatures do not count.
const DegradedErrorRate = 0.01

// CheckTimeout bounds a single health check.
const CheckTimeout = 5 * time.Second

// maxConcurrentChecks caps how many checks run at once. A round-trip probe
// performs a KEM encapsulation and a pairing check, so they are not free.
const maxConcurrentChecks = 4

// CheckFunc reports nil when healthy. It should return promptly once ctx is
// done.
type CheckFunc func(ctx context.Context) error

// HealthCheck runs named checks and summarizes a Collector.
type HealthCheck struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	collector *Collector
	started   time.Time
	version   string
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Metrics   *HealthMetrics         `json:"metrics,omitempty"`
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency"`
}

// HealthMetrics summarizes the collector.
type HealthMetrics struct {
	EnvelopesSealed uint64  `json:"envelopes_sealed"`
	EnvelopesOpened uint64  `json:"envelopes_opened"`
	VerifyFailures  uint64  `json:"verify_failures"`
	DecodingErrors  uint64  `json:"decoding_errors"`
	ErrorRate       float64 `json:"error_rate"`
}

// NewHealthCheck creates a health check. collector may be nil.
func NewHealthCheck(collector *Collector, version string) *HealthCheck {
	return &HealthCheck{
		checks:    make(map[string]CheckFunc),
		collector: collector,
		started:   time.Now(),
		version:   version,
	}
}

// AddCheck registers check under name, replacing any previous one.
func (h *HealthCheck) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck unregisters name.
func (h *HealthCheck) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every registered check concurrently, each under CheckTimeout,
// and folds in the collector's error rate.
func (h *HealthCheck) Check(ctx context.Context) HealthResponse {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	names := slices.Sorted(maps.Keys(checks))
	results := make([]CheckResult, len(names))

	var g errgroup.Group
	g.SetLimit(maxConcurrentChecks)
	for i, name := range names {
		g.Go(func() error {
			results[i] = runCheck(ctx, checks[name])
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
	if len(names) > 0 {
		resp.Checks = make(map[string]CheckResult, len(names))
	}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i].Status == HealthStatusUnhealthy {
			resp.Status = HealthStatusUnhealthy
		}
	}

	if h.collector != nil {
		snap := h.collector.Snapshot()
		m := &HealthMetrics{
			EnvelopesSealed: snap.EnvelopesSealed,
			EnvelopesOpened: snap.EnvelopesOpened,
			VerifyFailures:  snap.VerifyFailures,
			DecodingErrors:  snap.DecodingErrors,
		}
		failed := snap.SealErrors + snap.OpenErrors
		if total := snap.EnvelopesSealed + snap.EnvelopesOpened + failed; total > 0 {
			m.ErrorRate = float64(failed) / float64(total)
		}
		if m.ErrorRate > DegradedErrorRate && resp.Status == HealthStatusHealthy {
			resp.Status = HealthStatusDegraded
		}
		resp.Metrics = m
	}
	return resp
}

func runCheck(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	res := CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}
	return res
}

// Handler serves /health: 200 when healthy or degraded, 503 otherwise.
func (h *HealthCheck) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		writeJSON(w, statusCode(resp.Status != HealthStatusUnhealthy), resp)
	})
}

// LivenessHandler serves /healthz. It answers 200 while the process runs and
// never invokes the checks.
func (h *HealthCheck) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
}

// ReadinessHandler serves /readyz: 200 unless a check fails.
func (h *HealthCheck) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		ready := resp.Status != HealthStatusUnhealthy
		writeJSON(w, statusCode(ready), map[string]any{
			"status": resp.Status,
			"ready":  ready,
		})
	})
}

func statusCode(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
