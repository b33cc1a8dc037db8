package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Histogram counts observations into fixed cumulative buckets, the way
// Prometheus exposes them. Latencies are recorded in microseconds.
// It is safe for concurrent use.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64 // ascending upper bounds, inclusive
	counts []uint64  // per bucket; the last one is +Inf
	sum    float64
	n      uint64
	min    float64
	max    float64
}

// NewHistogram creates a histogram with the given upper bounds. The bounds
// are copied, sorted and deduplicated.
func NewHistogram(bounds []float64) *Histogram {
	b := slices.Clone(bounds)
	slices.Sort(b)
	b = slices.Compact(b)

	h := &Histogram{bounds: b, counts: make([]uint64, len(b)+1)}
	h.clear()
	return h
}

func (h *Histogram) clear() {
	clear(h.counts)
	h.sum, h.n = 0, 0
	h.min, h.max = math.Inf(1), math.Inf(-1)
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	i, _ := slices.BinarySearch(h.bounds, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[i]++
	h.sum += v
	h.n++
	h.min = min(h.min, v)
	h.max = max(h.max, v)
}

// ObserveDuration records d in microseconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(float64(d) / float64(time.Microsecond))
}

// HistogramSummary is a point-in-time copy of a histogram. Min, Max, Mean
// and the percentile estimates are zero when Count is zero.
type HistogramSummary struct {
	Count   uint64        `json:"count"`
	Sum     float64       `json:"sum"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	Mean    float64       `json:"mean"`
	P50     float64       `json:"p50"`
	P90     float64       `json:"p90"`
	P99     float64       `json:"p99"`
	Buckets []BucketCount `json:"buckets"`
}

// BucketCount is the number of observations <= UpperBound.
type BucketCount struct {
	UpperBound float64 `json:"le"`
	Count      uint64  `json:"count"`
}

// Summary returns the cumulative buckets, the last one +Inf, and the
// p50/p90/p99 estimates.
func (h *Histogram) Summary() HistogramSummary {
	h.mu.Lock()
	defer h.mu.Unlock()

	buckets := make([]BucketCount, len(h.counts))
	var cumulative uint64
	for i, c := range h.counts {
		cumulative += c
		bound := math.Inf(1)
		if i < len(h.bounds) {
			bound = h.bounds[i]
		}
		buckets[i] = BucketCount{UpperBound: bound, Count: cumulative}
	}

	s := HistogramSummary{Count: h.n, Sum: h.sum, Buckets: buckets}
	if h.n > 0 {
		s.Min, s.Max = h.min, h.max
		s.Mean = h.sum / float64(h.n)
		s.P50 = h.quantile(0.5)
		s.P90 = h.quantile(0.9)
		s.P99 = h.quantile(0.99)
	}
	return s
}

// quantile interpolates linearly inside the bucket holding rank p*n. The
// first bucket starts at zero; ranks in the +Inf bucket report the max.
// Callers hold h.mu and ensure h.n > 0.
func (h *Histogram) quantile(p float64) float64 {
	rank := p * float64(h.n)
	var below uint64
	for i, c := range h.counts {
		if c == 0 || float64(below+c) < rank {
			below += c
			continue
		}
		if i == len(h.bounds) {
			return h.max
		}
		lower := 0.0
		if i > 0 {
			lower = h.bounds[i-1]
		}
		return lower + (rank-float64(below))/float64(c)*(h.bounds[i]-lower)
	}
	return h.max
}

// Quantile estimates the p-quantile for 0 < p <= 1. An empty histogram
// reports 0.
func (h *Histogram) Quantile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.n == 0 {
		return 0
	}
	return h.quantile(p)
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// Reset drops all observations and keeps the bounds.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clear()
}
