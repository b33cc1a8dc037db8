package metrics

import (
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from sealing and opening envelopes.
// It is safe for concurrent use.
type Collector struct {
	// Envelope metrics
	envelopesSealed atomic.Uint64
	envelopesOpened atomic.Uint64
	bytesSealed     atomic.Uint64
	bytesOpened     atomic.Uint64

	// Signature metrics
	signaturesCreated  atomic.Uint64
	signaturesVerified atomic.Uint64
	verifyFailures     atomic.Uint64

	// Error metrics
	sealErrors     atomic.Uint64
	openErrors     atomic.Uint64
	decodingErrors atomic.Uint64

	// Performance histograms
	sealLatency *Histogram
	openLatency *Histogram

	createdAt time.Time
	labels    Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		sealLatency: NewHistogram(LatencyBuckets),
		openLatency: NewHistogram(LatencyBuckets),
		createdAt:   time.Now(),
		labels:      labels,
	}
}

// LatencyBuckets for seal/open operations (microseconds). A seal includes
// one KEM encapsulation and one BLS signature, an open one pairing check
// and one decapsulation.
var LatencyBuckets = []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000}

// --- Envelope Metrics ---

// RecordSealed records a sealed envelope carrying n plaintext bytes.
func (c *Collector) RecordSealed(n int) {
	c.envelopesSealed.Add(1)
	c.bytesSealed.Add(uint64(n))
}

// RecordOpened records an opened envelope yielding n plaintext bytes.
func (c *Collector) RecordOpened(n int) {
	c.envelopesOpened.Add(1)
	c.bytesOpened.Add(uint64(n))
}

// --- Signature Metrics ---

// RecordSignature increments the signatures created counter.
func (c *Collector) RecordSignature() {
	c.signaturesCreated.Add(1)
}

// RecordVerified increments the successful verification counter.
func (c *Collector) RecordVerified() {
	c.signaturesVerified.Add(1)
}

// RecordVerifyFailure increments the failed verification counter.
func (c *Collector) RecordVerifyFailure() {
	c.verifyFailures.Add(1)
}

// --- Error Metrics ---

// RecordSealError increments the seal error counter.
func (c *Collector) RecordSealError() {
	c.sealErrors.Add(1)
}

// RecordOpenError increments the open error counter.
func (c *Collector) RecordOpenError() {
	c.openErrors.Add(1)
}

// RecordDecodingError increments the malformed message counter.
func (c *Collector) RecordDecodingError() {
	c.decodingErrors.Add(1)
}

// --- Performance Metrics ---

// RecordSealLatency records the duration of a seal.
func (c *Collector) RecordSealLatency(d time.Duration) {
	c.sealLatency.ObserveDuration(d)
}

// RecordOpenLatency records the duration of an open.
func (c *Collector) RecordOpenLatency(d time.Duration) {
	c.openLatency.ObserveDuration(d)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	EnvelopesSealed uint64
	EnvelopesOpened uint64
	BytesSealed     uint64
	BytesOpened     uint64

	SignaturesCreated  uint64
	SignaturesVerified uint64
	VerifyFailures     uint64

	SealErrors     uint64
	OpenErrors     uint64
	DecodingErrors uint64

	SealLatency HistogramSummary
	OpenLatency HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:          time.Now(),
		Uptime:             time.Since(c.createdAt),
		EnvelopesSealed:    c.envelopesSealed.Load(),
		EnvelopesOpened:    c.envelopesOpened.Load(),
		BytesSealed:        c.bytesSealed.Load(),
		BytesOpened:        c.bytesOpened.Load(),
		SignaturesCreated:  c.signaturesCreated.Load(),
		SignaturesVerified: c.signaturesVerified.Load(),
		VerifyFailures:     c.verifyFailures.Load(),
		SealErrors:         c.sealErrors.Load(),
		OpenErrors:         c.openErrors.Load(),
		DecodingErrors:     c.decodingErrors.Load(),
		SealLatency:        c.sealLatency.Summary(),
		OpenLatency:        c.openLatency.Summary(),
		Labels:             c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.envelopesSealed.Store(0)
	c.envelopesOpened.Store(0)
	c.bytesSealed.Store(0)
	c.bytesOpened.Store(0)
	c.signaturesCreated.Store(0)
	c.signaturesVerified.Store(0)
	c.verifyFailures.Store(0)
	c.sealErrors.Store(0)
	c.openErrors.Store(0)
	c.decodingErrors.Store(0)
	c.sealLatency.Reset()
	c.openLatency.Reset()
	c.createdAt = time.Now()
}
