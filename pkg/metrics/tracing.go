package metrics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Span names for envelope operations.
const (
	SpanSeal        = "envelope.seal"
	SpanOpen        = "envelope.open"
	SpanEncapsulate = "envelope.kem.encapsulate"
	SpanDecapsulate = "envelope.kem.decapsulate"
	SpanSign        = "envelope.bls.sign"
	SpanVerify      = "envelope.bls.verify"
)

// Attribute keys set on seal and open spans.
const (
	AttrKEM            = "envelope.kem"
	AttrSuite          = "envelope.suite"
	AttrPlaintextBytes = "envelope.plaintext_bytes"
)

// Tracer opens spans around the stages of sealing and opening a message.
// NoOpTracer, SimpleTracer and OTelTracer implement it.
type Tracer interface {
	// StartSpan returns a context carrying the new span and the function
	// that ends it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder ends a span. A non-nil error marks the span as failed.
type SpanEnder func(err error)

// SpanOption configures a span at start.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind  SpanKind
	attrs []Attr
}

func newSpanConfig(opts []SpanOption) spanConfig {
	var cfg spanConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// SpanKind says whether a span produces or consumes a sealed message.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	// SpanKindProducer marks sealing.
	SpanKindProducer
	// SpanKindConsumer marks opening.
	SpanKindConsumer
)

func (k SpanKind) String() string {
	switch k {
	case SpanKindProducer:
		return "producer"
	case SpanKindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// Attr is a span attribute.
type Attr struct {
	Key   string
	Value any
}

// StringAttr returns a string attribute.
func StringAttr(key, value string) Attr { return Attr{Key: key, Value: value} }

// IntAttr returns an integer attribute.
func IntAttr(key string, value int) Attr { return Attr{Key: key, Value: value} }

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithAttrs adds attributes to the span. Later keys overwrite earlier ones.
func WithAttrs(attrs ...Attr) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// envelopeAttrs describes the KEM and suite of an operation. Empty values
// and a zero byte count are left out.
func envelopeAttrs(kem, suite string, plaintextBytes int) []Attr {
	attrs := make([]Attr, 0, 3)
	if kem != "" {
		attrs = append(attrs, StringAttr(AttrKEM, kem))
	}
	if suite != "" {
		attrs = append(attrs, StringAttr(AttrSuite, suite))
	}
	if plaintextBytes > 0 {
		attrs = append(attrs, IntAttr(AttrPlaintextBytes, plaintextBytes))
	}
	return attrs
}

// NoOpTracer discards spans. It is the default when tracing is off.
type NoOpTracer struct{}

// StartSpan returns ctx unchanged.
func (NoOpTracer) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// SimpleTracer keeps finished spans in memory, in the order they ended.
// The CLI prints them and tests inspect them.
type SimpleTracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
	seq   atomic.Uint64
}

// RecordedSpan is a finished span.
type RecordedSpan struct {
	Name       string
	Kind       SpanKind
	StartTime  time.Time
	Duration   time.Duration
	Attributes map[string]any
	Error      error
	TraceID    string
	SpanID     string
	ParentID   string
}

// NewSimpleTracer creates an empty SimpleTracer.
func NewSimpleTracer() *SimpleTracer {
	return &SimpleTracer{}
}

func (t *SimpleTracer) nextID() string {
	return fmt.Sprintf("%016x", t.seq.Add(1))
}

// StartSpan starts a span. A span already in ctx becomes its parent and
// shares its trace ID.
func (t *SimpleTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)

	span := &RecordedSpan{
		Name:       name,
		Kind:       cfg.kind,
		StartTime:  time.Now(),
		Attributes: make(map[string]any, len(cfg.attrs)),
		SpanID:     t.nextID(),
	}
	for _, a := range cfg.attrs {
		span.Attributes[a.Key] = a.Value
	}
	if parent, ok := ctx.Value(simpleSpanKey{}).(*RecordedSpan); ok {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = span.SpanID
	}

	var once sync.Once
	return context.WithValue(ctx, simpleSpanKey{}, span), func(err error) {
		once.Do(func() {
			span.Duration = time.Since(span.StartTime)
			span.Error = err

			t.mu.Lock()
			t.spans = append(t.spans, *span)
			t.mu.Unlock()
		})
	}
}

type simpleSpanKey struct{}

// Spans returns a copy of the finished spans.
func (t *SimpleTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

// Named returns the finished spans called name.
func (t *SimpleTracer) Named(name string) []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []RecordedSpan
	for _, s := range t.spans {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Reset drops all finished spans.
func (t *SimpleTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}
