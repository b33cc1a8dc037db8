package metrics

import (
	"context"
	"errors"
	"time"

	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// Observer bundles a Collector, Tracer and Logger behind hooks for the
// stages of sealing and opening a message. Each On* hook returns a
// completion function that must be called exactly once.
type Observer struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
	kem       string
	suite     string
}

// ObserverConfig configures an observer. Nil fields get inert defaults:
// a private Collector, NoOpTracer and NullLogger.
type ObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	KEM       string
	Suite     string
}

// NewObserver creates a new observer.
func NewObserver(cfg ObserverConfig) *Observer {
	if cfg.Collector == nil {
		cfg.Collector = NewCollector(nil)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = NoOpTracer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = NullLogger()
	}

	return &Observer{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger: cfg.Logger.Named("sealed").With(Fields{
			"kem":   cfg.KEM,
			"suite": cfg.Suite,
		}),
		kem:   cfg.KEM,
		suite: cfg.Suite,
	}
}

func (o *Observer) attrs(n int) SpanOption {
	return WithAttrs(envelopeAttrs(o.kem, o.suite, n)...)
}

// OnSeal opens the seal span. The returned function records latency and
// either the sealed byte count or a seal error.
func (o *Observer) OnSeal(ctx context.Context, plaintextLen int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanSeal, WithSpanKind(SpanKindProducer), o.attrs(plaintextLen))

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordSealLatency(duration)

		if err != nil {
			o.collector.RecordSealError()
			o.logger.Error("seal failed", Fields{
				"event": EventSealFailed,
				"error": err.Error(),
			})
		} else {
			o.collector.RecordSealed(plaintextLen)
			o.logger.Debug("envelope sealed", Fields{
				"event":    EventSealed,
				"bytes":    plaintextLen,
				"duration": duration.String(),
			})
		}
		endSpan(err)
	}
}

// OnOpen opens the open span. The returned function takes the recovered
// plaintext length. A verification failure is counted by OnVerify, not as
// an open error.
func (o *Observer) OnOpen(ctx context.Context) (context.Context, func(int, error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanOpen, WithSpanKind(SpanKindConsumer), o.attrs(0))

	return ctx, func(n int, err error) {
		duration := time.Since(start)
		o.collector.RecordOpenLatency(duration)

		switch {
		case err == nil:
			o.collector.RecordOpened(n)
			o.logger.Debug("envelope opened", Fields{
				"event":    EventOpened,
				"bytes":    n,
				"duration": duration.String(),
			})
		case errors.Is(err, qerrors.ErrVerifyFailed):
		default:
			o.collector.RecordOpenError()
			o.logger.Error("open failed", Fields{
				"event": EventOpenFailed,
				"error": err.Error(),
			})
		}
		endSpan(err)
	}
}

// OnSign opens the signing span and counts successful signatures.
func (o *Observer) OnSign(ctx context.Context) (context.Context, func(error)) {
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanSign)
	return ctx, func(err error) {
		if err == nil {
			o.collector.RecordSignature()
		}
		endSpan(err)
	}
}

// OnVerify opens the verification span. ErrVerifyFailed is logged at WARN
// and counted as a verify failure; any other error means the signature
// could not be checked at all.
func (o *Observer) OnVerify(ctx context.Context) (context.Context, func(error)) {
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanVerify)
	return ctx, func(err error) {
		switch {
		case err == nil:
			o.collector.RecordVerified()
		case errors.Is(err, qerrors.ErrVerifyFailed):
			o.collector.RecordVerifyFailure()
			o.logger.Warn("signature rejected", Fields{"event": EventVerifyFailed})
		}
		endSpan(err)
	}
}

// OnEncapsulate traces the KEM encapsulation step.
func (o *Observer) OnEncapsulate(ctx context.Context) (context.Context, SpanEnder) {
	return o.tracer.StartSpan(ctx, SpanEncapsulate)
}

// OnDecapsulate traces the KEM decapsulation step.
func (o *Observer) OnDecapsulate(ctx context.Context) (context.Context, SpanEnder) {
	return o.tracer.StartSpan(ctx, SpanDecapsulate)
}

// OnDecodingError records a malformed encoded message.
func (o *Observer) OnDecodingError(err error) {
	o.collector.RecordDecodingError()
	o.logger.Warn("malformed message", Fields{
		"event": EventDecodingError,
		"error": err.Error(),
	})
}

// Collector returns the collector the observer reports into.
func (o *Observer) Collector() *Collector {
	return o.collector
}

// Logger returns the observer's logger for custom logging.
func (o *Observer) Logger() *Logger {
	return o.logger
}

// EventType tags log entries written by the observer.
type EventType string

const (
	EventSealed        EventType = "seal.done"
	EventSealFailed    EventType = "seal.failed"
	EventOpened        EventType = "open.done"
	EventOpenFailed    EventType = "open.failed"
	EventVerifyFailed  EventType = "security.verify_failed"
	EventDecodingError EventType = "security.decoding_error"
)
