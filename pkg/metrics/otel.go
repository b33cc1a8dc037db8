package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName names the instrumentation scope when none is given.
const DefaultServiceName = "quantum-envelope"

// OTelTracer reports spans to an OpenTelemetry TracerProvider.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a tracer from tp, or from the globally registered
// provider when tp is nil.
func NewOTelTracer(serviceName string, tp trace.TracerProvider) *OTelTracer {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OTelTracer{tracer: tp.Tracer(serviceName)}
}

// StartSpan starts an OpenTelemetry span.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)

	startOpts := []trace.SpanStartOption{trace.WithSpanKind(otelSpanKind(cfg.kind))}
	if len(cfg.attrs) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(otelAttributes(cfg.attrs)...))
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func otelSpanKind(kind SpanKind) trace.SpanKind {
	switch kind {
	case SpanKindProducer:
		return trace.SpanKindProducer
	case SpanKindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

// otelAttributes converts attributes. Byte slices are reported by length
// only so key material never reaches an exporter.
func otelAttributes(attrs []Attr) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case int:
			out = append(out, attribute.Int(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case uint64:
			out = append(out, attribute.Int64(a.Key, int64(v)))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		case []byte:
			out = append(out, attribute.Int(a.Key+".len", len(v)))
		default:
			out = append(out, attribute.String(a.Key, fmt.Sprint(v)))
		}
	}
	return out
}
