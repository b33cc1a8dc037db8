package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pzverkov/quantum-envelope/pkg/metrics"
	"github.com/pzverkov/quantum-envelope/pkg/sealed"
)

// observability bundles the logger, collector and tracer of one command.
type observability struct {
	logger    *metrics.Logger
	collector *metrics.Collector
	tracer    metrics.Tracer
	spans     *metrics.SimpleTracer // set in "simple" mode
}

func setupObservability(logLevel, logFormat, tracing string) (*observability, error) {
	level, err := metrics.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	format, err := metrics.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}

	obs := &observability{
		logger: metrics.NewLogger(
			metrics.WithOutput(os.Stderr),
			metrics.WithLevel(level),
			metrics.WithFormat(format),
			metrics.WithFields(metrics.Fields{"app": "quantum-envelope"}),
		),
		collector: metrics.NewCollector(metrics.Labels{
			"service": "quantum-envelope",
		}),
	}

	switch strings.ToLower(tracing) {
	case "none":
		obs.tracer = metrics.NoOpTracer{}
	case "simple":
		obs.spans = metrics.NewSimpleTracer()
		obs.tracer = obs.spans
	case "otel":
		obs.tracer = metrics.NewOTelTracer(metrics.DefaultServiceName, nil)
	default:
		return nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	return obs, nil
}

// sealerOptions wires the bundle into a Sealer.
func (o *observability) sealerOptions() []sealed.Option {
	return []sealed.Option{
		sealed.WithLogger(o.logger),
		sealed.WithCollector(o.collector),
		sealed.WithTracer(o.tracer),
	}
}
