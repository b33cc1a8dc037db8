// Package metrics provides observability primitives for sealing and
// opening envelopes.
//
// # Overview
//
// The package offers:
//   - Collector: atomic counters and latency histograms
//   - Prometheus text exposition of a Collector
//   - Tracer with no-op, in-memory and OpenTelemetry implementations
//   - Leveled logfmt or JSON logging on top of go-kit/log
//   - Observer, which drives all three from seal/open hooks
//   - Health and metrics HTTP endpoints
//
// Nothing here is process-global: callers create a Collector, Logger and
// Tracer and hand them to the components that should report into them.
//
// # Metrics Collection
//
//	collector := metrics.NewCollector(metrics.Labels{
//		"instance": "node-1",
//	})
//
//	collector.RecordSealed(len(plaintext))
//	collector.RecordSealLatency(d)
//	collector.RecordVerifyFailure()
//
//	snap := collector.Snapshot()
//
// # Prometheus Export
//
//	exporter := metrics.NewPrometheusExporter(collector, "quantum_envelope")
//	mux.Handle("/metrics", exporter.Handler())
//
// Counters are labelled by operation (op="seal"|"open"), signature outcome
// or failing stage; seal and open latency share one histogram family.
//
// # Tracing
//
//	tracer := metrics.NewSimpleTracer()                      // in-memory, for tests
//	tracer := metrics.NewOTelTracer("quantum-envelope", nil) // global provider
//
//	ctx, end := tracer.StartSpan(ctx, metrics.SpanSeal,
//		metrics.WithSpanKind(metrics.SpanKindProducer),
//		metrics.WithAttrs(metrics.StringAttr(metrics.AttrKEM, "ML-KEM-1024")))
//	defer end(err)
//
// # Structured Logging
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//	)
//	logger.Info("sealed", metrics.Fields{
//		"recipient": metrics.Fingerprint(pk),
//	})
//
// Raw []byte field values are logged as their length only; wrap public
// values in Fingerprint to show a prefix.
//
// # Observability Server
//
//	server := metrics.NewServer(metrics.ServerConfig{
//		Collector:        collector,
//		Version:          version.Version,
//		EnablePrometheus: true,
//		EnableHealth:     true,
//	})
//	server.AddHealthCheck("post", func(ctx context.Context) error { ... })
//	err := server.ListenAndServe(ctx, ":9090")
//
// This provides /metrics, /health, /healthz and /readyz.
package metrics
