package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	"github.com/pzverkov/quantum-envelope/pkg/metrics"
	"github.com/pzverkov/quantum-envelope/pkg/sealed"
)

var probeMessage = []byte("quantum-envelope readiness probe")

func runServe(addr, namespace, kemName string, suite constants.CipherSuite, obs *observability) error {
	logger := obs.logger.Named("serve")

	// Self-tests run once; their outcome is reported on every probe.
	var selfTestErr error
	for _, t := range selfTests() {
		if err := t.run(); err != nil {
			selfTestErr = fmt.Errorf("%s: %w", t.name, err)
			logger.Error("self-test failed", metrics.Fields{"test": t.name, "error": err.Error()})
			break
		}
	}

	probe, err := newRoundTripProbe(kemName, suite, obs.logger)
	if err != nil {
		return err
	}

	server := metrics.NewServer(metrics.ServerConfig{
		Collector:        obs.collector,
		Version:          getVersion(),
		Namespace:        namespace,
		EnablePrometheus: true,
		EnableHealth:     true,
	})
	server.AddHealthCheck("selftest", func(context.Context) error { return selfTestErr })
	server.AddHealthCheck("roundtrip", probe.check)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving", metrics.Fields{
		"addr":  addr,
		"kem":   kemName,
		"suite": suite.String(),
	})
	fmt.Printf("✓ Observability server on %s (metrics: /metrics, health: /health, /healthz, /readyz)\n", addr)

	if err := server.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

// roundTripProbe seals and opens a fixed message between two identities.
type roundTripProbe struct {
	sealer *sealed.Sealer
	sender *sealed.Identity
	rcpt   *sealed.Identity
}

func newRoundTripProbe(kemName string, suite constants.CipherSuite, logger *metrics.Logger) (*roundTripProbe, error) {
	cfg := sealed.DefaultConfig()
	cfg.KEM = kemName
	cfg.Suite = suite

	// The probe keeps its own collector so it does not inflate served metrics.
	s, err := sealed.NewSealer(cfg, sealed.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	sender, err := sealed.GenerateIdentity(nil, kemName)
	if err != nil {
		return nil, err
	}
	rcpt, err := sealed.GenerateIdentity(nil, kemName)
	if err != nil {
		sender.Zeroize()
		return nil, err
	}
	return &roundTripProbe{sealer: s, sender: sender, rcpt: rcpt}, nil
}

func (p *roundTripProbe) check(ctx context.Context) error {
	data, err := p.sealer.SealBytes(ctx, probeMessage, p.rcpt.PublicKey(), p.sender.SigningKey)
	if err != nil {
		return err
	}
	pt, err := p.sealer.OpenBytes(ctx, data, p.rcpt.KEMKeys.SecretKey, p.sender.VerifyKey)
	if err != nil {
		return err
	}
	if !bytes.Equal(pt, probeMessage) {
		return errors.New("round trip returned a different plaintext")
	}
	return nil
}
