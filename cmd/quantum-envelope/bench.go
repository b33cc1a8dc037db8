package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	"github.com/pzverkov/quantum-envelope/pkg/bls"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/metrics"
	"github.com/pzverkov/quantum-envelope/pkg/sealed"
)

type benchConfig struct {
	iterations int
	workers    int
	size       int
	kem        string
	suite      constants.CipherSuite
	signOnly   bool
}

func runBench(cfg benchConfig) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      Quantum-Envelope Benchmark                          ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if cfg.iterations < 1 || cfg.workers < 1 {
		fatal(fmt.Errorf("iterations and workers must be positive"))
	}

	alice, err := sealed.GenerateIdentity(nil, cfg.kem)
	if err != nil {
		fatal(err)
	}
	defer alice.Zeroize()
	bob, err := sealed.GenerateIdentity(nil, cfg.kem)
	if err != nil {
		fatal(err)
	}
	defer bob.Zeroize()

	payload, err := crypto.SecureRandomBytes(cfg.size)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Workers: %d, iterations: %d, payload: %s\n\n", cfg.workers, cfg.iterations, formatSize(int64(cfg.size)))

	msg := payload[:min(len(payload), 32)]
	sig := bls.Sign(msg, alice.SigningKey)

	printResults("BLS sign", cfg, benchParallel(cfg, func(context.Context) error {
		bls.Sign(msg, alice.SigningKey)
		return nil
	}))
	printResults("BLS verify", cfg, benchParallel(cfg, func(context.Context) error {
		return bls.Verify(msg, alice.VerifyKey, sig)
	}))

	if cfg.signOnly {
		return
	}

	sc := sealed.DefaultConfig()
	sc.KEM = cfg.kem
	sc.Suite = cfg.suite
	collector := metrics.NewCollector(nil)
	s, err := sealed.NewSealer(sc, sealed.WithCollector(collector))
	if err != nil {
		fatal(err)
	}

	m, err := s.Seal(context.Background(), payload, bob.PublicKey(), alice.SigningKey)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Suite: %s + %s\n\n", cfg.kem, cfg.suite)
	printResults("Seal", cfg, benchParallel(cfg, func(ctx context.Context) error {
		_, err := s.Seal(ctx, payload, bob.PublicKey(), alice.SigningKey)
		return err
	}))
	printResults("Open", cfg, benchParallel(cfg, func(ctx context.Context) error {
		_, err := s.Open(ctx, m, bob.KEMKeys.SecretKey, alice.VerifyKey)
		return err
	}))

	snap := collector.Snapshot()
	fmt.Println("Collector latency (µs):")
	fmt.Printf("  Seal p50/p99: %.0f / %.0f\n", snap.SealLatency.P50, snap.SealLatency.P99)
	fmt.Printf("  Open p50/p99: %.0f / %.0f\n", snap.OpenLatency.P50, snap.OpenLatency.P99)
}

type benchResult struct {
	total     time.Duration
	durations []time.Duration
}

// benchParallel runs op cfg.iterations times across cfg.workers goroutines.
// The first error cancels the remaining work.
func benchParallel(cfg benchConfig, op func(context.Context) error) benchResult {
	durations := make([]time.Duration, cfg.iterations)
	var next atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())
	start := time.Now()
	for range cfg.workers {
		g.Go(func() error {
			for {
				i := int(next.Add(1)) - 1
				if i >= cfg.iterations {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				opStart := time.Now()
				if err := op(ctx); err != nil {
					return err
				}
				durations[i] = time.Since(opStart)
			}
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
	return benchResult{total: time.Since(start), durations: durations}
}

func printResults(name string, cfg benchConfig, r benchResult) {
	slices.Sort(r.durations)
	var sum time.Duration
	for _, d := range r.durations {
		sum += d
	}
	n := len(r.durations)

	fmt.Println(name)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("  Average: %v\n", sum/time.Duration(n))
	fmt.Printf("  Minimum: %v\n", r.durations[0])
	fmt.Printf("  p99:     %v\n", r.durations[(n*99)/100])
	fmt.Printf("  Maximum: %v\n", r.durations[n-1])
	fmt.Printf("  Throughput: %.2f ops/sec", float64(n)/r.total.Seconds())
	if cfg.size > 0 && (name == "Seal" || name == "Open") {
		mbps := float64(n*cfg.size) / r.total.Seconds() / 1024 / 1024
		fmt.Printf(" (%.2f MB/s)", mbps)
	}
	fmt.Println()
	fmt.Println()
}

func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i == 0 {
		return 0, fmt.Errorf("invalid size: %s", s)
	}
	num, unit := s, ""
	if i > 0 {
		num, unit = s[:i], s[i:]
	}
	value, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %s", s)
	}

	switch strings.ToUpper(unit) {
	case "", "B":
		return value, nil
	case "KB", "K":
		return value * 1024, nil
	case "MB", "M":
		return value * 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("invalid size unit: %s (use B, KB or MB)", unit)
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
