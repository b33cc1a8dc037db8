package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	"github.com/pzverkov/quantum-envelope/pkg/metrics"
	pkgversion "github.com/pzverkov/quantum-envelope/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo":
		demoCommand()
	case "bench":
		benchCommand()
	case "serve":
		serveCommand()
	case "selftest":
		selftestCommand()
	case "version":
		fmt.Printf("quantum-envelope version %s\n", getVersion())
		fmt.Printf("Format: %d\n", constants.FormatVersion)
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`quantum-envelope - Post-Quantum Envelope Encryption & BLS Threshold Signatures

USAGE:
    quantum-envelope <command> [options]

COMMANDS:
    demo      Walk through envelope encryption, threshold signing and sealing
    bench     Run parallel seal/open and sign/verify benchmarks
    serve     Serve Prometheus metrics and health checks
    selftest  Run the power-on self-tests
    version   Print version information
    help      Show this help message

Run 'quantum-envelope <command> --help' for more information on a command.

EXAMPLES:
    # Run the demo with CH-KEM and AES-256-CBC
    quantum-envelope demo --kem CH-KEM --suite cbc

    # Benchmark 1000 seal/open round trips on 8 workers
    quantum-envelope bench --iterations 1000 --workers 8

    # Serve metrics on :9090
    quantum-envelope serve --addr :9090

SECURITY:
    KEM:        ML-KEM-768/1024 (NIST FIPS 203), X25519 hybrids
    Encryption: AES-256-CBC, AES-256-GCM, ChaCha20-Poly1305
    Signatures: BLS over BLS12-381 with (k, n) threshold shares`)
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	kemName := fs.String("kem", constants.DefaultKEM, "KEM: ML-KEM-768, ML-KEM-1024, Kyber768-X25519, CH-KEM")
	suite := fs.String("suite", "gcm", "Cipher suite: cbc, gcm or chacha20")
	message := fs.String("message", "Hello from quantum-envelope!", "Plaintext to seal")
	threshold := fs.Int("threshold", 3, "Signatures needed to recover the group signature")
	shares := fs.Int("shares", 5, "Number of signing shares")
	verbose := fs.Bool("verbose", false, "Verbose output")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel")

	fs.Usage = func() {
		fmt.Println(`USAGE: quantum-envelope demo [options]

Encrypt a message to a recipient, sign it with a threshold BLS key and seal
it into a single signed envelope.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Default suite (ML-KEM-1024, AES-256-GCM)
    quantum-envelope demo

    # 2-of-3 threshold signing, show spans
    quantum-envelope demo --threshold 2 --shares 3 --tracing simple --verbose`)
	}

	_ = fs.Parse(os.Args[2:])

	cs, err := parseSuite(*suite)
	if err != nil {
		fatal(err)
	}
	obs, err := setupObservability(*logLevel, *logFormat, *tracing)
	if err != nil {
		fatal(err)
	}

	runDemo(demoConfig{
		kem:       *kemName,
		suite:     cs,
		message:   *message,
		threshold: *threshold,
		shares:    *shares,
		verbose:   *verbose,
	}, obs)
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	iterations := fs.Int("iterations", 200, "Operations per benchmark")
	workers := fs.Int("workers", 4, "Parallel workers")
	size := fs.String("size", "1KB", "Plaintext size (e.g., 64B, 1KB, 1MB)")
	kemName := fs.String("kem", constants.DefaultKEM, "KEM: ML-KEM-768, ML-KEM-1024, Kyber768-X25519, CH-KEM")
	suite := fs.String("suite", "gcm", "Cipher suite: cbc, gcm or chacha20")
	signOnly := fs.Bool("sign-only", false, "Only benchmark BLS sign/verify")

	fs.Usage = func() {
		fmt.Println(`USAGE: quantum-envelope bench [options]

Run parallel benchmarks of sealing, opening, signing and verifying.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # 1000 iterations on 8 workers
    quantum-envelope bench --iterations 1000 --workers 8

    # 1MB payloads with ChaCha20-Poly1305
    quantum-envelope bench --size 1MB --suite chacha20`)
	}

	_ = fs.Parse(os.Args[2:])

	cs, err := parseSuite(*suite)
	if err != nil {
		fatal(err)
	}
	n, err := parseSize(*size)
	if err != nil {
		fatal(err)
	}

	runBench(benchConfig{
		iterations: *iterations,
		workers:    *workers,
		size:       n,
		kem:        *kemName,
		suite:      cs,
		signOnly:   *signOnly,
	})
}

func serveCommand() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":9090", "Listen address")
	namespace := fs.String("namespace", metrics.DefaultNamespace, "Prometheus metric namespace")
	kemName := fs.String("kem", constants.DefaultKEM, "KEM used by the round-trip health check")
	suite := fs.String("suite", "gcm", "Cipher suite used by the round-trip health check")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")

	fs.Usage = func() {
		fmt.Println(`USAGE: quantum-envelope serve [options]

Serve /metrics, /health, /healthz and /readyz. The readiness check runs the
power-on self-tests and a seal/open round trip.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	cs, err := parseSuite(*suite)
	if err != nil {
		fatal(err)
	}
	obs, err := setupObservability(*logLevel, *logFormat, "none")
	if err != nil {
		fatal(err)
	}

	if err := runServe(*addr, *namespace, *kemName, cs, obs); err != nil {
		fatal(err)
	}
}

func selftestCommand() {
	if len(os.Args) > 2 && (os.Args[2] == "--help" || os.Args[2] == "-h") {
		fmt.Println(`USAGE: quantum-envelope selftest

Run the known-answer and pairwise self-tests and exit non-zero on failure.`)
		return
	}
	if !runSelfTest(os.Stdout) {
		os.Exit(1)
	}
}

func parseSuite(s string) (constants.CipherSuite, error) {
	switch strings.ToLower(s) {
	case "cbc", "aes-cbc", "aes-256-cbc":
		return constants.CipherSuiteAES256CBC, nil
	case "gcm", "aes-gcm", "aes-256-gcm":
		return constants.CipherSuiteAES256GCM, nil
	case "chacha20", "chacha20-poly1305":
		return constants.CipherSuiteChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("invalid cipher suite: %s (use cbc, gcm or chacha20)", s)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
