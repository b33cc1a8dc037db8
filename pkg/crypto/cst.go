// cst.go implements Conditional Self-Tests (CST) in the FIPS 140-3 style.
//
// Conditional tests run alongside specific operations rather than at start
// up:
//
//  1. Pairwise consistency: a freshly generated key pair must round trip
//     (KEM encapsulate/decapsulate, X25519 agreement).
//  2. Continuous RNG test: consecutive random outputs must differ and not be
//     degenerate.
//
// State lives in a SelfTester value owned by the caller. In FIPS builds a
// failure panics; otherwise it is returned as an error.
package crypto

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// CSTConfig configures Conditional Self-Test behavior
type CSTConfig struct {
	// EnablePairwiseTest enables pairwise consistency tests on key generation
	EnablePairwiseTest bool

	// EnableRNGHealthCheck enables health checks on RNG output
	EnableRNGHealthCheck bool

	// RNGHealthCheckInterval is the number of checked reads between full
	// health checks
	RNGHealthCheckInterval uint64
}

// DefaultCSTConfig enables everything in FIPS mode and nothing otherwise.
func DefaultCSTConfig() CSTConfig {
	return CSTConfig{
		EnablePairwiseTest:     FIPSMode(),
		EnableRNGHealthCheck:   FIPSMode(),
		RNGHealthCheckInterval: 1000,
	}
}

// CSTResult contains the results of a Conditional Self-Test
type CSTResult struct {
	Passed bool
	Error  error
}

func cstFail(format string, args ...any) *CSTResult {
	return &CSTResult{Passed: false, Error: fmt.Errorf(format, args...)}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// PairwiseConsistencyTestKEM encapsulates to kp.PublicKey and checks that
// kp.SecretKey recovers the same non-zero secret.
func PairwiseConsistencyTestKEM(k KEM, kp *KEMKeyPair) *CSTResult {
	if k == nil || kp == nil || kp.PublicKey == nil || kp.SecretKey == nil {
		return cstFail("invalid key pair")
	}

	ct, ss1, err := k.Encapsulate(kp.PublicKey, nil)
	if err != nil {
		return cstFail("encapsulation failed: %w", err)
	}
	defer Zeroize(ss1)

	ss2, err := k.Decapsulate(kp.SecretKey, ct)
	if err != nil {
		return cstFail("decapsulation failed: %w", err)
	}
	defer Zeroize(ss2)

	if !ConstantTimeCompare(ss1, ss2) {
		return cstFail("shared secrets do not match")
	}
	if allZero(ss1) {
		return cstFail("shared secret is all zeros")
	}

	return &CSTResult{Passed: true}
}

// PairwiseConsistencyTestX25519 performs DH in both directions against a
// throwaway key pair.
func PairwiseConsistencyTestX25519(kp *X25519KeyPair) *CSTResult {
	if kp == nil || kp.PrivateKey == nil || kp.PublicKey == nil {
		return cstFail("invalid key pair")
	}

	testKP, err := GenerateX25519KeyPair(nil)
	if err != nil {
		return cstFail("failed to generate test key pair: %w", err)
	}

	secret1, err := X25519(kp.PrivateKey, testKP.PublicKey)
	if err != nil {
		return cstFail("DH operation 1 failed: %w", err)
	}
	secret2, err := X25519(testKP.PrivateKey, kp.PublicKey)
	if err != nil {
		return cstFail("DH operation 2 failed: %w", err)
	}

	if !ConstantTimeCompare(secret1, secret2) {
		return cstFail("shared secrets do not match")
	}
	if allZero(secret1) {
		return cstFail("shared secret is all zeros")
	}

	return &CSTResult{Passed: true}
}

// RNGHealthCheck draws two samples from rng (OS CSPRNG if nil) and rejects
// zero, repeated or constant output.
func RNGHealthCheck(rng io.Reader) *CSTResult {
	sample1 := make([]byte, 32)
	sample2 := make([]byte, 32)

	if err := readFull(rng, sample1); err != nil {
		return cstFail("RNG read 1 failed: %w", err)
	}
	if err := readFull(rng, sample2); err != nil {
		return cstFail("RNG read 2 failed: %w", err)
	}

	for i, s := range [][]byte{sample1, sample2} {
		if allZero(s) {
			return cstFail("RNG produced all-zero sample %d", i+1)
		}
		if bytes.Count(s, s[:1]) == len(s) {
			return cstFail("RNG sample %d has no variation", i+1)
		}
	}
	if bytes.Equal(sample1, sample2) {
		return cstFail("RNG produced identical consecutive samples")
	}

	return &CSTResult{Passed: true}
}

// SelfTester runs conditional self-tests with its own state.
// It is safe for concurrent use.
type SelfTester struct {
	config CSTConfig

	calls atomic.Uint64

	mu   sync.Mutex
	last []byte
}

// NewSelfTester returns a tester for config.
func NewSelfTester(config CSTConfig) *SelfTester {
	if config.RNGHealthCheckInterval == 0 {
		config.RNGHealthCheckInterval = DefaultCSTConfig().RNGHealthCheckInterval
	}
	return &SelfTester{config: config}
}

// Config returns the tester's configuration.
func (s *SelfTester) Config() CSTConfig {
	return s.config
}

// Enabled reports whether any test is enabled.
func (s *SelfTester) Enabled() bool {
	return s.config.EnablePairwiseTest || s.config.EnableRNGHealthCheck
}

// CheckKEMKeyPair runs the KEM pairwise test if enabled.
func (s *SelfTester) CheckKEMKeyPair(k KEM, kp *KEMKeyPair) error {
	if !s.config.EnablePairwiseTest {
		return nil
	}
	return s.handle(k.Name()+" pairwise consistency test", PairwiseConsistencyTestKEM(k, kp))
}

// CheckX25519KeyPair runs the X25519 pairwise test if enabled.
func (s *SelfTester) CheckX25519KeyPair(kp *X25519KeyPair) error {
	if !s.config.EnablePairwiseTest {
		return nil
	}
	return s.handle("X25519 pairwise consistency test", PairwiseConsistencyTestX25519(kp))
}

// CheckRandom runs the continuous RNG test on output, and a full health
// check every RNGHealthCheckInterval calls.
func (s *SelfTester) CheckRandom(output []byte) error {
	if !s.config.EnableRNGHealthCheck {
		return nil
	}

	if err := s.handle("continuous RNG test", s.continuous(output)); err != nil {
		return err
	}

	if s.calls.Add(1)%s.config.RNGHealthCheckInterval == 0 {
		return s.handle("RNG health check", RNGHealthCheck(nil))
	}
	return nil
}

func (s *SelfTester) continuous(output []byte) *CSTResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && bytes.Equal(output, s.last) {
		return cstFail("RNG produced repeated output")
	}

	if len(s.last) != len(output) {
		s.last = make([]byte, len(output))
	}
	copy(s.last, output)

	return &CSTResult{Passed: true}
}

func (s *SelfTester) handle(name string, result *CSTResult) error {
	if result.Passed {
		return nil
	}
	if FIPSMode() {
		panic(fmt.Sprintf("FIPS CST failed: %s: %v", name, result.Error))
	}
	return fmt.Errorf("%s failed: %w", name, result.Error)
}
