package crypto_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// TestCSTConfig verifies CST configuration
func TestCSTConfig(t *testing.T) {
	config := crypto.DefaultCSTConfig()

	if !crypto.FIPSMode() {
		if config.EnablePairwiseTest {
			t.Error("Pairwise test should be disabled in non-FIPS mode by default")
		}
		if config.EnableRNGHealthCheck {
			t.Error("RNG health check should be disabled in non-FIPS mode by default")
		}
	}

	if config.RNGHealthCheckInterval == 0 {
		t.Error("RNGHealthCheckInterval should not be zero")
	}
}

func TestPairwiseConsistencyTestKEM(t *testing.T) {
	for _, k := range allKEMs() {
		kp, err := k.Keypair(nil)
		if err != nil {
			t.Fatalf("%s Keypair failed: %v", k.Name(), err)
		}
		if result := crypto.PairwiseConsistencyTestKEM(k, kp); !result.Passed {
			t.Errorf("%s pairwise consistency test failed: %v", k.Name(), result.Error)
		}
	}

	if result := crypto.PairwiseConsistencyTestKEM(crypto.MLKEM768(), nil); result.Passed {
		t.Error("nil key pair should fail")
	}
}

func TestPairwiseConsistencyTestKEMMismatch(t *testing.T) {
	k := crypto.MLKEM768()
	kp1, _ := k.Keypair(nil)
	kp2, _ := k.Keypair(nil)

	mixed := &crypto.KEMKeyPair{PublicKey: kp1.PublicKey, SecretKey: kp2.SecretKey}
	result := crypto.PairwiseConsistencyTestKEM(k, mixed)
	if result.Passed {
		t.Fatal("mismatched key pair should fail")
	}
	if !strings.Contains(result.Error.Error(), "do not match") {
		t.Errorf("unexpected error: %v", result.Error)
	}
}

func TestPairwiseConsistencyTestX25519(t *testing.T) {
	kp, err := crypto.GenerateX25519KeyPair(nil)
	if err != nil {
		t.Fatalf("Failed to generate X25519 key pair: %v", err)
	}
	if result := crypto.PairwiseConsistencyTestX25519(kp); !result.Passed {
		t.Errorf("Pairwise consistency test failed: %v", result.Error)
	}
	if result := crypto.PairwiseConsistencyTestX25519(nil); result.Passed {
		t.Error("nil key pair should fail")
	}
}

type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

func TestRNGHealthCheck(t *testing.T) {
	if result := crypto.RNGHealthCheck(nil); !result.Passed {
		t.Errorf("RNG health check failed: %v", result.Error)
	}
	if result := crypto.RNGHealthCheck(constReader(0)); result.Passed {
		t.Error("all-zero RNG should fail")
	}
	if result := crypto.RNGHealthCheck(constReader(0xAA)); result.Passed {
		t.Error("constant RNG should fail")
	}
}

func TestSelfTesterDisabled(t *testing.T) {
	st := crypto.NewSelfTester(crypto.CSTConfig{})
	if st.Enabled() {
		t.Error("empty config should disable all tests")
	}
	if st.Config().RNGHealthCheckInterval == 0 {
		t.Error("zero interval should be replaced by the default")
	}

	same := bytes.Repeat([]byte{1}, 16)
	if err := st.CheckRandom(same); err != nil {
		t.Errorf("disabled CheckRandom failed: %v", err)
	}
	if err := st.CheckRandom(same); err != nil {
		t.Errorf("disabled CheckRandom failed on repeat: %v", err)
	}
}

func TestSelfTesterEnabled(t *testing.T) {
	if crypto.FIPSMode() {
		t.Skip("CST failures panic in FIPS mode")
	}

	st := crypto.NewSelfTester(crypto.CSTConfig{
		EnablePairwiseTest:     true,
		EnableRNGHealthCheck:   true,
		RNGHealthCheckInterval: 2,
	})

	k := crypto.MLKEM768()
	kp, _ := k.Keypair(nil)
	if err := st.CheckKEMKeyPair(k, kp); err != nil {
		t.Errorf("CheckKEMKeyPair failed: %v", err)
	}

	xkp, _ := crypto.GenerateX25519KeyPair(nil)
	if err := st.CheckX25519KeyPair(xkp); err != nil {
		t.Errorf("CheckX25519KeyPair failed: %v", err)
	}

	a := crypto.MustSecureRandomBytes(32)
	b := crypto.MustSecureRandomBytes(32)
	if err := st.CheckRandom(a); err != nil {
		t.Errorf("CheckRandom(a) failed: %v", err)
	}
	if err := st.CheckRandom(b); err != nil {
		t.Errorf("CheckRandom(b) failed: %v", err)
	}
	if err := st.CheckRandom(b); err == nil {
		t.Error("repeated output should fail the continuous test")
	}
}
