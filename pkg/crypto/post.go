// post.go implements Power-On Self-Tests (POST).
//
// POST is production code, not test code: the driver runs it before any
// key material is handled, and a sealer can be configured to run it on
// construction. It checks every primitive the envelope depends on with a
// Known Answer Test (KAT):
//   - SHAKE-256 key derivation and the seeded generator
//   - AES-256-CBC (NIST SP 800-38A / CAVP vectors)
//   - AES-256-GCM (GCM specification test case 14)
//   - ML-KEM-1024 pairwise round trip from a fixed seed
//
// Results are returned, not cached. In FIPS mode a failure panics.
package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pzverkov/quantum-envelope/internal/constants"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// POST KAT values
var (
	postKATKDFInput    = mustHex("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	postKATKDFExpected = mustHex("f6cd6267523cd5717f431170c2501816d6b1439b1fe8f084cd028e892cff9b6a")

	postKATDRBGSeed     = mustHex("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f30")
	postKATDRBGExpected = mustHex("b200cbc16d6d5b638331f3eaa3b3c60eee8d7dd69ed033a941d7574e2df01bd6")

	postKATCBCKey        = mustHex("6ed76d2d97c69fd1339589523931f2a6cff554b15f738f21ec72dd97a7330907")
	postKATCBCIV         = mustHex("851e8764776e6796aab722dbb644ace8")
	postKATCBCPlaintext  = mustHex("6282b8c05c5c1530b97d4816ca434762")
	postKATCBCCiphertext = mustHex("6acc04142e100a65f51b97adf5172c41")

	postKATGCMKey        = make([]byte, 32)
	postKATGCMNonce      = make([]byte, 12)
	postKATGCMPlaintext  = make([]byte, 16)
	postKATGCMCiphertext = mustHex("cea7403d4d606b6e074ec5d3baf39d18")
	postKATGCMTag        = mustHex("d0d1c8a799996bf0265b98b5d48ab919")

	postKATMLKEMSeed = mustHex("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef" +
		"fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210")
)

// POSTDomain is the domain separator used in POST KDF tests
const POSTDomain = "POST-KAT-TEST"

// POSTResult contains the results of Power-On Self-Tests
type POSTResult struct {
	Passed      bool
	KDFPassed   bool
	DRBGPassed  bool
	CBCPassed   bool
	GCMPassed   bool
	MLKEMPassed bool
	Errors      []string
}

// RunPOST executes the Power-On Self-Tests and returns the results.
func RunPOST() *POSTResult {
	r := &POSTResult{Passed: true}

	check := func(name string, flag *bool, fn func() error) {
		if err := fn(); err != nil {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf("%s KAT failed: %v", name, err))
			return
		}
		*flag = true
	}

	check("KDF", &r.KDFPassed, runKDFKAT)
	check("DRBG", &r.DRBGPassed, runDRBGKAT)
	check("AES-CBC", &r.CBCPassed, runAESCBCKAT)
	check("AES-GCM", &r.GCMPassed, runAESGCMKAT)
	check("ML-KEM", &r.MLKEMPassed, runMLKEMKAT)

	if FIPSMode() && !r.Passed {
		panic(fmt.Sprintf("FIPS POST failed: %v", r.Errors))
	}

	return r
}

func runKDFKAT() error {
	output, err := DeriveKey(POSTDomain, postKATKDFInput, 32)
	if err != nil {
		return fmt.Errorf("DeriveKey failed: %w", err)
	}
	if !bytes.Equal(output, postKATKDFExpected) {
		return fmt.Errorf("KDF output mismatch: got %x, want %x", output, postKATKDFExpected)
	}
	return nil
}

func runDRBGKAT() error {
	r, err := NewRand(postKATDRBGSeed)
	if err != nil {
		return err
	}
	out := make([]byte, len(postKATDRBGExpected))
	if _, err := r.Read(out); err != nil {
		return err
	}
	if !bytes.Equal(out, postKATDRBGExpected) {
		return fmt.Errorf("DRBG output mismatch: got %x, want %x", out, postKATDRBGExpected)
	}
	return nil
}

func runAESCBCKAT() error {
	ct, err := CBCEncrypt(postKATCBCKey, postKATCBCIV, postKATCBCPlaintext)
	if err != nil {
		return fmt.Errorf("CBCEncrypt failed: %w", err)
	}
	if !bytes.Equal(ct, postKATCBCCiphertext) {
		return fmt.Errorf("AES-CBC encrypt mismatch: got %x, want %x", ct, postKATCBCCiphertext)
	}

	pt, err := CBCDecrypt(postKATCBCKey, postKATCBCIV, ct)
	if err != nil {
		return fmt.Errorf("CBCDecrypt failed: %w", err)
	}
	if !bytes.Equal(pt, postKATCBCPlaintext) {
		return fmt.Errorf("AES-CBC decrypt mismatch: got %x, want %x", pt, postKATCBCPlaintext)
	}
	return nil
}

func runAESGCMKAT() error {
	ct, tag, err := AuthEncrypt(constants.CipherSuiteAES256GCM, postKATGCMKey, postKATGCMNonce, nil, postKATGCMPlaintext)
	if err != nil {
		return fmt.Errorf("AuthEncrypt failed: %w", err)
	}
	if !bytes.Equal(ct, postKATGCMCiphertext) || !bytes.Equal(tag, postKATGCMTag) {
		return fmt.Errorf("AES-GCM encrypt mismatch: got %x/%x", ct, tag)
	}

	pt, err := AuthDecrypt(constants.CipherSuiteAES256GCM, postKATGCMKey, postKATGCMNonce, nil, ct, tag)
	if err != nil {
		return fmt.Errorf("AES-GCM decrypt failed: %w", err)
	}
	if !bytes.Equal(pt, postKATGCMPlaintext) {
		return fmt.Errorf("AES-GCM decrypt mismatch: got %x", pt)
	}
	return nil
}

// runMLKEMKAT derives a fixed key pair and checks the pairwise round trip.
// Encapsulation is randomized, so only sizes and agreement are checked.
func runMLKEMKAT() error {
	k := MLKEM1024()
	kp, err := k.Keypair(bytes.NewReader(postKATMLKEMSeed))
	if err != nil {
		return fmt.Errorf("Keypair failed: %w", err)
	}
	defer kp.Zeroize()

	if len(kp.PublicKey) != constants.MLKEMPublicKeySize {
		return fmt.Errorf("public key size mismatch: got %d, want %d", len(kp.PublicKey), constants.MLKEMPublicKeySize)
	}

	if res := PairwiseConsistencyTestKEM(k, kp); !res.Passed {
		return res.Error
	}
	return nil
}
