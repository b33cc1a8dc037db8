package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/sealed"
)

// selfTest is one named check run by the selftest command and the
// readiness endpoint.
type selfTest struct {
	name string
	run  func() error
}

func selfTests() []selfTest {
	tests := []selfTest{
		{"POST (KDF, DRBG, CBC, GCM, ML-KEM)", func() error {
			if r := crypto.RunPOST(); !r.Passed {
				return fmt.Errorf("%s", strings.Join(r.Errors, "; "))
			}
			return nil
		}},
		{"RNG health", func() error {
			return crypto.RNGHealthCheck(nil).Error
		}},
	}

	// GenerateIdentity runs the KEM and BLS pairwise consistency tests.
	for _, name := range []string{
		constants.KEMMLKEM768,
		constants.KEMMLKEM1024,
		constants.KEMKyber768X25519,
		constants.KEMCHKEM,
	} {
		tests = append(tests, selfTest{name + " + BLS pairwise", func() error {
			id, err := sealed.GenerateIdentity(nil, name)
			if err != nil {
				return err
			}
			id.Zeroize()
			return nil
		}})
	}
	return tests
}

func runSelfTest(w io.Writer) bool {
	fmt.Fprintf(w, "Self-tests (FIPS mode: %v)\n", crypto.FIPSMode())
	fmt.Fprintln(w, strings.Repeat("─", 60))

	passed := true
	for _, t := range selfTests() {
		if err := t.run(); err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", t.name, err)
			passed = false
			continue
		}
		fmt.Fprintf(w, "✓ %s\n", t.name)
	}
	return passed
}
