//go:build !fips
// +build !fips

// This file is compiled when the "fips" build tag is NOT specified.
// In standard mode, all supported cipher suites are available.

package crypto

import "github.com/pzverkov/quantum-envelope/internal/constants"

// FIPSMode reports whether the binary was built in FIPS mode.
func FIPSMode() bool { return false }

// SupportedCipherSuites returns the cipher suites usable in standard mode.
// AES-256-GCM comes first as the preferred authenticated suite.
func SupportedCipherSuites() []constants.CipherSuite {
	return []constants.CipherSuite{
		constants.CipherSuiteAES256GCM,
		constants.CipherSuiteChaCha20Poly1305,
		constants.CipherSuiteAES256CBC,
	}
}

// SuiteAllowed reports whether suite may be used in this build.
func SuiteAllowed(suite constants.CipherSuite) bool {
	return suite.IsSupported()
}
