//go:build fips
// +build fips

// This file is compiled when the "fips" build tag is specified.
// In FIPS mode, only FIPS 140-3 approved cipher suites are available.

package crypto

import "github.com/pzverkov/quantum-envelope/internal/constants"

// FIPSMode reports whether the binary was built in FIPS mode.
func FIPSMode() bool { return true }

// SupportedCipherSuites returns the cipher suites usable in FIPS mode.
func SupportedCipherSuites() []constants.CipherSuite {
	return []constants.CipherSuite{
		constants.CipherSuiteAES256GCM,
		constants.CipherSuiteAES256CBC,
	}
}

// SuiteAllowed reports whether suite may be used in this build.
func SuiteAllowed(suite constants.CipherSuite) bool {
	return suite.IsFIPSApproved()
}
