// Package version reports the release and wire-format versions.
package version

import (
	"fmt"
	"runtime"

	"github.com/pzverkov/quantum-envelope/internal/constants"
)

// Name is the project name shown by the CLI.
const Name = "Quantum-Envelope"

// Semantic version components.
const (
	// Major is the major version (breaking changes).
	Major = 0
	// Minor is the minor version (new features).
	Minor = 1
	// Patch is the patch version (bug fixes).
	Patch = 0
	// Label is the optional pre-release label.
	Label = ""
)

// String returns the release version, e.g. "v0.1.0".
func String() string {
	v := fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch)
	if Label != "" {
		v += "-" + Label
	}
	return v
}

// Full returns the release and the sealed-message format it writes.
func Full() string {
	return fmt.Sprintf("%s %s (format %d, %s)", Name, String(), constants.FormatVersion, runtime.Version())
}
