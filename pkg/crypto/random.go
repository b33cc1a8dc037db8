// Package crypto provides the primitives shared by the envelope and
// threshold-signature packages: randomness, zeroization, length-checked
// buffers, SHAKE-256 key derivation, AES block modes, AEAD and the KEM
// collaborator interface.
//
// Randomness comes from one of two sources. Reader wraps the operating
// system CSPRNG; Rand is a deterministic generator seeded from a 48-byte
// seed and owned by the caller. Nothing in this package keeps generator
// state in package-level variables.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// SecureRandom fills b from the OS CSPRNG. An error here means the platform
// entropy source is broken and the caller should stop.
func SecureRandom(b []byte) error {
	if err := readFull(Reader, b); err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MustSecureRandomBytes is SecureRandomBytes for tests and fixtures. It
// panics on failure.
func MustSecureRandomBytes(n int) []byte {
	b, err := SecureRandomBytes(n)
	if err != nil {
		panic(err)
	}
	return b
}

// NewSeed returns a fresh seed for NewRand drawn from the OS CSPRNG.
func NewSeed() ([]byte, error) {
	return SecureRandomBytes(constants.SeedSize)
}

// RandomIV returns a fresh 16-byte CBC initialization vector.
func RandomIV(rng io.Reader) ([]byte, error) {
	iv := make([]byte, constants.AESIVSize)
	if err := readFull(rng, iv); err != nil {
		return nil, qerrors.NewCryptoError("RandomIV", err)
	}
	return iv, nil
}

// Reader is an io.Reader that returns cryptographically secure random bytes.
var Reader = rand.Reader

// readFull fills b from rng, falling back to the OS CSPRNG when rng is nil.
func readFull(rng io.Reader, b []byte) error {
	if rng == nil {
		rng = Reader
	}
	_, err := io.ReadFull(rng, b)
	return err
}

// ConstantTimeCompare compares two byte slices in constant time.
// Slices of different length compare unequal.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize overwrites b with zeros.
//
// The Go runtime may already have copied the data; this only clears the
// backing array the caller holds.
func Zeroize(b []byte) {
	clear(b)
}

// ZeroizeMultiple zeroizes each of bufs.
func ZeroizeMultiple(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
