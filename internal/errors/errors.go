// Package errors defines the error taxonomy shared by the envelope and
// threshold-signature packages. Messages never include key material.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for input validation
var (
	// ErrInvalidLength indicates a buffer has the wrong length or is not block aligned
	ErrInvalidLength = errors.New("qe: invalid length")

	// ErrInvalidEncoding indicates a point or scalar encoding could not be decoded
	ErrInvalidEncoding = errors.New("qe: invalid encoding")

	// ErrInvalidThreshold indicates k/n are inconsistent or recovery points are bad
	ErrInvalidThreshold = errors.New("qe: invalid threshold")

	// ErrInvalidPadding indicates PKCS#7 padding is malformed
	ErrInvalidPadding = errors.New("qe: invalid padding")
)

// Sentinel errors for cryptographic operations
var (
	// ErrVerifyFailed indicates a signature or authentication tag did not verify
	ErrVerifyFailed = errors.New("qe: verification failed")

	// ErrInvalidKeySize indicates that a key has an incorrect size
	ErrInvalidKeySize = errors.New("qe: invalid key size")

	// ErrDecapsulationFailed indicates that KEM decapsulation failed
	ErrDecapsulationFailed = errors.New("kem: decapsulation failed")

	// ErrKeyGenerationFailed indicates that key generation failed
	ErrKeyGenerationFailed = errors.New("qe: key generation failed")

	// ErrEncapsulationFailed indicates that KEM encapsulation failed
	ErrEncapsulationFailed = errors.New("kem: encapsulation failed")

	// ErrInvalidPublicKey indicates that a public key is invalid
	ErrInvalidPublicKey = errors.New("qe: invalid public key")

	// ErrInvalidPrivateKey indicates that a private key is invalid
	ErrInvalidPrivateKey = errors.New("qe: invalid private key")

	// ErrUnsupportedKEM indicates an unknown KEM suite name
	ErrUnsupportedKEM = errors.New("kem: unsupported scheme")
)

// Sentinel errors for sealed messages
var (
	// ErrInvalidMessage indicates an encoded message is malformed
	ErrInvalidMessage = errors.New("sealed: invalid message")

	// ErrUnsupportedVersion indicates an unsupported format version
	ErrUnsupportedVersion = errors.New("sealed: unsupported version")

	// ErrUnsupportedCipherSuite indicates an unsupported cipher suite
	ErrUnsupportedCipherSuite = errors.New("sealed: unsupported cipher suite")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("sealed: message too large")
)

// CryptoError wraps a cryptographic error with additional context
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
