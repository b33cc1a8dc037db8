// aead.go implements Authenticated Encryption with Associated Data (AEAD).
//
// Two algorithms are supported:
//   - AES-256-GCM: FIPS-approved, hardware-accelerated on modern CPUs
//   - ChaCha20-Poly1305: fast without hardware support, not FIPS-approved
//
// Both take a 96-bit nonce and produce a 128-bit tag. Each (key, nonce)
// pair MUST be used at most once. The envelope derives a fresh key per
// encapsulation, so a caller-provided IV is only reused if the caller
// reuses it with the same recipient encapsulation.
package crypto

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// AEAD represents an authenticated encryption cipher bound to one key.
type AEAD struct {
	cipher cipher.AEAD
	suite  constants.CipherSuite
}

// NewAEAD creates a new AEAD cipher with the specified suite and 32-byte key.
// Suites that are not AEAD, or not allowed in the current build, are rejected.
func NewAEAD(suite constants.CipherSuite, key []byte) (*AEAD, error) {
	if len(key) != constants.AESKeySize {
		return nil, qerrors.NewCryptoError("NewAEAD", qerrors.ErrInvalidKeySize)
	}
	if !SuiteAllowed(suite) || !suite.IsAEAD() {
		return nil, qerrors.NewCryptoError("NewAEAD", qerrors.ErrUnsupportedCipherSuite)
	}

	var aeadCipher cipher.AEAD

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := newAES256("NewAEAD", key)
		if err != nil {
			return nil, err
		}
		aeadCipher, err = cipher.NewGCM(block)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	case constants.CipherSuiteChaCha20Poly1305:
		var err error
		aeadCipher, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}
	}

	return &AEAD{cipher: aeadCipher, suite: suite}, nil
}

// SealWithNonce encrypts plaintext and returns ciphertext || tag.
func (a *AEAD) SealWithNonce(nonce, plaintext, additionalData []byte) ([]byte, error) {
	if len(nonce) != a.cipher.NonceSize() {
		return nil, qerrors.NewCryptoError("AEAD.Seal", qerrors.ErrInvalidLength)
	}
	return a.cipher.Seal(nil, nonce, plaintext, additionalData), nil
}

// OpenWithNonce verifies and decrypts ciphertext || tag.
// Any authentication failure is reported as ErrVerifyFailed.
func (a *AEAD) OpenWithNonce(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != a.cipher.NonceSize() {
		return nil, qerrors.NewCryptoError("AEAD.Open", qerrors.ErrInvalidLength)
	}
	if len(ciphertext) < a.cipher.Overhead() {
		return nil, qerrors.NewCryptoError("AEAD.Open", qerrors.ErrInvalidLength)
	}

	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, qerrors.NewCryptoError("AEAD.Open", qerrors.ErrVerifyFailed)
	}
	return plaintext, nil
}

// Suite returns the cipher suite identifier.
func (a *AEAD) Suite() constants.CipherSuite {
	return a.suite
}

// Overhead returns the tag size in bytes.
func (a *AEAD) Overhead() int {
	return a.cipher.Overhead()
}

// NonceSize returns the required nonce size in bytes.
func (a *AEAD) NonceSize() int {
	return a.cipher.NonceSize()
}

// AuthEncrypt encrypts data under key and returns the ciphertext and the
// detached 16-byte tag. The ciphertext has the same length as data.
func AuthEncrypt(suite constants.CipherSuite, key, iv, aad, data []byte) (ciphertext, tag []byte, err error) {
	a, err := NewAEAD(suite, key)
	if err != nil {
		return nil, nil, err
	}

	sealed, err := a.SealWithNonce(iv, data, aad)
	if err != nil {
		return nil, nil, err
	}

	split := len(sealed) - a.Overhead()
	return sealed[:split:split], sealed[split:], nil
}

// AuthDecrypt verifies tag over ciphertext and aad and returns the
// plaintext, or ErrVerifyFailed.
func AuthDecrypt(suite constants.CipherSuite, key, iv, aad, ciphertext, tag []byte) ([]byte, error) {
	a, err := NewAEAD(suite, key)
	if err != nil {
		return nil, err
	}
	if err := RequireLen("AuthDecrypt", tag, a.Overhead()); err != nil {
		return nil, err
	}

	joined := make([]byte, 0, len(ciphertext)+len(tag))
	joined = append(joined, ciphertext...)
	joined = append(joined, tag...)

	return a.OpenWithNonce(iv, joined, aad)
}
