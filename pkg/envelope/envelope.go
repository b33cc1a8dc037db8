// Package envelope encrypts data for a KEM public key.
//
// An envelope is (IV, ciphertext, encapsulated key[, tag]). The sender
// encapsulates against the recipient's public key, derives a 32-byte key
// from the shared secret, and encrypts with it:
//
//	(ek, ss) ← KEM.Encaps(pk)
//	K        ← SHAKE-256("QE-Envelope-v1-Key", [kemName, ss, ek], 256)
//	ct       ← AES-256-CBC(K, iv, plaintext)          EncryptEnvelope
//	ct, tag  ← AEAD(K, nonce, aad, plaintext)         SealEnvelope
//
// The derivation accepts any shared-secret length, so a 64-byte hybrid
// secret and a 32-byte ML-KEM secret go through the same path.
//
// The CBC form neither pads nor authenticates: plaintext must be
// block-aligned (see Pad) and decryption under the wrong key returns
// garbage rather than an error, because ML-KEM decapsulation rejects
// implicitly. The AEAD form reports a wrong key as ErrVerifyFailed.
package envelope

import (
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/chkem"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// Envelope is an encrypted payload plus the encapsulated key that unlocks it.
type Envelope struct {
	Suite           constants.CipherSuite
	IV              []byte
	Ciphertext      []byte
	EncapsulatedKey []byte
	Tag             []byte // AEAD suites only
}

// KEMByName resolves every supported KEM suite, CH-KEM included.
// The empty name selects constants.DefaultKEM.
func KEMByName(name string) (crypto.KEM, error) {
	if name == constants.KEMCHKEM {
		return chkem.New(), nil
	}
	return crypto.KEMByName(name)
}

// encapsulate runs the KEM and derives the envelope key.
func encapsulate(op string, k crypto.KEM, recipientPublicKey []byte, rng io.Reader) (ek, key []byte, err error) {
	if err := crypto.RequireLen(op, recipientPublicKey, k.PublicKeySize()); err != nil {
		return nil, nil, err
	}

	ek, ss, err := k.Encapsulate(recipientPublicKey, rng)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError(op, err)
	}
	defer crypto.Zeroize(ss)

	key, err = crypto.DeriveEnvelopeKey(k.Name(), ss, ek)
	if err != nil {
		return nil, nil, err
	}
	return ek, key, nil
}

// decapsulate recovers the envelope key.
func decapsulate(op string, k crypto.KEM, recipientSecretKey, ek []byte) ([]byte, error) {
	if err := crypto.RequireLen(op, recipientSecretKey, k.PrivateKeySize()); err != nil {
		return nil, err
	}
	if err := crypto.RequireLen(op, ek, k.CiphertextSize()); err != nil {
		return nil, err
	}

	ss, err := k.Decapsulate(recipientSecretKey, ek)
	if err != nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrDecapsulationFailed)
	}
	defer crypto.Zeroize(ss)

	return crypto.DeriveEnvelopeKey(k.Name(), ss, ek)
}

// EncryptEnvelope encrypts block-aligned plaintext with AES-256-CBC under a
// key encapsulated to recipientPublicKey. Randomness for the encapsulation
// is drawn from rng (OS CSPRNG if nil).
//
// ErrInvalidLength is returned when plaintext is not a multiple of 16 bytes,
// iv is not 16 bytes, or the public key size does not match k.
func EncryptEnvelope(k crypto.KEM, plaintext, iv, recipientPublicKey []byte, rng io.Reader) (*Envelope, error) {
	const op = "envelope.EncryptEnvelope"

	if err := crypto.RequireLen(op, iv, constants.AESIVSize); err != nil {
		return nil, err
	}
	if err := crypto.RequireBlockAligned(op, plaintext, constants.AESBlockSize); err != nil {
		return nil, err
	}

	ek, key, err := encapsulate(op, k, recipientPublicKey, rng)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(key)

	ct, err := crypto.CBCEncrypt(key, iv, plaintext)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Suite:           constants.CipherSuiteAES256CBC,
		IV:              append([]byte(nil), iv...),
		Ciphertext:      ct,
		EncapsulatedKey: ek,
	}, nil
}

// DecryptEnvelope reverses EncryptEnvelope.
func DecryptEnvelope(k crypto.KEM, env *Envelope, recipientSecretKey []byte) ([]byte, error) {
	const op = "envelope.DecryptEnvelope"

	if env == nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidLength)
	}
	if env.Suite != constants.CipherSuiteAES256CBC {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrUnsupportedCipherSuite)
	}
	if err := crypto.RequireLen(op, env.IV, constants.AESIVSize); err != nil {
		return nil, err
	}
	if err := crypto.RequireBlockAligned(op, env.Ciphertext, constants.AESBlockSize); err != nil {
		return nil, err
	}

	key, err := decapsulate(op, k, recipientSecretKey, env.EncapsulatedKey)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(key)

	return crypto.CBCDecrypt(key, env.IV, env.Ciphertext)
}

// SealEnvelope encrypts plaintext of any length with an AEAD suite under a
// key encapsulated to recipientPublicKey. aad is authenticated but not
// stored in the envelope.
func SealEnvelope(k crypto.KEM, suite constants.CipherSuite, plaintext, nonce, aad, recipientPublicKey []byte, rng io.Reader) (*Envelope, error) {
	const op = "envelope.SealEnvelope"

	if !suite.IsAEAD() || !crypto.SuiteAllowed(suite) {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrUnsupportedCipherSuite)
	}
	if err := crypto.RequireLen(op, nonce, constants.AESNonceSize); err != nil {
		return nil, err
	}

	ek, key, err := encapsulate(op, k, recipientPublicKey, rng)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(key)

	ct, tag, err := crypto.AuthEncrypt(suite, key, nonce, aad, plaintext)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Suite:           suite,
		IV:              append([]byte(nil), nonce...),
		Ciphertext:      ct,
		EncapsulatedKey: ek,
		Tag:             tag,
	}, nil
}

// OpenEnvelope verifies and decrypts an AEAD envelope. A wrong secret key,
// a modified field, or different aad all yield ErrVerifyFailed.
func OpenEnvelope(k crypto.KEM, env *Envelope, aad, recipientSecretKey []byte) ([]byte, error) {
	const op = "envelope.OpenEnvelope"

	if env == nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidLength)
	}
	if !env.Suite.IsAEAD() {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrUnsupportedCipherSuite)
	}

	key, err := decapsulate(op, k, recipientSecretKey, env.EncapsulatedKey)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(key)

	return crypto.AuthDecrypt(env.Suite, key, env.IV, aad, env.Ciphertext, env.Tag)
}

// Encrypt is AES-256-CBC with a caller-held key.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	return crypto.CBCEncrypt(key, iv, plaintext)
}

// Decrypt is the inverse of Encrypt.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	return crypto.CBCDecrypt(key, iv, ciphertext)
}

// AuthEncrypt encrypts with an AEAD suite and a caller-held key, returning
// the ciphertext and the detached tag.
func AuthEncrypt(suite constants.CipherSuite, key, iv, aad, data []byte) ([]byte, []byte, error) {
	return crypto.AuthEncrypt(suite, key, iv, aad, data)
}

// AuthDecrypt verifies tag and decrypts, or returns ErrVerifyFailed.
func AuthDecrypt(suite constants.CipherSuite, key, iv, aad, ciphertext, tag []byte) ([]byte, error) {
	return crypto.AuthDecrypt(suite, key, iv, aad, ciphertext, tag)
}
