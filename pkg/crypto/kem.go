// kem.go adapts post-quantum key encapsulation schemes to a byte-oriented
// interface.
//
// Keys and encapsulations cross the interface as plain byte slices of the
// scheme's fixed sizes. Randomness is always drawn from a caller-supplied
// io.Reader through the scheme's deterministic entry points, so that a
// seeded Rand reproduces the same key pair and encapsulation.
//
// Supported schemes:
//   - ML-KEM-768 and ML-KEM-1024 (NIST FIPS 203)
//   - Kyber768-X25519 (hybrid; its shared secret is 64 bytes)
//
// ML-KEM decapsulation uses implicit rejection: a well-formed ciphertext
// decapsulated with the wrong key yields a pseudorandom secret, not an
// error.
package crypto

import (
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/hybrid"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// KEM is a key encapsulation mechanism over encoded keys.
type KEM interface {
	// Name identifies the scheme; it is bound into derived envelope keys.
	Name() string

	PublicKeySize() int
	PrivateKeySize() int
	CiphertextSize() int
	SharedSecretSize() int

	// Keypair derives a key pair from bytes read from rng (OS CSPRNG if nil).
	Keypair(rng io.Reader) (*KEMKeyPair, error)

	// PublicKeyOf recomputes the public key belonging to secretKey.
	PublicKeyOf(secretKey []byte) ([]byte, error)

	// Encapsulate produces an encapsulated key and the shared secret it carries.
	Encapsulate(publicKey []byte, rng io.Reader) (encapsulatedKey, sharedSecret []byte, err error)

	// Decapsulate recovers the shared secret from an encapsulated key.
	Decapsulate(secretKey, encapsulatedKey []byte) ([]byte, error)
}

// KEMKeyPair is an encoded KEM key pair.
type KEMKeyPair struct {
	PublicKey []byte
	SecretKey []byte
}

// Zeroize erases the secret key.
func (kp *KEMKeyPair) Zeroize() {
	if kp == nil {
		return
	}
	Zeroize(kp.SecretKey)
	kp.SecretKey = nil
}

// circlKEM wraps a circl kem.Scheme.
type circlKEM struct {
	name   string
	scheme kem.Scheme
}

// MLKEM768 returns ML-KEM-768.
func MLKEM768() KEM { return &circlKEM{name: constants.KEMMLKEM768, scheme: mlkem768.Scheme()} }

// MLKEM1024 returns ML-KEM-1024.
func MLKEM1024() KEM { return &circlKEM{name: constants.KEMMLKEM1024, scheme: mlkem1024.Scheme()} }

// Kyber768X25519 returns the Kyber768 + X25519 hybrid.
func Kyber768X25519() KEM {
	return &circlKEM{name: constants.KEMKyber768X25519, scheme: hybrid.Kyber768X25519()}
}

// KEMByName returns one of the schemes implemented in this package.
// CH-KEM lives in its own package and is resolved by the envelope package.
func KEMByName(name string) (KEM, error) {
	switch name {
	case constants.KEMMLKEM768:
		return MLKEM768(), nil
	case constants.KEMMLKEM1024, "":
		return MLKEM1024(), nil
	case constants.KEMKyber768X25519:
		return Kyber768X25519(), nil
	default:
		return nil, qerrors.NewCryptoError("KEMByName", qerrors.ErrUnsupportedKEM)
	}
}

func (c *circlKEM) Name() string          { return c.name }
func (c *circlKEM) PublicKeySize() int    { return c.scheme.PublicKeySize() }
func (c *circlKEM) PrivateKeySize() int   { return c.scheme.PrivateKeySize() }
func (c *circlKEM) CiphertextSize() int   { return c.scheme.CiphertextSize() }
func (c *circlKEM) SharedSecretSize() int { return c.scheme.SharedKeySize() }

func (c *circlKEM) Keypair(rng io.Reader) (*KEMKeyPair, error) {
	seed := make([]byte, c.scheme.SeedSize())
	defer Zeroize(seed)
	if err := readFull(rng, seed); err != nil {
		return nil, qerrors.NewCryptoError(c.name+".Keypair", qerrors.ErrKeyGenerationFailed)
	}

	pk, sk := c.scheme.DeriveKeyPair(seed)

	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, qerrors.NewCryptoError(c.name+".Keypair", err)
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, qerrors.NewCryptoError(c.name+".Keypair", err)
	}

	return &KEMKeyPair{PublicKey: pkBytes, SecretKey: skBytes}, nil
}

func (c *circlKEM) PublicKeyOf(secretKey []byte) ([]byte, error) {
	if err := RequireLen(c.name+".PublicKeyOf", secretKey, c.scheme.PrivateKeySize()); err != nil {
		return nil, err
	}
	sk, err := c.scheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return nil, qerrors.NewCryptoError(c.name+".PublicKeyOf", qerrors.ErrInvalidPrivateKey)
	}
	return sk.Public().MarshalBinary()
}

func (c *circlKEM) Encapsulate(publicKey []byte, rng io.Reader) ([]byte, []byte, error) {
	op := c.name + ".Encapsulate"
	if err := RequireLen(op, publicKey, c.scheme.PublicKeySize()); err != nil {
		return nil, nil, err
	}

	pk, err := c.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidPublicKey)
	}

	seed := make([]byte, c.scheme.EncapsulationSeedSize())
	defer Zeroize(seed)
	if err := readFull(rng, seed); err != nil {
		return nil, nil, qerrors.NewCryptoError(op, qerrors.ErrEncapsulationFailed)
	}

	ct, ss, err := c.scheme.EncapsulateDeterministically(pk, seed)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError(op, qerrors.ErrEncapsulationFailed)
	}
	return ct, ss, nil
}

func (c *circlKEM) Decapsulate(secretKey, encapsulatedKey []byte) ([]byte, error) {
	op := c.name + ".Decapsulate"
	if err := RequireLen(op, secretKey, c.scheme.PrivateKeySize()); err != nil {
		return nil, err
	}
	if err := RequireLen(op, encapsulatedKey, c.scheme.CiphertextSize()); err != nil {
		return nil, err
	}

	sk, err := c.scheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrDecapsulationFailed)
	}

	ss, err := c.scheme.Decapsulate(sk, encapsulatedKey)
	if err != nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrDecapsulationFailed)
	}
	return ss, nil
}
