// Package chkem implements the Cascaded Hybrid Key Encapsulation Mechanism (CH-KEM).
//
// CH-KEM combines:
//   - X25519 (classical elliptic curve Diffie-Hellman)
//   - ML-KEM-1024 (post-quantum lattice-based KEM)
//   - SHAKE-256 (key derivation)
//
// The combined secret stays secret if EITHER X25519 OR ML-KEM-1024 holds,
// under the random oracle model for SHAKE-256.
//
// # Construction
//
// Key Generation:
//
//	(sk_x, pk_x) ← X25519.KeyGen()
//	(sk_m, pk_m) ← ML-KEM-1024.KeyGen()
//	pk = pk_x || pk_m
//	sk = sk_x || sk_m
//
// Encapsulation:
//
//	(ct_m, K_m) ← ML-KEM-1024.Encaps(pk_m)
//	(sk_e, pk_e) ← X25519.KeyGen()
//	K_x ← X25519.DH(sk_e, pk_x)
//	ct = pk_e || ct_m
//	transcript ← SHA3-256(pk_x || pk_m || pk_e || ct_m)
//	K ← SHAKE-256("CH-KEM-v1-SharedSecret" || K_x || K_m || transcript, 256)
//
// Decapsulation recomputes K_x with sk_x and pk_e, K_m with sk_m, and the
// same transcript from the public key embedded in sk.
//
// KEM satisfies crypto.KEM, so CH-KEM can carry an envelope like any other
// suite. All randomness is drawn from the caller's io.Reader: 32 + 64 bytes
// for a key pair, 32 + 32 bytes for an encapsulation.
package chkem

import (
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// KEM is the CH-KEM scheme.
type KEM struct {
	mlkem crypto.KEM
}

var _ crypto.KEM = (*KEM)(nil)

// New returns CH-KEM over ML-KEM-1024.
func New() *KEM {
	return &KEM{mlkem: crypto.MLKEM1024()}
}

func (k *KEM) Name() string          { return constants.KEMCHKEM }
func (k *KEM) PublicKeySize() int    { return constants.CHKEMPublicKeySize }
func (k *KEM) PrivateKeySize() int   { return constants.CHKEMPrivateKeySize }
func (k *KEM) CiphertextSize() int   { return constants.CHKEMCiphertextSize }
func (k *KEM) SharedSecretSize() int { return constants.CHKEMSharedSecretSize }

// Keypair generates a CH-KEM key pair from rng (OS CSPRNG if nil).
func (k *KEM) Keypair(rng io.Reader) (*crypto.KEMKeyPair, error) {
	xkp, err := crypto.GenerateX25519KeyPair(rng)
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.Keypair", qerrors.ErrKeyGenerationFailed)
	}
	defer xkp.Zeroize()

	mkp, err := k.mlkem.Keypair(rng)
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.Keypair", err)
	}
	defer mkp.Zeroize()

	pk := make([]byte, 0, constants.CHKEMPublicKeySize)
	pk = append(pk, xkp.PublicKeyBytes()...)
	pk = append(pk, mkp.PublicKey...)

	sk := make([]byte, 0, constants.CHKEMPrivateKeySize)
	sk = append(sk, xkp.PrivateKeyBytes()...)
	sk = append(sk, mkp.SecretKey...)

	return &crypto.KEMKeyPair{PublicKey: pk, SecretKey: sk}, nil
}

// PublicKeyOf recomputes pk_x || pk_m from a secret key.
func (k *KEM) PublicKeyOf(secretKey []byte) ([]byte, error) {
	if err := crypto.RequireLen("CHKEM.PublicKeyOf", secretKey, constants.CHKEMPrivateKeySize); err != nil {
		return nil, err
	}

	xkp, err := crypto.NewX25519KeyPairFromBytes(secretKey[:constants.X25519PrivateKeySize])
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.PublicKeyOf", qerrors.ErrInvalidPrivateKey)
	}
	defer xkp.Zeroize()

	mpk, err := k.mlkem.PublicKeyOf(secretKey[constants.X25519PrivateKeySize:])
	if err != nil {
		return nil, err
	}

	pk := make([]byte, 0, constants.CHKEMPublicKeySize)
	pk = append(pk, xkp.PublicKeyBytes()...)
	return append(pk, mpk...), nil
}

// Encapsulate produces pk_e || ct_m and the 32-byte combined secret.
func (k *KEM) Encapsulate(publicKey []byte, rng io.Reader) ([]byte, []byte, error) {
	pk, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, nil, err
	}

	eph, err := crypto.GenerateX25519KeyPair(rng)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("CHKEM.Encapsulate", qerrors.ErrEncapsulationFailed)
	}
	defer eph.Zeroize()

	peer, err := crypto.ParseX25519PublicKey(pk.X25519PublicKey())
	if err != nil {
		return nil, nil, err
	}
	x25519Secret, err := crypto.X25519(eph.PrivateKey, peer)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("CHKEM.Encapsulate", qerrors.ErrEncapsulationFailed)
	}
	defer crypto.Zeroize(x25519Secret)

	mlkemCT, mlkemSecret, err := k.mlkem.Encapsulate(pk.MLKEMPublicKey(), rng)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Zeroize(mlkemSecret)

	ct := &Ciphertext{x25519Ephemeral: eph.PublicKeyBytes(), mlkemCiphertext: mlkemCT}

	ss, err := combine(pk, ct, x25519Secret, mlkemSecret)
	if err != nil {
		return nil, nil, err
	}
	return ct.Bytes(), ss, nil
}

// Decapsulate recovers the combined secret.
func (k *KEM) Decapsulate(secretKey, encapsulatedKey []byte) ([]byte, error) {
	if err := crypto.RequireLen("CHKEM.Decapsulate", secretKey, constants.CHKEMPrivateKeySize); err != nil {
		return nil, err
	}
	ct, err := ParseCiphertext(encapsulatedKey)
	if err != nil {
		return nil, err
	}

	pkBytes, err := k.PublicKeyOf(secretKey)
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.Decapsulate", qerrors.ErrDecapsulationFailed)
	}
	pk, err := ParsePublicKey(pkBytes)
	if err != nil {
		return nil, err
	}

	xkp, err := crypto.NewX25519KeyPairFromBytes(secretKey[:constants.X25519PrivateKeySize])
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.Decapsulate", qerrors.ErrDecapsulationFailed)
	}
	defer xkp.Zeroize()

	eph, err := crypto.ParseX25519PublicKey(ct.x25519Ephemeral)
	if err != nil {
		return nil, qerrors.NewCryptoError("CHKEM.Decapsulate", qerrors.ErrDecapsulationFailed)
	}
	x25519Secret, err := crypto.X25519(xkp.PrivateKey, eph)
	if err != nil {
		// low-order ephemeral point
		return nil, qerrors.NewCryptoError("CHKEM.Decapsulate", qerrors.ErrDecapsulationFailed)
	}
	defer crypto.Zeroize(x25519Secret)

	mlkemSecret, err := k.mlkem.Decapsulate(secretKey[constants.X25519PrivateKeySize:], ct.mlkemCiphertext)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(mlkemSecret)

	return combine(pk, ct, x25519Secret, mlkemSecret)
}

func combine(pk *PublicKey, ct *Ciphertext, x25519Secret, mlkemSecret []byte) ([]byte, error) {
	transcript := crypto.TranscriptHash(
		pk.x25519,
		pk.mlkem,
		ct.x25519Ephemeral,
		ct.mlkemCiphertext,
	)
	return crypto.DeriveCHKEMSecret(x25519Secret, mlkemSecret, transcript)
}

// PublicKey is a decoded CH-KEM public key.
type PublicKey struct {
	x25519 []byte
	mlkem  []byte
}

// ParsePublicKey splits a 1600-byte public key into its components.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if len(data) != constants.CHKEMPublicKeySize {
		return nil, qerrors.NewCryptoError("CHKEM.ParsePublicKey", qerrors.ErrInvalidLength)
	}
	if _, err := crypto.ParseX25519PublicKey(data[:constants.X25519PublicKeySize]); err != nil {
		return nil, err
	}
	return &PublicKey{
		x25519: data[:constants.X25519PublicKeySize:constants.X25519PublicKeySize],
		mlkem:  data[constants.X25519PublicKeySize:],
	}, nil
}

// Bytes returns x25519_public (32 bytes) || mlkem_public (1568 bytes).
func (pk *PublicKey) Bytes() []byte {
	result := make([]byte, constants.CHKEMPublicKeySize)
	copy(result[:constants.X25519PublicKeySize], pk.x25519)
	copy(result[constants.X25519PublicKeySize:], pk.mlkem)
	return result
}

// X25519PublicKey returns the classical component.
func (pk *PublicKey) X25519PublicKey() []byte { return pk.x25519 }

// MLKEMPublicKey returns the post-quantum component.
func (pk *PublicKey) MLKEMPublicKey() []byte { return pk.mlkem }

// Ciphertext is a decoded CH-KEM encapsulation.
type Ciphertext struct {
	x25519Ephemeral []byte
	mlkemCiphertext []byte
}

// ParseCiphertext splits a 1600-byte encapsulation into its components.
func ParseCiphertext(data []byte) (*Ciphertext, error) {
	if len(data) != constants.CHKEMCiphertextSize {
		return nil, qerrors.NewCryptoError("CHKEM.ParseCiphertext", qerrors.ErrInvalidLength)
	}
	return &Ciphertext{
		x25519Ephemeral: data[:constants.X25519PublicKeySize:constants.X25519PublicKeySize],
		mlkemCiphertext: data[constants.X25519PublicKeySize:],
	}, nil
}

// Bytes returns x25519_ephemeral (32 bytes) || mlkem_ciphertext (1568 bytes).
func (ct *Ciphertext) Bytes() []byte {
	result := make([]byte, constants.CHKEMCiphertextSize)
	copy(result[:constants.X25519PublicKeySize], ct.x25519Ephemeral)
	copy(result[constants.X25519PublicKeySize:], ct.mlkemCiphertext)
	return result
}
