// x25519.go implements X25519 Diffie-Hellman (RFC 7748) for the classical
// half of CH-KEM.
//
// X25519 is NOT quantum-resistant. It is kept alongside ML-KEM so that the
// combined secret survives a break of either component.
package crypto

import (
	"crypto/ecdh"
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// X25519KeyPair represents an X25519 key pair for classical ECDH.
type X25519KeyPair struct {
	PublicKey  *ecdh.PublicKey
	PrivateKey *ecdh.PrivateKey
}

// GenerateX25519KeyPair derives an X25519 key pair from 32 bytes of rng
// (OS CSPRNG if nil). Clamping is applied by the curve implementation.
func GenerateX25519KeyPair(rng io.Reader) (*X25519KeyPair, error) {
	scalar := make([]byte, constants.X25519PrivateKeySize)
	defer Zeroize(scalar)
	if err := readFull(rng, scalar); err != nil {
		return nil, qerrors.NewCryptoError("X25519KeyPair.Generate", err)
	}
	return NewX25519KeyPairFromBytes(scalar)
}

// NewX25519KeyPairFromBytes creates an X25519 key pair from a 32-byte private key.
func NewX25519KeyPairFromBytes(privateKeyBytes []byte) (*X25519KeyPair, error) {
	if len(privateKeyBytes) != constants.X25519PrivateKeySize {
		return nil, qerrors.NewCryptoError("X25519KeyPair.FromBytes", qerrors.ErrInvalidKeySize)
	}

	privateKey, err := ecdh.X25519().NewPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, qerrors.NewCryptoError("X25519KeyPair.FromBytes", err)
	}

	return &X25519KeyPair{
		PublicKey:  privateKey.PublicKey(),
		PrivateKey: privateKey,
	}, nil
}

// X25519 computes the shared secret between privateKey and peerPublic.
// The result must go through a KDF before use as a key.
func X25519(privateKey *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}
	if peerPublic == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}

	sharedSecret, err := privateKey.ECDH(peerPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("X25519", err)
	}

	return sharedSecret, nil
}

// PublicKeyBytes returns the encoded bytes of the public key.
func (kp *X25519KeyPair) PublicKeyBytes() []byte {
	return kp.PublicKey.Bytes()
}

// PrivateKeyBytes returns the encoded bytes of the private key.
func (kp *X25519KeyPair) PrivateKeyBytes() []byte {
	return kp.PrivateKey.Bytes()
}

// ParseX25519PublicKey parses an X25519 public key from its encoded form.
func ParseX25519PublicKey(data []byte) (*ecdh.PublicKey, error) {
	if len(data) != constants.X25519PublicKeySize {
		return nil, qerrors.NewCryptoError("ParseX25519PublicKey", qerrors.ErrInvalidLength)
	}

	publicKey, err := ecdh.X25519().NewPublicKey(data)
	if err != nil {
		return nil, qerrors.NewCryptoError("ParseX25519PublicKey", qerrors.ErrInvalidPublicKey)
	}

	return publicKey, nil
}

// Zeroize drops the key references. ecdh.PrivateKey does not expose its
// backing array.
func (kp *X25519KeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
