// Package bls implements BLS signatures over BLS12-381 with threshold
// support.
//
// Signatures live in G1 and public keys in G2 (the "minimal signature
// size" variant). Messages are hashed to G1 with the RFC 9380 SSWU map.
//
//	KeyGen:  sk <- Z_r \ {0},  pk = sk * G2
//	Sign:    sig = sk * H(m)
//	Verify:  e(sig, G2) == e(H(m), pk)
//
// Signatures and public keys are additively homomorphic: the sum of two
// signatures on the same message verifies under the sum of the public keys.
// A secret can be split with Shamir's scheme (MakeShares) and both the
// secret and a signature can be rebuilt from any k shares by Lagrange
// interpolation at zero (RecoverSecret, RecoverSignature).
//
// Encodings:
//
//	secret key / share x / share y: 48 bytes, big-endian, top 16 bytes zero
//	public key: 192 bytes, uncompressed G2
//	signature:  49 bytes, selector (0x00 identity, 0x02/0x03 y parity) || x
//
// All functions are safe for concurrent use on distinct values. Key
// generation takes an io.Reader so a seeded crypto.Rand reproduces keys.
package bls

import (
	"io"

	"github.com/cloudflare/circl/ecc/bls12381"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// SecretKey is a non-zero scalar.
type SecretKey struct {
	s Scalar
}

// PublicKey is sk * G2.
type PublicKey struct {
	p bls12381.G2
}

// GenerateKeyPair draws a secret key from rng (OS CSPRNG if nil) and
// derives its public key.
func GenerateKeyPair(rng io.Reader) (*SecretKey, *PublicKey, error) {
	s, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	sk := &SecretKey{s: *s}
	s.Zeroize()
	return sk, sk.PublicKey(), nil
}

// KeyPairFromSeed deterministically derives a key pair from a 48-byte seed.
func KeyPairFromSeed(seed []byte) (*SecretKey, *PublicKey, error) {
	rng, err := crypto.NewRand(seed)
	if err != nil {
		return nil, nil, err
	}
	return GenerateKeyPair(rng)
}

// DerivePublicKey recomputes the public key of sk. It is deterministic and
// idempotent: the result always equals the key returned at generation.
func DerivePublicKey(sk *SecretKey) (*PublicKey, error) {
	if sk == nil || sk.s.IsZero() {
		return nil, qerrors.NewCryptoError("bls.DerivePublicKey", qerrors.ErrInvalidPrivateKey)
	}
	return sk.PublicKey(), nil
}

// ParseSecretKey decodes a 48-byte secret key. Zero is rejected.
func ParseSecretKey(b []byte) (*SecretKey, error) {
	s, err := ParseScalar(b)
	if err != nil {
		return nil, err
	}
	if s.IsZero() {
		return nil, qerrors.NewCryptoError("bls.ParseSecretKey", qerrors.ErrInvalidEncoding)
	}
	return &SecretKey{s: *s}, nil
}

// PublicKey returns sk * G2.
func (sk *SecretKey) PublicKey() *PublicKey {
	pk := new(PublicKey)
	pk.p.ScalarMult(&sk.s.v, bls12381.G2Generator())
	return pk
}

// Bytes returns the 48-byte encoding.
func (sk *SecretKey) Bytes() []byte {
	return sk.s.Bytes()
}

// Scalar returns a copy of the underlying scalar.
func (sk *SecretKey) Scalar() *Scalar {
	return sk.s.clone()
}

// Equal reports whether both keys hold the same scalar.
func (sk *SecretKey) Equal(o *SecretKey) bool {
	if sk == nil || o == nil {
		return sk == o
	}
	return sk.s.Equal(&o.s)
}

// Zeroize erases the key.
func (sk *SecretKey) Zeroize() {
	if sk != nil {
		sk.s.Zeroize()
	}
}

// ParsePublicKey decodes a 192-byte G2 public key. Points off the curve,
// outside the prime-order subgroup, or at infinity are rejected.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if err := crypto.RequireLen("bls.ParsePublicKey", b, constants.BLSPublicKeySize); err != nil {
		return nil, err
	}

	pk := new(PublicKey)
	if err := pk.p.SetBytes(b); err != nil {
		return nil, qerrors.NewCryptoError("bls.ParsePublicKey", qerrors.ErrInvalidEncoding)
	}
	if pk.p.IsIdentity() || !pk.p.IsOnG2() {
		return nil, qerrors.NewCryptoError("bls.ParsePublicKey", qerrors.ErrInvalidEncoding)
	}
	return pk, nil
}

// Bytes returns the 192-byte uncompressed encoding.
func (pk *PublicKey) Bytes() []byte {
	return pk.p.Bytes()
}

// Equal reports whether both keys are the same point.
func (pk *PublicKey) Equal(o *PublicKey) bool {
	if pk == nil || o == nil {
		return pk == o
	}
	return pk.p.IsEqual(&o.p)
}

// AddPublicKeys returns a + b.
func AddPublicKeys(a, b *PublicKey) *PublicKey {
	out := new(PublicKey)
	out.p.Add(&a.p, &b.p)
	return out
}

// AggregatePublicKeys returns the sum of pks; the identity for none.
func AggregatePublicKeys(pks ...*PublicKey) *PublicKey {
	acc := new(PublicKey)
	acc.p.SetIdentity()
	for _, pk := range pks {
		acc = AddPublicKeys(acc, pk)
	}
	return acc
}

// pctMessage is signed by PairwiseConsistencyTest.
var pctMessage = []byte("bls pairwise consistency test")

// PairwiseConsistencyTest checks that pk belongs to sk by comparing the
// derived key and by a sign/verify round trip.
func PairwiseConsistencyTest(sk *SecretKey, pk *PublicKey) error {
	derived, err := DerivePublicKey(sk)
	if err != nil {
		return err
	}
	if !derived.Equal(pk) {
		return qerrors.NewCryptoError("bls.PairwiseConsistencyTest", qerrors.ErrVerifyFailed)
	}
	return Verify(pctMessage, pk, Sign(pctMessage, sk))
}
