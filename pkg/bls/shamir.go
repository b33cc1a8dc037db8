package bls

import (
	"github.com/cloudflare/circl/ecc/bls12381"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// ShareSize is the encoded size of a Share: x || y.
const ShareSize = 2 * constants.BLSSecretKeySize

// Share is one evaluation (x, P(x)) of a secret-sharing polynomial. Y is a
// valid BLS secret key whose public key is Y.PublicKey().
type Share struct {
	X *Scalar
	Y *SecretKey
}

// MarshalBinary encodes the share as x || y.
func (s Share) MarshalBinary() ([]byte, error) {
	if s.X == nil || s.Y == nil {
		return nil, qerrors.NewCryptoError("bls.Share.MarshalBinary", qerrors.ErrInvalidEncoding)
	}
	out := make([]byte, 0, ShareSize)
	out = append(out, s.X.Bytes()...)
	out = append(out, s.Y.Bytes()...)
	return out, nil
}

// ParseShare decodes a share produced by MarshalBinary.
func ParseShare(b []byte) (Share, error) {
	if err := crypto.RequireLen("bls.ParseShare", b, ShareSize); err != nil {
		return Share{}, err
	}
	x, err := ParseScalar(b[:constants.BLSSecretKeySize])
	if err != nil {
		return Share{}, err
	}
	if x.IsZero() {
		return Share{}, qerrors.NewCryptoError("bls.ParseShare", qerrors.ErrInvalidEncoding)
	}
	y, err := ParseScalar(b[constants.BLSSecretKeySize:])
	if err != nil {
		return Share{}, err
	}
	if y.IsZero() {
		return Share{}, qerrors.NewCryptoError("bls.ParseShare", qerrors.ErrInvalidEncoding)
	}
	return Share{X: x, Y: &SecretKey{s: *y}}, nil
}

// ShareSet is the output of MakeShares.
type ShareSet struct {
	Threshold int
	Shares    []Share
}

// Xs returns the evaluation points of the set.
func (ss *ShareSet) Xs() []*Scalar {
	xs := make([]*Scalar, len(ss.Shares))
	for i, s := range ss.Shares {
		xs[i] = s.X
	}
	return xs
}

// Subset returns the shares at the given positions, in order. It panics on
// an out-of-range index, like a slice expression.
func (ss *ShareSet) Subset(indices ...int) []Share {
	out := make([]Share, len(indices))
	for i, idx := range indices {
		out[i] = ss.Shares[idx]
	}
	return out
}

// Zeroize erases every share value.
func (ss *ShareSet) Zeroize() {
	if ss == nil {
		return
	}
	for _, s := range ss.Shares {
		s.Y.Zeroize()
	}
}

// MakeShares splits a secret into n shares, any k of which recover it.
//
// The polynomial P has degree k-1; its constant term is secret, or a fresh
// scalar drawn from the seeded generator when secret is nil. The remaining
// coefficients are drawn from the same generator, so (k, n, seed, secret)
// always yields the same shares. Shares are evaluated at x = 1..n.
//
// The returned SecretKey is P(0), a copy the caller owns.
func MakeShares(k, n int, seed []byte, secret *SecretKey) (*ShareSet, *SecretKey, error) {
	if k < 1 || n < k || n > constants.MaxShares {
		return nil, nil, qerrors.NewCryptoError("bls.MakeShares", qerrors.ErrInvalidThreshold)
	}
	rng, err := crypto.NewRand(seed)
	if err != nil {
		return nil, nil, err
	}

	coeffs := make([]*Scalar, k)
	defer func() {
		for _, c := range coeffs {
			if c != nil {
				c.Zeroize()
			}
		}
	}()

	if secret != nil {
		if secret.s.IsZero() {
			return nil, nil, qerrors.NewCryptoError("bls.MakeShares", qerrors.ErrInvalidPrivateKey)
		}
		coeffs[0] = secret.s.clone()
	} else {
		if coeffs[0], err = randomScalar(rng); err != nil {
			return nil, nil, err
		}
	}
	for i := 1; i < k; i++ {
		if coeffs[i], err = randomScalar(rng); err != nil {
			return nil, nil, err
		}
	}

	ss := &ShareSet{Threshold: k, Shares: make([]Share, n)}
	for i := range n {
		x := NewScalar(uint64(i + 1))
		ss.Shares[i] = Share{X: x, Y: &SecretKey{s: *evaluate(coeffs, x)}}
	}
	return ss, &SecretKey{s: *coeffs[0].clone()}, nil
}

// evaluate computes P(x) by Horner's rule.
func evaluate(coeffs []*Scalar, x *Scalar) *Scalar {
	var acc, tmp bls12381.Scalar
	acc = coeffs[len(coeffs)-1].v
	for i := len(coeffs) - 2; i >= 0; i-- {
		tmp.Mul(&acc, &x.v)
		acc.Add(&tmp, &coeffs[i].v)
	}
	out := &Scalar{v: acc}
	acc.SetUint64(0)
	tmp.SetUint64(0)
	return out
}

// RecoverSecret interpolates P(0) from exactly k shares. Shares that
// interpolate to zero give ErrInvalidPrivateKey.
func RecoverSecret(k int, shares []Share) (*SecretKey, error) {
	if k < 1 || len(shares) != k {
		return nil, qerrors.NewCryptoError("bls.RecoverSecret", qerrors.ErrInvalidThreshold)
	}

	xs := make([]*Scalar, k)
	for i, s := range shares {
		if s.Y == nil {
			return nil, qerrors.NewCryptoError("bls.RecoverSecret", qerrors.ErrInvalidThreshold)
		}
		xs[i] = s.X
	}
	lambdas, err := lagrangeAtZero(xs)
	if err != nil {
		return nil, err
	}

	var acc, term bls12381.Scalar
	acc.SetUint64(0)
	for i, s := range shares {
		term.Mul(&lambdas[i].v, &s.Y.s.v)
		var sum bls12381.Scalar
		sum.Add(&acc, &term)
		acc = sum
	}
	term.SetUint64(0)

	sk := &SecretKey{s: Scalar{v: acc}}
	acc.SetUint64(0)
	if sk.s.IsZero() {
		return nil, qerrors.NewCryptoError("bls.RecoverSecret", qerrors.ErrInvalidPrivateKey)
	}
	return sk, nil
}

// RecoverSignature combines k partial signatures, sigs[i] made with the
// share at xs[i], into the signature of the shared secret. The secret itself
// is never reconstructed.
func RecoverSignature(k int, xs []*Scalar, sigs []*Signature) (*Signature, error) {
	if k < 1 || len(xs) != k || len(sigs) != k {
		return nil, qerrors.NewCryptoError("bls.RecoverSignature", qerrors.ErrInvalidThreshold)
	}
	for _, s := range sigs {
		if s == nil {
			return nil, qerrors.NewCryptoError("bls.RecoverSignature", qerrors.ErrInvalidEncoding)
		}
	}

	lambdas, err := lagrangeAtZero(xs)
	if err != nil {
		return nil, err
	}

	acc := new(Signature)
	acc.p.SetIdentity()
	for i, s := range sigs {
		acc = AddSignatures(acc, s.scaled(lambdas[i]))
	}
	return acc, nil
}
