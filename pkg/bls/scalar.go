package bls

import (
	"bytes"
	"io"

	"github.com/cloudflare/circl/ecc/bls12381"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// order is r, the prime order of G1, G2 and GT, big-endian.
var order = [constants.ScalarSize]byte{
	0x73, 0xed, 0xa7, 0x53, 0x29, 0x9d, 0x7d, 0x48,
	0x33, 0x39, 0xd8, 0x08, 0x09, 0xa1, 0xd8, 0x05,
	0x53, 0xbd, 0xa4, 0x02, 0xff, 0xfe, 0x5b, 0xfe,
	0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x01,
}

// scalarPad is the number of leading zero bytes in a 48-byte scalar encoding.
const scalarPad = constants.FieldElementSize - constants.ScalarSize

// Scalar is an element of the scalar field Z_r. It is used for secret keys,
// share coordinates and Lagrange coefficients.
type Scalar struct {
	v bls12381.Scalar
}

// NewScalar returns v as a scalar.
func NewScalar(v uint64) *Scalar {
	s := new(Scalar)
	s.v.SetUint64(v)
	return s
}

// ParseScalar decodes a 48-byte big-endian scalar. The value must be
// canonical: the top 16 bytes zero and the rest below r.
func ParseScalar(b []byte) (*Scalar, error) {
	if err := crypto.RequireLen("bls.ParseScalar", b, constants.BLSSecretKeySize); err != nil {
		return nil, err
	}
	for _, c := range b[:scalarPad] {
		if c != 0 {
			return nil, qerrors.NewCryptoError("bls.ParseScalar", qerrors.ErrInvalidEncoding)
		}
	}
	if bytes.Compare(b[scalarPad:], order[:]) >= 0 {
		return nil, qerrors.NewCryptoError("bls.ParseScalar", qerrors.ErrInvalidEncoding)
	}

	s := new(Scalar)
	s.v.SetBytes(b[scalarPad:])
	return s, nil
}

// Bytes returns the 48-byte big-endian encoding.
func (s *Scalar) Bytes() []byte {
	raw, _ := s.v.MarshalBinary()
	out := make([]byte, constants.BLSSecretKeySize)
	copy(out[len(out)-len(raw):], raw)
	crypto.Zeroize(raw)
	return out
}

// Equal reports whether s and o are the same field element.
func (s *Scalar) Equal(o *Scalar) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.v.IsEqual(&o.v) == 1
}

// IsZero reports whether s is zero.
func (s *Scalar) IsZero() bool {
	return s.v.IsZero() == 1
}

// Zeroize sets s to zero.
func (s *Scalar) Zeroize() {
	s.v.SetUint64(0)
}

func (s *Scalar) clone() *Scalar {
	c := new(Scalar)
	c.v = s.v
	return c
}

// randomScalar draws a uniformly distributed non-zero scalar: 64 bytes of
// rng reduced mod r, redrawn on zero.
func randomScalar(rng io.Reader) (*Scalar, error) {
	if rng == nil {
		rng = crypto.Reader
	}
	buf := make([]byte, constants.BLSScalarSeedSize)
	defer crypto.Zeroize(buf)

	s := new(Scalar)
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, qerrors.NewCryptoError("bls.randomScalar", qerrors.ErrKeyGenerationFailed)
		}
		s.v.SetBytes(buf)
		if !s.IsZero() {
			return s, nil
		}
	}
}

// lagrangeAtZero returns the coefficients l_i with f(0) = sum l_i * f(x_i):
//
//	l_i = prod_{j != i} x_j / (x_j - x_i)
//
// The points must be non-zero and pairwise distinct.
func lagrangeAtZero(xs []*Scalar) ([]*Scalar, error) {
	for i, xi := range xs {
		if xi == nil || xi.IsZero() {
			return nil, qerrors.NewCryptoError("bls.lagrange", qerrors.ErrInvalidThreshold)
		}
		for _, xj := range xs[:i] {
			if xi.Equal(xj) {
				return nil, qerrors.NewCryptoError("bls.lagrange", qerrors.ErrInvalidThreshold)
			}
		}
	}

	coeffs := make([]*Scalar, len(xs))
	for i, xi := range xs {
		var num, den, tmp, diff bls12381.Scalar
		num.SetUint64(1)
		den.SetUint64(1)

		for j, xj := range xs {
			if i == j {
				continue
			}
			tmp.Mul(&num, &xj.v)
			num = tmp

			diff.Sub(&xj.v, &xi.v)
			tmp.Mul(&den, &diff)
			den = tmp
		}

		c := new(Scalar)
		tmp.Inv(&den)
		c.v.Mul(&num, &tmp)
		coeffs[i] = c
	}
	return coeffs, nil
}
