package bls

import (
	"github.com/cloudflare/circl/ecc/bls12381"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

// Flag bits of the compressed G1 encoding (ZCash serialization).
const (
	flagCompressed = 0x80
	flagInfinity   = 0x40
	flagSign       = 0x20
	flagMask       = flagCompressed | flagInfinity | flagSign
)

var dst = []byte(constants.BLSDomainSeparationTag)

// Signature is a point of G1.
type Signature struct {
	p bls12381.G1
}

// hashToG1 maps message onto G1.
func hashToG1(message []byte) *bls12381.G1 {
	h := new(bls12381.G1)
	h.Hash(message, dst)
	return h
}

// Sign returns sk * H(message).
func Sign(message []byte, sk *SecretKey) *Signature {
	sig := new(Signature)
	sig.p.ScalarMult(&sk.s.v, hashToG1(message))
	return sig
}

// Verify checks e(sig, G2) == e(H(message), pk). It returns nil on success
// and ErrVerifyFailed otherwise; an identity public key is rejected as
// ErrInvalidEncoding.
func Verify(message []byte, pk *PublicKey, sig *Signature) error {
	if pk == nil || sig == nil {
		return qerrors.NewCryptoError("bls.Verify", qerrors.ErrInvalidEncoding)
	}
	if pk.p.IsIdentity() {
		return qerrors.NewCryptoError("bls.Verify", qerrors.ErrInvalidEncoding)
	}

	res := bls12381.ProdPairFrac(
		[]*bls12381.G1{&sig.p, hashToG1(message)},
		[]*bls12381.G2{bls12381.G2Generator(), &pk.p},
		[]int{1, -1},
	)
	if !res.IsIdentity() {
		return qerrors.NewCryptoError("bls.Verify", qerrors.ErrVerifyFailed)
	}
	return nil
}

// VerifyBytes decodes pk and sig and verifies them against message.
func VerifyBytes(message, publicKey, signature []byte) error {
	pk, err := ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	sig, err := ParseSignature(signature)
	if err != nil {
		return err
	}
	return Verify(message, pk, sig)
}

// ParseSignature decodes a 49-byte signature.
func ParseSignature(b []byte) (*Signature, error) {
	if err := crypto.RequireLen("bls.ParseSignature", b, constants.BLSSignatureSize); err != nil {
		return nil, err
	}

	x := b[1:]
	sig := new(Signature)

	switch b[0] {
	case constants.SignatureTagIdentity:
		for _, c := range x {
			if c != 0 {
				return nil, qerrors.NewCryptoError("bls.ParseSignature", qerrors.ErrInvalidEncoding)
			}
		}
		sig.p.SetIdentity()
		return sig, nil

	case constants.SignatureTagYSmall, constants.SignatureTagYLarge:
		if x[0]&flagMask != 0 {
			return nil, qerrors.NewCryptoError("bls.ParseSignature", qerrors.ErrInvalidEncoding)
		}
		compressed := make([]byte, constants.FieldElementSize)
		copy(compressed, x)
		compressed[0] |= flagCompressed
		if b[0] == constants.SignatureTagYLarge {
			compressed[0] |= flagSign
		}
		if err := sig.p.SetBytes(compressed); err != nil {
			return nil, qerrors.NewCryptoError("bls.ParseSignature", qerrors.ErrInvalidEncoding)
		}
		if !sig.p.IsOnG1() {
			return nil, qerrors.NewCryptoError("bls.ParseSignature", qerrors.ErrInvalidEncoding)
		}
		return sig, nil

	default:
		return nil, qerrors.NewCryptoError("bls.ParseSignature", qerrors.ErrInvalidEncoding)
	}
}

// Bytes returns the 49-byte encoding.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, constants.BLSSignatureSize)
	if sig.p.IsIdentity() {
		out[0] = constants.SignatureTagIdentity
		return out
	}

	compressed := sig.p.BytesCompressed()
	out[0] = constants.SignatureTagYSmall
	if compressed[0]&flagSign != 0 {
		out[0] = constants.SignatureTagYLarge
	}
	copy(out[1:], compressed)
	out[1] &^= flagMask
	return out
}

// IsIdentity reports whether sig is the point at infinity.
func (sig *Signature) IsIdentity() bool {
	return sig.p.IsIdentity()
}

// Equal reports whether both signatures are the same point.
func (sig *Signature) Equal(o *Signature) bool {
	if sig == nil || o == nil {
		return sig == o
	}
	return sig.p.IsEqual(&o.p)
}

// AddSignatures returns a + b.
func AddSignatures(a, b *Signature) *Signature {
	out := new(Signature)
	out.p.Add(&a.p, &b.p)
	return out
}

// AggregateSignatures returns the sum of sigs; the identity for none.
func AggregateSignatures(sigs ...*Signature) *Signature {
	acc := new(Signature)
	acc.p.SetIdentity()
	for _, s := range sigs {
		acc = AddSignatures(acc, s)
	}
	return acc
}

func (sig *Signature) scaled(k *Scalar) *Signature {
	out := new(Signature)
	out.p.ScalarMult(&k.v, &sig.p)
	return out
}
