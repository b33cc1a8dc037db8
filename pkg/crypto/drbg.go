package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// Rand is a deterministic random generator seeded from a 48-byte seed.
//
// The output stream is SHAKE-256 over the length-prefixed domain separator
// and seed, so equal seeds always produce equal streams. A Rand is not safe
// for concurrent use; every key-generating call takes its own generator.
type Rand struct {
	xof sha3.ShakeHash
}

// NewRand returns a generator seeded with seed, which must be exactly
// constants.SeedSize bytes.
func NewRand(seed []byte) (*Rand, error) {
	if err := RequireLen("NewRand", seed, constants.SeedSize); err != nil {
		return nil, err
	}

	h := sha3.NewShake256()
	writeLengthPrefixed(h, []byte(constants.DomainSeparatorDRBG))
	writeLengthPrefixed(h, seed)

	return &Rand{xof: h}, nil
}

// MustNewRand is like NewRand but panics on a wrong-size seed.
func MustNewRand(seed []byte) *Rand {
	r, err := NewRand(seed)
	if err != nil {
		panic(err)
	}
	return r
}

// Read fills p with the next bytes of the stream. It never fails.
func (r *Rand) Read(p []byte) (int, error) {
	if r == nil || r.xof == nil {
		return 0, qerrors.NewCryptoError("Rand.Read", qerrors.ErrInvalidLength)
	}
	return r.xof.Read(p)
}

// Fork derives an independent generator from the next seed-sized block of
// this stream. The parent advances by constants.SeedSize bytes.
func (r *Rand) Fork() (*Rand, error) {
	seed := make([]byte, constants.SeedSize)
	defer Zeroize(seed)
	if _, err := r.Read(seed); err != nil {
		return nil, err
	}
	return NewRand(seed)
}
