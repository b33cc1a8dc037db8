package sealed

import (
	"fmt"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/bls"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/envelope"
)

// Identity is a party's long-term keys: a KEM key pair to receive envelopes
// and a BLS key pair to sign them.
type Identity struct {
	KEM        string
	KEMKeys    *crypto.KEMKeyPair
	SigningKey *bls.SecretKey
	VerifyKey  *bls.PublicKey
}

// GenerateIdentity derives both key pairs from one 48-byte seed. Each key
// pair gets its own sub-seed, so the same seed always yields the same
// identity and neither key pair reveals the other. A nil seed draws a fresh
// one from the OS CSPRNG.
func GenerateIdentity(seed []byte, kemName string) (*Identity, error) {
	const op = "sealed.GenerateIdentity"

	if seed == nil {
		fresh, err := crypto.NewSeed()
		if err != nil {
			return nil, err
		}
		defer crypto.Zeroize(fresh)
		seed = fresh
	}
	if err := crypto.RequireLen(op, seed, constants.SeedSize); err != nil {
		return nil, err
	}
	if kemName == "" {
		kemName = constants.DefaultKEM
	}
	k, err := envelope.KEMByName(kemName)
	if err != nil {
		return nil, err
	}

	kemSeed, err := crypto.DeriveSeed(constants.DomainSeparatorIdentityKEM, seed)
	if err != nil {
		return nil, err
	}
	blsSeed, err := crypto.DeriveSeed(constants.DomainSeparatorIdentityBLS, seed)
	if err != nil {
		crypto.Zeroize(kemSeed)
		return nil, err
	}
	defer crypto.ZeroizeMultiple(kemSeed, blsSeed)

	rng, err := crypto.NewRand(kemSeed)
	if err != nil {
		return nil, err
	}
	kp, err := k.Keypair(rng)
	if err != nil {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrKeyGenerationFailed)
	}
	if res := crypto.PairwiseConsistencyTestKEM(k, kp); !res.Passed {
		kp.Zeroize()
		return nil, qerrors.NewCryptoError(op, fmt.Errorf("%w: %v", qerrors.ErrKeyGenerationFailed, res.Error))
	}

	sk, pk, err := bls.KeyPairFromSeed(blsSeed)
	if err != nil {
		kp.Zeroize()
		return nil, err
	}
	if err := bls.PairwiseConsistencyTest(sk, pk); err != nil {
		kp.Zeroize()
		sk.Zeroize()
		return nil, err
	}

	return &Identity{
		KEM:        k.Name(),
		KEMKeys:    kp,
		SigningKey: sk,
		VerifyKey:  pk,
	}, nil
}

// PublicKey returns the KEM public key senders encrypt to.
func (id *Identity) PublicKey() []byte {
	return id.KEMKeys.PublicKey
}

// Zeroize erases both secret keys.
func (id *Identity) Zeroize() {
	if id.KEMKeys != nil {
		id.KEMKeys.Zeroize()
	}
	if id.SigningKey != nil {
		id.SigningKey.Zeroize()
	}
}
