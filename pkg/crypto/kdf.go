// kdf.go implements key derivation with SHAKE-256 (FIPS 202).
//
// Every input is written with a 4-byte big-endian length prefix so that the
// concatenation is unambiguous:
//
//	output = SHAKE-256(
//	    len(domain) || domain ||
//	    count || len(input_1) || input_1 || ... ,
//	    output_length
//	)
//
// The envelope key is derived this way from the KEM shared secret and the
// encapsulated key, which makes the symmetric key length independent of the
// KEM's shared-secret length.
package crypto

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

const maxKDFOutput = 1 << 20

func writeLengthPrefixed(h hash.Hash, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
}

// DeriveKey derives outputLen bytes from input under a domain separator.
//
// Parameters:
//   - domain: Domain separation string (prevents cross-protocol attacks)
//   - input: Secret input material to derive from
//   - outputLen: Desired output length in bytes
func DeriveKey(domain string, input []byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > maxKDFOutput {
		return nil, qerrors.NewCryptoError("DeriveKey", qerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	writeLengthPrefixed(h, []byte(domain))
	writeLengthPrefixed(h, input)

	output := make([]byte, outputLen)
	_, _ = h.Read(output) // SHAKE256.Read never fails

	return output, nil
}

// DeriveKeyMultiple derives a key from multiple inputs with domain separation.
// The number of inputs is absorbed before the inputs themselves.
func DeriveKeyMultiple(domain string, inputs [][]byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > maxKDFOutput {
		return nil, qerrors.NewCryptoError("DeriveKeyMultiple", qerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	writeLengthPrefixed(h, []byte(domain))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(inputs)))
	h.Write(lenBuf[:])

	for _, input := range inputs {
		writeLengthPrefixed(h, input)
	}

	output := make([]byte, outputLen)
	_, _ = h.Read(output)

	return output, nil
}

// TranscriptHash computes SHA3-256 over the length-prefixed components.
func TranscriptHash(components ...[]byte) []byte {
	h := sha3.New256()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(components)))
	h.Write(lenBuf[:])

	for _, component := range components {
		writeLengthPrefixed(h, component)
	}

	return h.Sum(nil)
}

// DeriveEnvelopeKey turns a KEM shared secret of any length into a 32-byte
// AES-256 key bound to the KEM name and the encapsulated key:
//
//	K = SHAKE-256("QE-Envelope-v1-Key", [kemName, sharedSecret, encapsulatedKey], 256)
func DeriveEnvelopeKey(kemName string, sharedSecret, encapsulatedKey []byte) ([]byte, error) {
	if len(sharedSecret) == 0 {
		return nil, qerrors.NewCryptoError("DeriveEnvelopeKey", qerrors.ErrInvalidKeySize)
	}

	return DeriveKeyMultiple(
		constants.DomainSeparatorEnvelope,
		[][]byte{[]byte(kemName), sharedSecret, encapsulatedKey},
		constants.AESKeySize,
	)
}

// DeriveSeed derives a fresh generator seed from a parent seed.
func DeriveSeed(domain string, parent []byte) ([]byte, error) {
	if err := RequireLen("DeriveSeed", parent, constants.SeedSize); err != nil {
		return nil, err
	}
	return DeriveKey(domain, parent, constants.SeedSize)
}

// DeriveCHKEMSecret combines the X25519 and ML-KEM secrets of CH-KEM:
//
//	K_final = SHAKE-256(K_classical || K_pq || transcript_hash, 256)
//
// The output is indistinguishable from random if either component is secure.
func DeriveCHKEMSecret(x25519Secret, mlkemSecret, transcriptHash []byte) ([]byte, error) {
	if len(x25519Secret) != constants.X25519SharedSecretSize {
		return nil, qerrors.NewCryptoError("DeriveCHKEMSecret", qerrors.ErrInvalidKeySize)
	}
	if len(mlkemSecret) != constants.MLKEMSharedSecretSize {
		return nil, qerrors.NewCryptoError("DeriveCHKEMSecret", qerrors.ErrInvalidKeySize)
	}
	if len(transcriptHash) != constants.TranscriptHashSize {
		return nil, qerrors.NewCryptoError("DeriveCHKEMSecret", qerrors.ErrInvalidKeySize)
	}

	return DeriveKeyMultiple(
		constants.DomainSeparatorCHKEM,
		[][]byte{x25519Secret, mlkemSecret, transcriptHash},
		constants.CHKEMSharedSecretSize,
	)
}
