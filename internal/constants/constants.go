// Package constants defines the fixed sizes, suite identifiers and domain
// separators shared by the envelope and threshold-signature packages.
//
// Every buffer crossing a public API boundary has a length fixed by one of
// the constants below (or by the selected KEM). Callers are expected to
// validate against these values rather than trust a declared length.
package constants

// Library identification
const (
	// FormatVersion is the version byte written in front of encoded sealed messages
	FormatVersion uint8 = 0x01

	// LibraryName is used for domain separation in key derivation
	LibraryName = "QE-v1"
)

// Deterministic generator parameters
const (
	// SeedSize is the size of the CSPRNG seed in bytes
	SeedSize = 48
)

// Symmetric encryption parameters (AES-256)
const (
	// AESKeySize is the size of AES-256 keys in bytes
	AESKeySize = 32

	// AESBlockSize is the AES block size in bytes
	AESBlockSize = 16

	// AESIVSize is the size of the CBC initialization vector in bytes
	AESIVSize = AESBlockSize

	// AESNonceSize is the size of AES-GCM nonce in bytes (96 bits)
	AESNonceSize = 12

	// AESTagSize is the size of AES-GCM authentication tag in bytes
	AESTagSize = 16

	// ChaCha20KeySize is the size of ChaCha20-Poly1305 keys in bytes
	ChaCha20KeySize = 32

	// ChaCha20NonceSize is the size of ChaCha20-Poly1305 nonce in bytes
	ChaCha20NonceSize = 12
)

// BLS12-381 parameters.
//
// Scalars travel as 48-byte big-endian field-element-sized buffers so that
// secret keys and share coordinates have the same width as a base field
// element. The top 16 bytes of a valid scalar encoding are always zero.
const (
	// FieldElementSize is the size of a BLS12-381 base field element in bytes
	FieldElementSize = 48

	// ScalarSize is the size of a canonical scalar (mod r) in bytes
	ScalarSize = 32

	// BLSSecretKeySize is the encoded size of a secret key or share coordinate
	BLSSecretKeySize = FieldElementSize

	// BLSPublicKeySize is the encoded size of a G2 public key (4 field elements)
	BLSPublicKeySize = 4 * FieldElementSize

	// BLSSignatureSize is the encoded size of a G1 signature (selector + x)
	BLSSignatureSize = FieldElementSize + 1

	// BLSScalarSeedSize is the number of random bytes reduced mod r per scalar
	BLSScalarSeedSize = 64

	// MaxShares bounds n in a (k, n) sharing
	MaxShares = 255
)

// Signature point selector bytes
const (
	// SignatureTagIdentity marks the point at infinity
	SignatureTagIdentity byte = 0x00

	// SignatureTagYSmall marks a finite point whose y is the lexicographically smaller root
	SignatureTagYSmall byte = 0x02

	// SignatureTagYLarge marks a finite point whose y is the lexicographically larger root
	SignatureTagYLarge byte = 0x03
)

// BLSDomainSeparationTag is the hash-to-G1 DST (RFC 9380 ciphersuite id)
const BLSDomainSeparationTag = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"

// Key Derivation Parameters (SHAKE-256)
const (
	// KDFOutputSize is the default output size for key derivation in bytes
	KDFOutputSize = 32

	// TranscriptHashSize is the size of the sealed-message transcript hash in bytes
	TranscriptHashSize = 32

	// DomainSeparatorCHKEM is used in CH-KEM key derivation
	DomainSeparatorCHKEM = "CH-KEM-v1-SharedSecret"

	// DomainSeparatorEnvelope derives the symmetric key from a KEM shared secret
	DomainSeparatorEnvelope = "QE-Envelope-v1-Key"

	// DomainSeparatorDRBG seeds the deterministic generator
	DomainSeparatorDRBG = "QE-DRBG-v1"

	// DomainSeparatorIdentityKEM derives the KEM sub-seed of an identity
	DomainSeparatorIdentityKEM = "QE-Identity-v1-KEM"

	// DomainSeparatorIdentityBLS derives the BLS sub-seed of an identity
	DomainSeparatorIdentityBLS = "QE-Identity-v1-BLS"

	// DomainSeparatorTranscript prefixes the sealed-message transcript
	DomainSeparatorTranscript = "QE-Sealed-v1-Transcript"
)

// X25519 Parameters (RFC 7748)
const (
	// X25519PublicKeySize is the size of X25519 public key in bytes
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of X25519 private key in bytes
	X25519PrivateKeySize = 32

	// X25519SharedSecretSize is the size of the X25519 shared secret in bytes
	X25519SharedSecretSize = 32
)

// ML-KEM-1024 Parameters (NIST FIPS 203), used by CH-KEM
const (
	// MLKEMPublicKeySize is the size of ML-KEM-1024 encapsulation key in bytes
	MLKEMPublicKeySize = 1568

	// MLKEMPrivateKeySize is the size of ML-KEM-1024 decapsulation key in bytes
	MLKEMPrivateKeySize = 3168

	// MLKEMCiphertextSize is the size of ML-KEM-1024 ciphertext in bytes
	MLKEMCiphertextSize = 1568

	// MLKEMSharedSecretSize is the size of the shared secret from ML-KEM in bytes
	MLKEMSharedSecretSize = 32

	// MLKEMSeedSize is the size of the ML-KEM key generation seed (d || z)
	MLKEMSeedSize = 64

	// MLKEMEncapsulationSeedSize is the size of the ML-KEM encapsulation seed
	MLKEMEncapsulationSeedSize = 32
)

// CH-KEM sizes (X25519 + ML-KEM-1024)
const (
	// CHKEMPublicKeySize is the combined size of X25519 + ML-KEM-1024 public keys
	CHKEMPublicKeySize = X25519PublicKeySize + MLKEMPublicKeySize

	// CHKEMPrivateKeySize is the combined size of X25519 + ML-KEM-1024 private keys
	CHKEMPrivateKeySize = X25519PrivateKeySize + MLKEMPrivateKeySize

	// CHKEMCiphertextSize is the combined size of X25519 public + ML-KEM ciphertext
	CHKEMCiphertextSize = X25519PublicKeySize + MLKEMCiphertextSize

	// CHKEMSharedSecretSize is the size of the final derived shared secret
	CHKEMSharedSecretSize = 32
)

// KEM suite names accepted by crypto.KEMByName
const (
	KEMMLKEM768       = "ML-KEM-768"
	KEMMLKEM1024      = "ML-KEM-1024"
	KEMKyber768X25519 = "Kyber768-X25519"
	KEMCHKEM          = "CH-KEM"

	// DefaultKEM is used when no suite is configured
	DefaultKEM = KEMMLKEM1024
)

// Encoded message limits
const (
	// MaxMessageSize bounds a decoded sealed message
	MaxMessageSize = 1 << 24
)

// CipherSuite identifiers
type CipherSuite uint16

const (
	// CipherSuiteAES256CBC uses unauthenticated AES-256-CBC (the classic envelope)
	CipherSuiteAES256CBC CipherSuite = 0x0000

	// CipherSuiteAES256GCM uses AES-256-GCM for symmetric encryption
	CipherSuiteAES256GCM CipherSuite = 0x0001

	// CipherSuiteChaCha20Poly1305 uses ChaCha20-Poly1305 for symmetric encryption
	CipherSuiteChaCha20Poly1305 CipherSuite = 0x0002
)

// String returns a human-readable name for the cipher suite
func (cs CipherSuite) String() string {
	switch cs {
	case CipherSuiteAES256CBC:
		return "AES-256-CBC"
	case CipherSuiteAES256GCM:
		return "AES-256-GCM"
	case CipherSuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsSupported returns true if the cipher suite is supported
func (cs CipherSuite) IsSupported() bool {
	return cs == CipherSuiteAES256CBC || cs.IsAEAD()
}

// IsAEAD reports whether the suite authenticates its ciphertext.
func (cs CipherSuite) IsAEAD() bool {
	return cs == CipherSuiteAES256GCM || cs == CipherSuiteChaCha20Poly1305
}

// IsFIPSApproved returns true if the cipher suite is FIPS 140-3 approved.
// ChaCha20-Poly1305 is not.
func (cs CipherSuite) IsFIPSApproved() bool {
	return cs == CipherSuiteAES256CBC || cs == CipherSuiteAES256GCM
}
