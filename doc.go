// Package quantumenvelope provides post-quantum envelope encryption with
// BLS12-381 threshold signatures.
//
// A sealed message encapsulates a fresh key to the recipient's KEM public
// key, encrypts the payload under AES-256-CBC, AES-256-GCM or
// ChaCha20-Poly1305, and is signed by the sender with a BLS key. Signing
// keys can be split into k-of-n Shamir shares whose partial signatures
// combine into a signature under the group public key.
//
// # Quick Start
//
// Sealing a message between two identities:
//
//	import "github.com/pzverkov/quantum-envelope/pkg/sealed"
//
//	alice, _ := sealed.GenerateIdentity(nil, "ML-KEM-1024")
//	bob, _ := sealed.GenerateIdentity(nil, "ML-KEM-1024")
//
//	s, _ := sealed.NewSealer(sealed.DefaultConfig())
//	data, _ := s.SealBytes(ctx, []byte("Hello!"), bob.PublicKey(), alice.SigningKey)
//	pt, _ := s.OpenBytes(ctx, data, bob.KEMKeys.SecretKey, alice.VerifyKey)
//
// Threshold signing:
//
//	import "github.com/pzverkov/quantum-envelope/pkg/bls"
//
//	set, group, _ := bls.MakeShares(3, 5, seed, nil)
//	shares := set.Subset(0, 2, 4)
//	// each holder signs with share.Y, then:
//	sig, _ := bls.RecoverSignature(3, xs, partials)
//	err := bls.Verify(msg, group.PublicKey(), sig)
//
// # Package Structure
//
//   - pkg/envelope: KEM envelopes, raw AES-256-CBC and PKCS#7 padding
//   - pkg/bls: BLS12-381 keys, signatures and Shamir secret sharing
//   - pkg/sealed: signed envelope messages, identities and the wire format
//   - pkg/chkem: Cascaded Hybrid KEM (ML-KEM-1024 + X25519)
//   - pkg/crypto: primitives (ML-KEM, X25519, KDF, CBC, AEAD, DRBG, self-tests)
//   - pkg/metrics: collector, logger, tracing, Prometheus export and health
//   - internal/constants: sizes, suite identifiers and format constants
//   - internal/errors: sentinel errors and CryptoError
//
// # Testing
//
//	go test ./...                                        # All tests
//	go test -fuzz=FuzzUnmarshalMessage ./pkg/sealed      # Message parser
//	go test -fuzz=FuzzParseSignature ./pkg/bls           # BLS decoding
//	go test -run TestKAT ./pkg/crypto                    # Known Answer Tests
//	go test -bench=. ./pkg/...                           # Benchmarks
//	go test -tags fips ./...                             # FIPS-only suites
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - draft-irtf-cfrg-bls-signature: BLS Signatures
//   - RFC 5652 section 6.3: PKCS#7 padding
//   - RFC 7748: Elliptic Curves for Security
package quantumenvelope
