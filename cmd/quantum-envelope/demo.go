package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/bls"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/envelope"
	"github.com/pzverkov/quantum-envelope/pkg/sealed"
)

type demoConfig struct {
	kem       string
	suite     constants.CipherSuite
	message   string
	threshold int
	shares    int
	verbose   bool
}

func runDemo(cfg demoConfig, obs *observability) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      Quantum-Envelope Demo                               ║")
	fmt.Println("║      KEM envelope + BLS12-381 threshold signatures       ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if !runSelfTest(os.Stdout) {
		os.Exit(1)
	}
	fmt.Println()

	step("Generating identities (%s)", cfg.kem)
	alice, err := sealed.GenerateIdentity(nil, cfg.kem)
	if err != nil {
		fatal(err)
	}
	defer alice.Zeroize()
	bob, err := sealed.GenerateIdentity(nil, cfg.kem)
	if err != nil {
		fatal(err)
	}
	defer bob.Zeroize()
	ok("alice signs, bob receives")
	if cfg.verbose {
		fmt.Printf("  Bob KEM public key: %d bytes\n", len(bob.PublicKey()))
		fmt.Printf("  Alice BLS public key: %x...\n", alice.VerifyKey.Bytes()[:8])
	}
	fmt.Println()

	plaintext := []byte(cfg.message)

	demoKeyWrap(cfg, plaintext, alice, bob)
	fmt.Println()

	demoThreshold(cfg, plaintext)
	fmt.Println()

	demoSealed(cfg, plaintext, alice, bob, obs)

	if cfg.verbose {
		printSnapshot(obs)
	}
}

// demoKeyWrap encrypts under a fresh AES key, wraps that key in an envelope
// for bob and signs the plaintext as alice.
func demoKeyWrap(cfg demoConfig, plaintext []byte, alice, bob *sealed.Identity) {
	step("Key wrapping: AES-256-CBC data key inside a %s envelope", cfg.kem)

	k, err := envelope.KEMByName(cfg.kem)
	if err != nil {
		fatal(err)
	}

	dataKey, err := crypto.SecureRandomBytes(constants.AESKeySize)
	if err != nil {
		fatal(err)
	}
	defer crypto.Zeroize(dataKey)

	iv, err := crypto.RandomIV(nil)
	if err != nil {
		fatal(err)
	}
	ciphertext, err := envelope.Encrypt(dataKey, iv, envelope.Pad(plaintext))
	if err != nil {
		fatal(err)
	}

	wrapIV, err := crypto.RandomIV(nil)
	if err != nil {
		fatal(err)
	}
	wrapped, err := envelope.EncryptEnvelope(k, dataKey, wrapIV, bob.PublicKey(), nil)
	if err != nil {
		fatal(err)
	}
	sig := bls.Sign(plaintext, alice.SigningKey)
	ok("ciphertext %d bytes, wrapped key %d bytes, signature %d bytes",
		len(ciphertext), len(wrapped.Ciphertext)+len(wrapped.EncapsulatedKey), len(sig.Bytes()))

	unwrapped, err := envelope.DecryptEnvelope(k, wrapped, bob.KEMKeys.SecretKey)
	if err != nil {
		fatal(err)
	}
	defer crypto.Zeroize(unwrapped)

	padded, err := envelope.Decrypt(unwrapped, iv, ciphertext)
	if err != nil {
		fatal(err)
	}
	recovered, err := envelope.Unpad(padded)
	if err != nil {
		fatal(err)
	}
	if err := bls.Verify(recovered, alice.VerifyKey, sig); err != nil {
		fatal(err)
	}
	ok("bob unwrapped the key, decrypted %q and verified alice's signature", recovered)
}

// demoThreshold splits a signing key into shares and recovers the group
// signature from the last k partial signatures.
func demoThreshold(cfg demoConfig, message []byte) {
	step("Threshold signing: %d-of-%d", cfg.threshold, cfg.shares)

	seed, err := crypto.NewSeed()
	if err != nil {
		fatal(err)
	}
	defer crypto.Zeroize(seed)

	set, groupKey, err := bls.MakeShares(cfg.threshold, cfg.shares, seed, nil)
	if err != nil {
		fatal(err)
	}
	defer set.Zeroize()
	defer groupKey.Zeroize()
	groupPK := groupKey.PublicKey()

	indices := make([]int, 0, cfg.threshold)
	for i := cfg.shares - cfg.threshold; i < cfg.shares; i++ {
		indices = append(indices, i)
	}
	subset := set.Subset(indices...)

	xs := make([]*bls.Scalar, len(subset))
	partials := make([]*bls.Signature, len(subset))
	for i, share := range subset {
		xs[i] = share.X
		partials[i] = bls.Sign(message, share.Y)
		if err := bls.Verify(message, share.Y.PublicKey(), partials[i]); err != nil {
			fatal(err)
		}
	}
	ok("%d partial signatures from shares %v", len(partials), shareNumbers(indices))

	sig, err := bls.RecoverSignature(cfg.threshold, xs, partials)
	if err != nil {
		fatal(err)
	}
	if err := bls.Verify(message, groupPK, sig); err != nil {
		fatal(err)
	}
	ok("recovered signature verifies under the group public key")

	if cfg.threshold > 1 {
		_, err := bls.RecoverSignature(cfg.threshold, xs[1:], partials[1:])
		if !errors.Is(err, qerrors.ErrInvalidThreshold) {
			fatal(fmt.Errorf("expected threshold error, got %v", err))
		}
		ok("%d shares are not enough", cfg.threshold-1)
	}
}

// demoSealed seals one message, opens it, then shows a forged sender being
// rejected before decapsulation.
func demoSealed(cfg demoConfig, plaintext []byte, alice, bob *sealed.Identity, obs *observability) {
	step("Sealed message: %s + %s + BLS", cfg.kem, cfg.suite)

	sc := sealed.DefaultConfig()
	sc.KEM = cfg.kem
	sc.Suite = cfg.suite
	s, err := sealed.NewSealer(sc, obs.sealerOptions()...)
	if err != nil {
		fatal(err)
	}
	ctx := context.Background()

	start := time.Now()
	data, err := s.SealBytes(ctx, plaintext, bob.PublicKey(), alice.SigningKey)
	if err != nil {
		fatal(err)
	}
	ok("sealed %d bytes into %d bytes in %v", len(plaintext), len(data), time.Since(start))

	start = time.Now()
	pt, err := s.OpenBytes(ctx, data, bob.KEMKeys.SecretKey, alice.VerifyKey)
	if err != nil {
		fatal(err)
	}
	ok("opened %q in %v", pt, time.Since(start))

	_, err = s.OpenBytes(ctx, data, bob.KEMKeys.SecretKey, bob.VerifyKey)
	if !errors.Is(err, qerrors.ErrVerifyFailed) {
		fatal(fmt.Errorf("expected verification failure, got %v", err))
	}
	ok("wrong sender rejected: %v", err)

	data[len(data)/2] ^= 0x01
	_, err = s.OpenBytes(ctx, data, bob.KEMKeys.SecretKey, alice.VerifyKey)
	if err == nil {
		fatal(errors.New("tampered message opened"))
	}
	ok("tampered message rejected: %v", err)
}

func printSnapshot(obs *observability) {
	snap := obs.collector.Snapshot()
	fmt.Println()
	fmt.Println("Metrics:")
	fmt.Printf("  Envelopes sealed/opened: %d/%d\n", snap.EnvelopesSealed, snap.EnvelopesOpened)
	fmt.Printf("  Signatures created/verified: %d/%d\n", snap.SignaturesCreated, snap.SignaturesVerified)
	fmt.Printf("  Verify failures: %d\n", snap.VerifyFailures)
	fmt.Printf("  Decoding errors: %d\n", snap.DecodingErrors)

	if obs.spans == nil {
		return
	}
	fmt.Println()
	fmt.Println("Spans:")
	for _, span := range obs.spans.Spans() {
		status := "ok"
		if span.Error != nil {
			status = span.Error.Error()
		}
		fmt.Printf("  %-28s %10v  %s\n", span.Name, span.Duration, status)
	}
}

func shareNumbers(indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = idx + 1
	}
	return out
}

func step(format string, args ...any) {
	fmt.Printf("▶ "+format+"\n", args...)
	fmt.Println(strings.Repeat("─", 60))
}

func ok(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}
