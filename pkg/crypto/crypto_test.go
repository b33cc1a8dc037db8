package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

func testSeed(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, constants.SeedSize)
}

// --- Random Tests ---

func TestSecureRandom(t *testing.T) {
	buf := make([]byte, 32)
	if err := crypto.SecureRandom(buf); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}
	if bytes.Equal(buf, make([]byte, 32)) {
		t.Error("SecureRandom returned all zeros")
	}
}

func TestSecureRandomBytes(t *testing.T) {
	sizes := []int{16, 32, 48, 128}
	for _, size := range sizes {
		buf, err := crypto.SecureRandomBytes(size)
		if err != nil {
			t.Fatalf("SecureRandomBytes(%d) failed: %v", size, err)
		}
		if len(buf) != size {
			t.Errorf("SecureRandomBytes(%d) returned %d bytes", size, len(buf))
		}
	}
}

func TestNewSeedAndRandomIV(t *testing.T) {
	seed, err := crypto.NewSeed()
	if err != nil {
		t.Fatalf("NewSeed failed: %v", err)
	}
	if len(seed) != constants.SeedSize {
		t.Errorf("seed length = %d, want %d", len(seed), constants.SeedSize)
	}

	iv, err := crypto.RandomIV(crypto.MustNewRand(seed))
	if err != nil {
		t.Fatalf("RandomIV failed: %v", err)
	}
	if len(iv) != constants.AESIVSize {
		t.Errorf("iv length = %d, want %d", len(iv), constants.AESIVSize)
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("hello world")
	b := []byte("hello world")
	c := []byte("hello worle")
	d := []byte("hello")

	if !crypto.ConstantTimeCompare(a, b) {
		t.Error("Equal slices should compare equal")
	}
	if crypto.ConstantTimeCompare(a, c) {
		t.Error("Different slices should not compare equal")
	}
	if crypto.ConstantTimeCompare(a, d) {
		t.Error("Different length slices should not compare equal")
	}
}

func TestZeroize(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{4, 5}
	crypto.ZeroizeMultiple(a, b, nil)
	if !bytes.Equal(a, []byte{0, 0, 0}) || !bytes.Equal(b, []byte{0, 0}) {
		t.Errorf("ZeroizeMultiple left data: %x %x", a, b)
	}
}

// --- Rand Tests ---

func TestRandDeterministic(t *testing.T) {
	r1 := crypto.MustNewRand(testSeed(7))
	r2 := crypto.MustNewRand(testSeed(7))
	r3 := crypto.MustNewRand(testSeed(8))

	out1 := make([]byte, 100)
	out2 := make([]byte, 100)
	out3 := make([]byte, 100)
	_, _ = r1.Read(out1)
	_, _ = r2.Read(out2)
	_, _ = r3.Read(out3)

	if !bytes.Equal(out1, out2) {
		t.Error("same seed should give the same stream")
	}
	if bytes.Equal(out1, out3) {
		t.Error("different seeds should give different streams")
	}
}

func TestRandStreamContinues(t *testing.T) {
	r1 := crypto.MustNewRand(testSeed(1))
	r2 := crypto.MustNewRand(testSeed(1))

	whole := make([]byte, 64)
	_, _ = r1.Read(whole)

	first := make([]byte, 20)
	rest := make([]byte, 44)
	_, _ = r2.Read(first)
	_, _ = r2.Read(rest)

	if !bytes.Equal(whole, append(first, rest...)) {
		t.Error("split reads should concatenate to one stream")
	}
}

func TestRandInvalidSeed(t *testing.T) {
	for _, n := range []int{0, 32, 47, 49, 64} {
		_, err := crypto.NewRand(make([]byte, n))
		if !errors.Is(err, qerrors.ErrInvalidLength) {
			t.Errorf("NewRand(len %d) error = %v, want ErrInvalidLength", n, err)
		}
	}

	var nilRand *crypto.Rand
	if _, err := nilRand.Read(make([]byte, 1)); err == nil {
		t.Error("nil Rand should fail")
	}
}

func TestRandFork(t *testing.T) {
	parent := crypto.MustNewRand(testSeed(3))
	child, err := parent.Fork()
	if err != nil {
		t.Fatalf("Fork failed: %v", err)
	}

	a := make([]byte, 32)
	b := make([]byte, 32)
	_, _ = parent.Read(a)
	_, _ = child.Read(b)
	if bytes.Equal(a, b) {
		t.Error("forked stream should differ from parent")
	}
}

// --- Buffer Tests ---

func TestBuffer(t *testing.T) {
	buf := crypto.NewBuffer(8)
	if buf.Len() != 0 || buf.Cap() != 8 {
		t.Fatalf("new buffer len/cap = %d/%d", buf.Len(), buf.Cap())
	}

	if _, err := buf.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := buf.WriteByte(4); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}
	if buf.Remaining() != 4 {
		t.Errorf("Remaining = %d, want 4", buf.Remaining())
	}

	if _, err := buf.Write(make([]byte, 5)); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("overflowing Write error = %v, want ErrInvalidLength", err)
	}
	if buf.Len() != 4 {
		t.Errorf("failed Write changed length to %d", buf.Len())
	}

	if err := buf.SetLen(2); err != nil {
		t.Fatalf("SetLen failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2}) {
		t.Errorf("Bytes = %x", buf.Bytes())
	}
	if err := buf.SetLen(9); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("SetLen beyond cap error = %v", err)
	}

	buf.Reset()
	if buf.Len() != 0 {
		t.Error("Reset should empty the buffer")
	}
	_ = buf.SetLen(4)
	if !bytes.Equal(buf.Bytes(), make([]byte, 4)) {
		t.Error("Reset should zero the contents")
	}
}

func TestBufferFrom(t *testing.T) {
	src := []byte{9, 8, 7}
	buf := crypto.BufferFrom(src)
	src[0] = 0
	if !bytes.Equal(buf.Bytes(), []byte{9, 8, 7}) {
		t.Error("BufferFrom should copy its input")
	}
	if buf.Remaining() != 0 {
		t.Error("BufferFrom should be full")
	}
}

func TestRequireLen(t *testing.T) {
	if err := crypto.RequireLen("op", make([]byte, 16), 16); err != nil {
		t.Errorf("RequireLen exact: %v", err)
	}
	if err := crypto.RequireLen("op", make([]byte, 15), 16); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("RequireLen short: %v", err)
	}
	if err := crypto.RequireBlockAligned("op", make([]byte, 32), 16); err != nil {
		t.Errorf("RequireBlockAligned aligned: %v", err)
	}
	if err := crypto.RequireBlockAligned("op", make([]byte, 0), 16); err != nil {
		t.Errorf("RequireBlockAligned empty: %v", err)
	}
	if err := crypto.RequireBlockAligned("op", make([]byte, 17), 16); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("RequireBlockAligned unaligned: %v", err)
	}
}

// --- KDF Tests ---

func TestDeriveKey(t *testing.T) {
	input := []byte("input")
	a, err := crypto.DeriveKey("domain-a", input, 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	b, _ := crypto.DeriveKey("domain-b", input, 32)
	if bytes.Equal(a, b) {
		t.Error("different domains should give different keys")
	}

	long, _ := crypto.DeriveKey("domain-a", input, 64)
	if !bytes.Equal(long[:32], a) {
		t.Error("longer output should extend shorter output")
	}

	for _, n := range []int{0, -1, 1<<20 + 1} {
		if _, err := crypto.DeriveKey("d", input, n); !errors.Is(err, qerrors.ErrInvalidKeySize) {
			t.Errorf("DeriveKey(len %d) error = %v", n, err)
		}
		if _, err := crypto.DeriveKeyMultiple("d", [][]byte{input}, n); !errors.Is(err, qerrors.ErrInvalidKeySize) {
			t.Errorf("DeriveKeyMultiple(len %d) error = %v", n, err)
		}
	}
}

func TestDeriveKeyMultipleUnambiguous(t *testing.T) {
	a, _ := crypto.DeriveKeyMultiple("d", [][]byte{[]byte("ab"), []byte("c")}, 32)
	b, _ := crypto.DeriveKeyMultiple("d", [][]byte{[]byte("a"), []byte("bc")}, 32)
	if bytes.Equal(a, b) {
		t.Error("length prefixes should separate input boundaries")
	}
}

func TestDeriveEnvelopeKey(t *testing.T) {
	ek := bytes.Repeat([]byte{0x22}, 64)
	for _, ssLen := range []int{24, 32, 64} {
		key, err := crypto.DeriveEnvelopeKey("ML-KEM-1024", bytes.Repeat([]byte{0x11}, ssLen), ek)
		if err != nil {
			t.Fatalf("DeriveEnvelopeKey(ss %d) failed: %v", ssLen, err)
		}
		if len(key) != constants.AESKeySize {
			t.Errorf("key length = %d, want %d", len(key), constants.AESKeySize)
		}
	}

	k1, _ := crypto.DeriveEnvelopeKey("ML-KEM-1024", []byte("secret"), ek)
	k2, _ := crypto.DeriveEnvelopeKey("ML-KEM-768", []byte("secret"), ek)
	k3, _ := crypto.DeriveEnvelopeKey("ML-KEM-1024", []byte("secret"), ek[1:])
	if bytes.Equal(k1, k2) || bytes.Equal(k1, k3) {
		t.Error("envelope key should bind the KEM name and encapsulated key")
	}

	if _, err := crypto.DeriveEnvelopeKey("ML-KEM-1024", nil, ek); !errors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("empty shared secret error = %v", err)
	}
}

func TestDeriveSeed(t *testing.T) {
	s, err := crypto.DeriveSeed("child", testSeed(1))
	if err != nil {
		t.Fatalf("DeriveSeed failed: %v", err)
	}
	if len(s) != constants.SeedSize {
		t.Errorf("seed length = %d", len(s))
	}
	if _, err := crypto.DeriveSeed("child", make([]byte, 10)); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short parent error = %v", err)
	}
}

func TestDeriveCHKEMSecret(t *testing.T) {
	x := make([]byte, 32)
	m := make([]byte, 32)
	th := make([]byte, 32)

	if _, err := crypto.DeriveCHKEMSecret(x, m, th); err != nil {
		t.Fatalf("DeriveCHKEMSecret failed: %v", err)
	}
	if _, err := crypto.DeriveCHKEMSecret(x[:31], m, th); err == nil {
		t.Error("short X25519 secret should fail")
	}
	if _, err := crypto.DeriveCHKEMSecret(x, m[:31], th); err == nil {
		t.Error("short ML-KEM secret should fail")
	}
	if _, err := crypto.DeriveCHKEMSecret(x, m, th[:31]); err == nil {
		t.Error("short transcript should fail")
	}
}

// --- CBC Tests ---

func TestCBCRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	iv := bytes.Repeat([]byte{0x24}, 16)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 5)
	orig := append([]byte(nil), plaintext...)

	ct, err := crypto.CBCEncrypt(key, iv, plaintext)
	if err != nil {
		t.Fatalf("CBCEncrypt failed: %v", err)
	}
	if len(ct) != len(plaintext) {
		t.Errorf("ciphertext length = %d, want %d", len(ct), len(plaintext))
	}
	if !bytes.Equal(plaintext, orig) {
		t.Error("CBCEncrypt modified its input")
	}

	pt, err := crypto.CBCDecrypt(key, iv, ct)
	if err != nil {
		t.Fatalf("CBCDecrypt failed: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Error("CBC round trip mismatch")
	}
}

func TestCBCChaining(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	// Two identical plaintext blocks must not give identical ciphertext blocks.
	ct, err := crypto.CBCEncrypt(key, iv, make([]byte, 32))
	if err != nil {
		t.Fatalf("CBCEncrypt failed: %v", err)
	}
	if bytes.Equal(ct[:16], ct[16:]) {
		t.Error("CBC blocks should be chained")
	}
}

func TestCBCEmpty(t *testing.T) {
	ct, err := crypto.CBCEncrypt(make([]byte, 32), make([]byte, 16), nil)
	if err != nil {
		t.Fatalf("CBCEncrypt(empty) failed: %v", err)
	}
	if len(ct) != 0 {
		t.Errorf("empty plaintext gave %d bytes", len(ct))
	}
}

func TestCBCInvalidInput(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)

	tests := []struct {
		name string
		key  []byte
		iv   []byte
		data []byte
		want error
	}{
		{"unaligned", key, iv, make([]byte, 17), qerrors.ErrInvalidLength},
		{"short iv", key, iv[:12], make([]byte, 16), qerrors.ErrInvalidLength},
		{"short key", key[:16], iv, make([]byte, 16), qerrors.ErrInvalidKeySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := crypto.CBCEncrypt(tt.key, tt.iv, tt.data); !errors.Is(err, tt.want) {
				t.Errorf("CBCEncrypt error = %v, want %v", err, tt.want)
			}
			if _, err := crypto.CBCDecrypt(tt.key, tt.iv, tt.data); !errors.Is(err, tt.want) {
				t.Errorf("CBCDecrypt error = %v, want %v", err, tt.want)
			}
		})
	}
}

// --- AEAD Tests ---

func TestAEADRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	nonce := bytes.Repeat([]byte{0x02}, 12)
	aad := []byte("header")
	plaintext := []byte("not block aligned")

	for _, suite := range []constants.CipherSuite{constants.CipherSuiteAES256GCM, constants.CipherSuiteChaCha20Poly1305} {
		if !crypto.SuiteAllowed(suite) {
			continue
		}
		t.Run(suite.String(), func(t *testing.T) {
			ct, tag, err := crypto.AuthEncrypt(suite, key, nonce, aad, plaintext)
			if err != nil {
				t.Fatalf("AuthEncrypt failed: %v", err)
			}
			if len(ct) != len(plaintext) || len(tag) != constants.AESTagSize {
				t.Fatalf("ct/tag lengths = %d/%d", len(ct), len(tag))
			}

			pt, err := crypto.AuthDecrypt(suite, key, nonce, aad, ct, tag)
			if err != nil {
				t.Fatalf("AuthDecrypt failed: %v", err)
			}
			if !bytes.Equal(pt, plaintext) {
				t.Error("AEAD round trip mismatch")
			}

			badTag := append([]byte(nil), tag...)
			badTag[0] ^= 1
			if _, err := crypto.AuthDecrypt(suite, key, nonce, aad, ct, badTag); !errors.Is(err, qerrors.ErrVerifyFailed) {
				t.Errorf("tampered tag error = %v, want ErrVerifyFailed", err)
			}

			if _, err := crypto.AuthDecrypt(suite, key, nonce, []byte("other"), ct, tag); !errors.Is(err, qerrors.ErrVerifyFailed) {
				t.Errorf("wrong aad error = %v, want ErrVerifyFailed", err)
			}

			if _, err := crypto.AuthDecrypt(suite, key, nonce, aad, ct, tag[:8]); !errors.Is(err, qerrors.ErrInvalidLength) {
				t.Errorf("short tag error = %v, want ErrInvalidLength", err)
			}
		})
	}
}

func TestAEADErrors(t *testing.T) {
	key := make([]byte, 32)

	if _, err := crypto.NewAEAD(constants.CipherSuiteAES256GCM, key[:16]); !errors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("short key error = %v", err)
	}
	if _, err := crypto.NewAEAD(constants.CipherSuiteAES256CBC, key); !errors.Is(err, qerrors.ErrUnsupportedCipherSuite) {
		t.Errorf("CBC suite error = %v", err)
	}
	if _, err := crypto.NewAEAD(constants.CipherSuite(0x99), key); !errors.Is(err, qerrors.ErrUnsupportedCipherSuite) {
		t.Errorf("unknown suite error = %v", err)
	}

	a, err := crypto.NewAEAD(constants.CipherSuiteAES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}
	if a.Suite() != constants.CipherSuiteAES256GCM || a.NonceSize() != 12 || a.Overhead() != 16 {
		t.Errorf("unexpected AEAD parameters: %v %d %d", a.Suite(), a.NonceSize(), a.Overhead())
	}
	if _, err := a.SealWithNonce(make([]byte, 16), nil, nil); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("bad nonce seal error = %v", err)
	}
	if _, err := a.OpenWithNonce(make([]byte, 12), make([]byte, 4), nil); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short ciphertext open error = %v", err)
	}
}

func TestSupportedCipherSuites(t *testing.T) {
	suites := crypto.SupportedCipherSuites()
	if len(suites) == 0 || suites[0] != constants.CipherSuiteAES256GCM {
		t.Fatalf("SupportedCipherSuites() = %v", suites)
	}
	for _, s := range suites {
		if !crypto.SuiteAllowed(s) {
			t.Errorf("listed suite %v not allowed", s)
		}
	}
}

// --- KEM Tests ---

func allKEMs() []crypto.KEM {
	return []crypto.KEM{crypto.MLKEM768(), crypto.MLKEM1024(), crypto.Kyber768X25519()}
}

func TestKEMRoundTrip(t *testing.T) {
	for _, k := range allKEMs() {
		t.Run(k.Name(), func(t *testing.T) {
			kp, err := k.Keypair(nil)
			if err != nil {
				t.Fatalf("Keypair failed: %v", err)
			}
			if len(kp.PublicKey) != k.PublicKeySize() || len(kp.SecretKey) != k.PrivateKeySize() {
				t.Fatalf("key sizes = %d/%d", len(kp.PublicKey), len(kp.SecretKey))
			}

			ct, ss1, err := k.Encapsulate(kp.PublicKey, nil)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}
			if len(ct) != k.CiphertextSize() || len(ss1) != k.SharedSecretSize() {
				t.Fatalf("ct/ss sizes = %d/%d", len(ct), len(ss1))
			}

			ss2, err := k.Decapsulate(kp.SecretKey, ct)
			if err != nil {
				t.Fatalf("Decapsulate failed: %v", err)
			}
			if !bytes.Equal(ss1, ss2) {
				t.Error("shared secrets differ")
			}

			pk, err := k.PublicKeyOf(kp.SecretKey)
			if err != nil {
				t.Fatalf("PublicKeyOf failed: %v", err)
			}
			if !bytes.Equal(pk, kp.PublicKey) {
				t.Error("PublicKeyOf does not match generated public key")
			}
		})
	}
}

func TestKEMDeterministic(t *testing.T) {
	for _, k := range allKEMs() {
		t.Run(k.Name(), func(t *testing.T) {
			kp1, err := k.Keypair(crypto.MustNewRand(testSeed(5)))
			if err != nil {
				t.Fatalf("Keypair failed: %v", err)
			}
			kp2, _ := k.Keypair(crypto.MustNewRand(testSeed(5)))
			if !bytes.Equal(kp1.PublicKey, kp2.PublicKey) || !bytes.Equal(kp1.SecretKey, kp2.SecretKey) {
				t.Error("same seed should derive the same key pair")
			}

			ct1, ss1, _ := k.Encapsulate(kp1.PublicKey, crypto.MustNewRand(testSeed(6)))
			ct2, ss2, _ := k.Encapsulate(kp1.PublicKey, crypto.MustNewRand(testSeed(6)))
			if !bytes.Equal(ct1, ct2) || !bytes.Equal(ss1, ss2) {
				t.Error("same seed should give the same encapsulation")
			}
		})
	}
}

func TestKEMWrongKey(t *testing.T) {
	k := crypto.MLKEM1024()
	kp1, _ := k.Keypair(nil)
	kp2, _ := k.Keypair(nil)

	ct, ss, err := k.Encapsulate(kp1.PublicKey, nil)
	if err != nil {
		t.Fatalf("Encapsulate failed: %v", err)
	}

	// Implicit rejection: no error, unrelated secret.
	other, err := k.Decapsulate(kp2.SecretKey, ct)
	if err != nil {
		t.Fatalf("Decapsulate with wrong key returned error: %v", err)
	}
	if bytes.Equal(ss, other) {
		t.Error("wrong key recovered the shared secret")
	}
}

func TestKEMInvalidInput(t *testing.T) {
	k := crypto.MLKEM768()
	kp, _ := k.Keypair(nil)
	ct, _, _ := k.Encapsulate(kp.PublicKey, nil)

	if _, _, err := k.Encapsulate(kp.PublicKey[1:], nil); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short public key error = %v", err)
	}
	if _, err := k.Decapsulate(kp.SecretKey, ct[1:]); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short ciphertext error = %v", err)
	}
	if _, err := k.Decapsulate(kp.SecretKey[1:], ct); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short secret key error = %v", err)
	}
	if _, err := k.PublicKeyOf(nil); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("PublicKeyOf(nil) error = %v", err)
	}
}

func TestKEMByName(t *testing.T) {
	for _, name := range []string{constants.KEMMLKEM768, constants.KEMMLKEM1024, constants.KEMKyber768X25519} {
		k, err := crypto.KEMByName(name)
		if err != nil {
			t.Fatalf("KEMByName(%q) failed: %v", name, err)
		}
		if k.Name() != name {
			t.Errorf("KEMByName(%q).Name() = %q", name, k.Name())
		}
	}

	k, err := crypto.KEMByName("")
	if err != nil || k.Name() != constants.DefaultKEM {
		t.Errorf("KEMByName(\"\") = %v, %v", k, err)
	}

	if _, err := crypto.KEMByName(constants.KEMCHKEM); !errors.Is(err, qerrors.ErrUnsupportedKEM) {
		t.Errorf("KEMByName(CH-KEM) error = %v", err)
	}
}

func TestHybridSharedSecretLength(t *testing.T) {
	k := crypto.Kyber768X25519()
	if k.SharedSecretSize() == constants.AESKeySize {
		t.Skip("hybrid shared secret already matches the AES key size")
	}
	kp, _ := k.Keypair(nil)
	ct, ss, err := k.Encapsulate(kp.PublicKey, nil)
	if err != nil {
		t.Fatalf("Encapsulate failed: %v", err)
	}
	key, err := crypto.DeriveEnvelopeKey(k.Name(), ss, ct)
	if err != nil {
		t.Fatalf("DeriveEnvelopeKey failed: %v", err)
	}
	if len(key) != constants.AESKeySize {
		t.Errorf("derived key length = %d", len(key))
	}
}

func TestKEMKeyPairZeroize(t *testing.T) {
	kp, _ := crypto.MLKEM768().Keypair(nil)
	sk := kp.SecretKey
	kp.Zeroize()
	if kp.SecretKey != nil {
		t.Error("Zeroize should drop the secret key")
	}
	if !bytes.Equal(sk, make([]byte, len(sk))) {
		t.Error("Zeroize should clear the secret key bytes")
	}

	var nilKP *crypto.KEMKeyPair
	nilKP.Zeroize()
}

// --- X25519 Tests ---

func TestX25519KeyExchange(t *testing.T) {
	alice, err := crypto.GenerateX25519KeyPair(nil)
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair failed: %v", err)
	}
	bob, _ := crypto.GenerateX25519KeyPair(nil)

	s1, err := crypto.X25519(alice.PrivateKey, bob.PublicKey)
	if err != nil {
		t.Fatalf("X25519 failed: %v", err)
	}
	s2, _ := crypto.X25519(bob.PrivateKey, alice.PublicKey)
	if !bytes.Equal(s1, s2) {
		t.Error("shared secrets differ")
	}
}

func TestX25519Deterministic(t *testing.T) {
	a, _ := crypto.GenerateX25519KeyPair(crypto.MustNewRand(testSeed(9)))
	b, _ := crypto.GenerateX25519KeyPair(crypto.MustNewRand(testSeed(9)))
	if !bytes.Equal(a.PublicKeyBytes(), b.PublicKeyBytes()) {
		t.Error("same seed should derive the same X25519 key")
	}

	c, err := crypto.NewX25519KeyPairFromBytes(a.PrivateKeyBytes())
	if err != nil {
		t.Fatalf("NewX25519KeyPairFromBytes failed: %v", err)
	}
	if !bytes.Equal(c.PublicKeyBytes(), a.PublicKeyBytes()) {
		t.Error("round trip through private key bytes changed the public key")
	}
}

func TestX25519Errors(t *testing.T) {
	if _, err := crypto.NewX25519KeyPairFromBytes(make([]byte, 31)); !errors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("short private key error = %v", err)
	}
	if _, err := crypto.ParseX25519PublicKey(make([]byte, 31)); !errors.Is(err, qerrors.ErrInvalidLength) {
		t.Errorf("short public key error = %v", err)
	}
	if _, err := crypto.X25519(nil, nil); !errors.Is(err, qerrors.ErrInvalidPrivateKey) {
		t.Errorf("nil private key error = %v", err)
	}

	kp, _ := crypto.GenerateX25519KeyPair(nil)
	if _, err := crypto.X25519(kp.PrivateKey, nil); !errors.Is(err, qerrors.ErrInvalidPublicKey) {
		t.Errorf("nil public key error = %v", err)
	}
	kp.Zeroize()
	if kp.PrivateKey != nil || kp.PublicKey != nil {
		t.Error("Zeroize should drop key references")
	}
}
