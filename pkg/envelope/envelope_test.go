package envelope_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/envelope"
)

var kemNames = []string{
	constants.KEMMLKEM768,
	constants.KEMMLKEM1024,
	constants.KEMKyber768X25519,
	constants.KEMCHKEM,
}

func seeded(t *testing.T, fill byte) *crypto.Rand {
	t.Helper()
	r, err := crypto.NewRand(bytes.Repeat([]byte{fill}, constants.SeedSize))
	require.NoError(t, err)
	return r
}

func keypair(t *testing.T, k crypto.KEM, fill byte) *crypto.KEMKeyPair {
	t.Helper()
	kp, err := k.Keypair(seeded(t, fill))
	require.NoError(t, err)
	return kp
}

func forEachKEM(t *testing.T, fn func(t *testing.T, k crypto.KEM)) {
	for _, name := range kemNames {
		t.Run(name, func(t *testing.T) {
			k, err := envelope.KEMByName(name)
			require.NoError(t, err)
			require.Equal(t, name, k.Name())
			fn(t, k)
		})
	}
}

func TestKEMByName(t *testing.T) {
	k, err := envelope.KEMByName("")
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultKEM, k.Name())

	_, err = envelope.KEMByName("SIKEp434")
	assert.True(t, errors.Is(err, qerrors.ErrUnsupportedKEM), "got %v", err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 4)
	iv := bytes.Repeat([]byte{0x42}, constants.AESIVSize)

	forEachKEM(t, func(t *testing.T, k crypto.KEM) {
		kp := keypair(t, k, 0x01)
		orig := bytes.Clone(plaintext)

		env, err := envelope.EncryptEnvelope(k, plaintext, iv, kp.PublicKey, nil)
		require.NoError(t, err)
		assert.Equal(t, orig, plaintext, "plaintext modified in place")
		assert.Len(t, env.Ciphertext, len(plaintext))
		assert.Len(t, env.EncapsulatedKey, k.CiphertextSize())
		assert.Equal(t, iv, env.IV)
		assert.NotEqual(t, plaintext, env.Ciphertext)

		got, err := envelope.DecryptEnvelope(k, env, kp.SecretKey)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	})
}

func TestEnvelopeEmptyPlaintext(t *testing.T) {
	k := crypto.MLKEM1024()
	kp := keypair(t, k, 0x02)
	iv := make([]byte, constants.AESIVSize)

	env, err := envelope.EncryptEnvelope(k, nil, iv, kp.PublicKey, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Ciphertext)

	got, err := envelope.DecryptEnvelope(k, env, kp.SecretKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnvelopeDeterministicWithSeededRand(t *testing.T) {
	k := crypto.MLKEM768()
	kp := keypair(t, k, 0x03)
	pt := make([]byte, 32)
	iv := make([]byte, constants.AESIVSize)

	env1, err := envelope.EncryptEnvelope(k, pt, iv, kp.PublicKey, seeded(t, 0x09))
	require.NoError(t, err)
	env2, err := envelope.EncryptEnvelope(k, pt, iv, kp.PublicKey, seeded(t, 0x09))
	require.NoError(t, err)

	assert.Equal(t, env1.EncapsulatedKey, env2.EncapsulatedKey)
	assert.Equal(t, env1.Ciphertext, env2.Ciphertext)
}

func TestEnvelopeWrongRecipient(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0xAB}, 48)
	iv := make([]byte, constants.AESIVSize)

	forEachKEM(t, func(t *testing.T, k crypto.KEM) {
		alice := keypair(t, k, 0x10)
		mallory := keypair(t, k, 0x11)

		env, err := envelope.EncryptEnvelope(k, plaintext, iv, alice.PublicKey, nil)
		require.NoError(t, err)

		got, err := envelope.DecryptEnvelope(k, env, mallory.SecretKey)
		if err != nil {
			assert.True(t, errors.Is(err, qerrors.ErrDecapsulationFailed), "got %v", err)
			return
		}
		assert.NotEqual(t, plaintext, got)
	})
}

func TestEnvelopeInvalidLengths(t *testing.T) {
	k := crypto.MLKEM1024()
	kp := keypair(t, k, 0x04)
	iv := make([]byte, constants.AESIVSize)

	testCases := []struct {
		name      string
		plaintext []byte
		iv        []byte
		pk        []byte
	}{
		{"unaligned plaintext", make([]byte, 17), iv, kp.PublicKey},
		{"short iv", make([]byte, 16), iv[:8], kp.PublicKey},
		{"short public key", make([]byte, 16), iv, kp.PublicKey[:100]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := envelope.EncryptEnvelope(k, tc.plaintext, tc.iv, tc.pk, nil)
			assert.True(t, errors.Is(err, qerrors.ErrInvalidLength), "got %v", err)
		})
	}

	env, err := envelope.EncryptEnvelope(k, make([]byte, 32), iv, kp.PublicKey, nil)
	require.NoError(t, err)

	bad := *env
	bad.Ciphertext = env.Ciphertext[:31]
	_, err = envelope.DecryptEnvelope(k, &bad, kp.SecretKey)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidLength), "got %v", err)

	bad = *env
	bad.EncapsulatedKey = env.EncapsulatedKey[:10]
	_, err = envelope.DecryptEnvelope(k, &bad, kp.SecretKey)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidLength), "got %v", err)

	_, err = envelope.DecryptEnvelope(k, env, kp.SecretKey[:10])
	assert.True(t, errors.Is(err, qerrors.ErrInvalidLength), "got %v", err)
}

func TestSealOpenEnvelope(t *testing.T) {
	plaintext := []byte("not block aligned at all")
	nonce := bytes.Repeat([]byte{0x07}, constants.AESNonceSize)
	aad := []byte("header")

	for _, suite := range crypto.SupportedCipherSuites() {
		if !suite.IsAEAD() {
			continue
		}
		t.Run(suite.String(), func(t *testing.T) {
			forEachKEM(t, func(t *testing.T, k crypto.KEM) {
				alice := keypair(t, k, 0x20)
				mallory := keypair(t, k, 0x21)

				env, err := envelope.SealEnvelope(k, suite, plaintext, nonce, aad, alice.PublicKey, nil)
				require.NoError(t, err)
				assert.Equal(t, suite, env.Suite)
				assert.Len(t, env.Tag, constants.AESTagSize)

				got, err := envelope.OpenEnvelope(k, env, aad, alice.SecretKey)
				require.NoError(t, err)
				assert.Equal(t, plaintext, got)

				_, err = envelope.OpenEnvelope(k, env, aad, mallory.SecretKey)
				assert.True(t, errors.Is(err, qerrors.ErrVerifyFailed) || errors.Is(err, qerrors.ErrDecapsulationFailed), "got %v", err)

				_, err = envelope.OpenEnvelope(k, env, []byte("other"), alice.SecretKey)
				assert.True(t, errors.Is(err, qerrors.ErrVerifyFailed), "got %v", err)

				tampered := *env
				tampered.Ciphertext = bytes.Clone(env.Ciphertext)
				tampered.Ciphertext[0] ^= 1
				_, err = envelope.OpenEnvelope(k, &tampered, aad, alice.SecretKey)
				assert.True(t, errors.Is(err, qerrors.ErrVerifyFailed), "got %v", err)
			})
		})
	}
}

func TestSealEnvelopeRejectsCBC(t *testing.T) {
	k := crypto.MLKEM768()
	kp := keypair(t, k, 0x05)

	_, err := envelope.SealEnvelope(k, constants.CipherSuiteAES256CBC, nil, make([]byte, 12), nil, kp.PublicKey, nil)
	assert.True(t, errors.Is(err, qerrors.ErrUnsupportedCipherSuite), "got %v", err)

	env, err := envelope.EncryptEnvelope(k, nil, make([]byte, 16), kp.PublicKey, nil)
	require.NoError(t, err)
	_, err = envelope.OpenEnvelope(k, env, nil, kp.SecretKey)
	assert.True(t, errors.Is(err, qerrors.ErrUnsupportedCipherSuite), "got %v", err)
}

func TestDirectCBC(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, constants.AESKeySize)
	iv := bytes.Repeat([]byte{0x02}, constants.AESIVSize)
	pt := bytes.Repeat([]byte{0x03}, 64)

	ct, err := envelope.Encrypt(key, iv, pt)
	require.NoError(t, err)
	got, err := envelope.Decrypt(key, iv, ct)
	require.NoError(t, err)
	assert.Equal(t, pt, got)

	_, err = envelope.Encrypt(key[:16], iv, pt)
	assert.Error(t, err)
}

func TestDirectAEAD(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, constants.AESKeySize)
	nonce := make([]byte, constants.AESNonceSize)

	ct, tag, err := envelope.AuthEncrypt(constants.CipherSuiteAES256GCM, key, nonce, []byte("aad"), []byte("hello"))
	require.NoError(t, err)

	got, err := envelope.AuthDecrypt(constants.CipherSuiteAES256GCM, key, nonce, []byte("aad"), ct, tag)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	tag[0] ^= 0xff
	_, err = envelope.AuthDecrypt(constants.CipherSuiteAES256GCM, key, nonce, []byte("aad"), ct, tag)
	assert.True(t, errors.Is(err, qerrors.ErrVerifyFailed), "got %v", err)
}

func TestPadUnpad(t *testing.T) {
	for n := 0; n <= 33; n++ {
		data := bytes.Repeat([]byte{0x5a}, n)
		padded := envelope.Pad(data)
		require.Zero(t, len(padded)%constants.AESBlockSize)
		require.Greater(t, len(padded), n)

		got, err := envelope.Unpad(padded)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestUnpadInvalid(t *testing.T) {
	block := bytes.Repeat([]byte{0x04}, 16)

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, qerrors.ErrInvalidLength},
		{"unaligned", block[:15], qerrors.ErrInvalidLength},
		{"zero pad byte", append(bytes.Clone(block[:15]), 0x00), qerrors.ErrInvalidPadding},
		{"pad too large", append(bytes.Clone(block[:15]), 0x11), qerrors.ErrInvalidPadding},
		{"inconsistent", append(bytes.Repeat([]byte{0x01}, 14), 0x02, 0x03), qerrors.ErrInvalidPadding},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := envelope.Unpad(tc.data)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func BenchmarkEncryptEnvelope(b *testing.B) {
	k := crypto.MLKEM1024()
	kp, err := k.Keypair(nil)
	if err != nil {
		b.Fatal(err)
	}
	pt := make([]byte, 1024)
	iv := make([]byte, constants.AESIVSize)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := envelope.EncryptEnvelope(k, pt, iv, kp.PublicKey, nil); err != nil {
			b.Fatal(err)
		}
	}
}
