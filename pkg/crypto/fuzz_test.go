package crypto_test

import (
	"testing"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
)

func fuzzAuthDecrypt(f *testing.F, suite constants.CipherSuite) {
	key := crypto.MustSecureRandomBytes(constants.AESKeySize)
	nonce := crypto.MustSecureRandomBytes(constants.AESNonceSize)

	ct, tag, err := crypto.AuthEncrypt(suite, key, nonce, nil, []byte("test plaintext data"))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(ct, tag)
	f.Add([]byte{}, []byte{})
	f.Add(make([]byte, 100), make([]byte, constants.AESTagSize))

	f.Fuzz(func(t *testing.T, ciphertext, tag []byte) {
		pt, err := crypto.AuthDecrypt(suite, key, nonce, nil, ciphertext, tag)
		if err != nil {
			return
		}
		if len(pt) != len(ciphertext) {
			t.Errorf("plaintext length %d for ciphertext length %d", len(pt), len(ciphertext))
		}
	})
}

// FuzzAuthDecryptGCM fuzzes AES-256-GCM decryption.
func FuzzAuthDecryptGCM(f *testing.F) {
	fuzzAuthDecrypt(f, constants.CipherSuiteAES256GCM)
}

// FuzzAuthDecryptChaCha20 fuzzes ChaCha20-Poly1305 decryption.
func FuzzAuthDecryptChaCha20(f *testing.F) {
	if !crypto.SuiteAllowed(constants.CipherSuiteChaCha20Poly1305) {
		f.Skip("ChaCha20-Poly1305 not allowed in this build")
	}
	fuzzAuthDecrypt(f, constants.CipherSuiteChaCha20Poly1305)
}

// FuzzCBCDecrypt checks that unaligned input is rejected and aligned input
// decrypts to the same length.
func FuzzCBCDecrypt(f *testing.F) {
	key := crypto.MustSecureRandomBytes(constants.AESKeySize)
	iv := crypto.MustSecureRandomBytes(constants.AESIVSize)

	f.Add([]byte{})
	f.Add(make([]byte, 15))
	f.Add(make([]byte, 32))

	f.Fuzz(func(t *testing.T, data []byte) {
		pt, err := crypto.CBCDecrypt(key, iv, data)
		if err != nil {
			if len(data) != 0 && len(data)%constants.AESBlockSize == 0 {
				t.Errorf("aligned input rejected: %v", err)
			}
			return
		}
		if len(pt) != len(data) {
			t.Errorf("plaintext length %d for ciphertext length %d", len(pt), len(data))
		}
	})
}

// FuzzKEMDecapsulate fuzzes ML-KEM decapsulation through the KEM interface.
func FuzzKEMDecapsulate(f *testing.F) {
	k := crypto.MLKEM768()
	kp, err := k.Keypair(nil)
	if err != nil {
		f.Fatal(err)
	}
	ct, _, err := k.Encapsulate(kp.PublicKey, nil)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(ct)
	f.Add([]byte{})
	f.Add(make([]byte, k.CiphertextSize()))

	f.Fuzz(func(t *testing.T, data []byte) {
		ss, err := k.Decapsulate(kp.SecretKey, data)
		if err != nil {
			return
		}
		if len(ss) != k.SharedSecretSize() {
			t.Errorf("unexpected shared secret length: %d", len(ss))
		}
	})
}

// FuzzX25519ParsePublicKey fuzzes X25519 public key parsing.
func FuzzX25519ParsePublicKey(f *testing.F) {
	kp, err := crypto.GenerateX25519KeyPair(nil)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(kp.PublicKeyBytes())

	f.Add([]byte{})
	f.Add(make([]byte, 31))
	f.Add(make([]byte, 32))
	f.Add(make([]byte, 33))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = crypto.ParseX25519PublicKey(data)
	})
}

// FuzzDeriveKey fuzzes the KDF with arbitrary inputs.
func FuzzDeriveKey(f *testing.F) {
	f.Add("domain", []byte("input"))
	f.Add("", []byte{})
	f.Add("test-domain-separator", make([]byte, 1000))

	f.Fuzz(func(t *testing.T, domain string, input []byte) {
		key, err := crypto.DeriveKey(domain, input, constants.KDFOutputSize)
		if err != nil {
			return
		}
		if len(key) != constants.KDFOutputSize {
			t.Errorf("unexpected key length: %d", len(key))
		}
	})
}
