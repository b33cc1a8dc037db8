// cbc.go implements AES-256 in cipher block chaining mode.
//
// Each block is chained to the previous ciphertext block, starting from the IV:
//
//	C_0 = E_K(P_0 XOR IV)
//	C_i = E_K(P_i XOR C_{i-1})
//
// No padding is applied. Inputs must already be a multiple of the block
// size; anything else is rejected with ErrInvalidLength. CBC provides no
// integrity, see aead.go for the authenticated alternative.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// newAES256 returns the AES block cipher for a 32-byte key.
func newAES256(op string, key []byte) (cipher.Block, error) {
	if len(key) != constants.AESKeySize {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError(op, err)
	}
	return block, nil
}

func checkCBCInput(op string, iv, data []byte) error {
	if err := RequireLen(op, iv, constants.AESIVSize); err != nil {
		return err
	}
	return RequireBlockAligned(op, data, constants.AESBlockSize)
}

// CBCEncrypt encrypts plaintext with AES-256-CBC and returns a new slice.
// The input slice is not modified.
func CBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := newAES256("CBCEncrypt", key)
	if err != nil {
		return nil, err
	}
	if err := checkCBCInput("CBCEncrypt", iv, plaintext); err != nil {
		return nil, err
	}

	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)

	return out, nil
}

// CBCDecrypt decrypts ciphertext with AES-256-CBC and returns a new slice.
func CBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newAES256("CBCDecrypt", key)
	if err != nil {
		return nil, err
	}
	if err := checkCBCInput("CBCDecrypt", iv, ciphertext); err != nil {
		return nil, err
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)

	return out, nil
}
