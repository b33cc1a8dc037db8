package envelope

import (
	"bytes"
	"crypto/subtle"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// Pad appends PKCS#7 padding up to the next 16-byte boundary. A full block
// of padding is added when data is already aligned.
func Pad(data []byte) []byte {
	n := constants.AESBlockSize - len(data)%constants.AESBlockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// Unpad strips PKCS#7 padding. The padding bytes are checked without
// branching on their values.
func Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%constants.AESBlockSize != 0 {
		return nil, qerrors.NewCryptoError("envelope.Unpad", qerrors.ErrInvalidLength)
	}

	n := int(data[len(data)-1])
	if n == 0 || n > constants.AESBlockSize {
		return nil, qerrors.NewCryptoError("envelope.Unpad", qerrors.ErrInvalidPadding)
	}

	good := 1
	for _, b := range data[len(data)-n:] {
		good &= subtle.ConstantTimeByteEq(b, byte(n))
	}
	if good != 1 {
		return nil, qerrors.NewCryptoError("envelope.Unpad", qerrors.ErrInvalidPadding)
	}
	return data[:len(data)-n], nil
}
