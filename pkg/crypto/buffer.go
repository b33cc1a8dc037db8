package crypto

import (
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
)

// Buffer is a byte sequence with a fixed capacity and a logical length.
//
// It replaces the raw (length, max, pointer) triples of C-style APIs: the
// capacity is set once at construction and writes beyond it fail with
// ErrInvalidLength instead of growing the backing array.
type Buffer struct {
	data []byte
	n    int
}

// NewBuffer returns an empty buffer able to hold capacity bytes.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, capacity)}
}

// BufferFrom returns a full buffer holding a copy of b.
func BufferFrom(b []byte) *Buffer {
	buf := NewBuffer(len(b))
	buf.n = copy(buf.data, b)
	return buf
}

// Len returns the logical length.
func (b *Buffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Remaining returns how many more bytes fit.
func (b *Buffer) Remaining() int { return len(b.data) - b.n }

// Bytes returns the logical contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Write appends p, failing without a partial write if p does not fit.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > b.Remaining() {
		return 0, qerrors.NewCryptoError("Buffer.Write", qerrors.ErrInvalidLength)
	}
	copy(b.data[b.n:], p)
	b.n += len(p)
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

// SetLen sets the logical length; n must not exceed the capacity.
func (b *Buffer) SetLen(n int) error {
	if n < 0 || n > len(b.data) {
		return qerrors.NewCryptoError("Buffer.SetLen", qerrors.ErrInvalidLength)
	}
	b.n = n
	return nil
}

// Reset empties the buffer and zeroes its contents.
func (b *Buffer) Reset() {
	Zeroize(b.data)
	b.n = 0
}

// RequireLen returns ErrInvalidLength, wrapped with op, unless len(b) == n.
func RequireLen(op string, b []byte, n int) error {
	if len(b) != n {
		return qerrors.NewCryptoError(op, qerrors.ErrInvalidLength)
	}
	return nil
}

// RequireBlockAligned returns ErrInvalidLength unless len(b) is a non-negative
// multiple of blockSize.
func RequireBlockAligned(op string, b []byte, blockSize int) error {
	if blockSize <= 0 || len(b)%blockSize != 0 {
		return qerrors.NewCryptoError(op, qerrors.ErrInvalidLength)
	}
	return nil
}
