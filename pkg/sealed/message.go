// message.go implements the wire format of a sealed message.
//
// Wire Format:
//
//	+------+--------+----------+
//	| Type | Length | Payload  |
//	| 1B   | 4B BE  | Variable |
//	+------+--------+----------+
//
// Length is big-endian uint32, not including header bytes.
//
// Sealed payload:
//
//	+---------+-------+-----------+---------+-----------+------------+---------+-----------+
//	| Version | Suite | KEM name  | IV      | Encaps.   | Ciphertext | Tag     | Signature |
//	| 2B      | 2B BE | 1B + name | 1B + iv | 2B BE + k | 4B BE + ct | 1B + t  | 49B       |
//	+---------+-------+-----------+---------+-----------+------------+---------+-----------+
package sealed

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/bls"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/envelope"
)

// MessageType identifies an encoded message.
type MessageType uint8

// MessageTypeSealed marks a signed envelope.
const MessageTypeSealed MessageType = 0x01

// HeaderSize is 1 byte type + 4 bytes length.
const HeaderSize = 5

// MaxMessageSize bounds the payload of an encoded message.
const MaxMessageSize = constants.MaxMessageSize

// Version is the format version of a sealed message.
type Version struct {
	Major uint8
	Minor uint8
}

// Current is the version written by this package.
var Current = Version{Major: constants.FormatVersion, Minor: 0}

// Bytes returns the version as a 2-byte value.
func (v Version) Bytes() []byte {
	return []byte{v.Major, v.Minor}
}

// IsCompatible reports whether messages of version other can be read.
// Versions are compatible if they have the same major version.
func (v Version) IsCompatible(other Version) bool {
	return v.Major == other.Major
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Message is an envelope plus the sender's BLS signature over its transcript.
type Message struct {
	Version   Version
	KEM       string
	Envelope  envelope.Envelope
	Signature *bls.Signature
}

// header binds the message metadata. It is the AEAD additional data and the
// first component of the transcript.
func (m *Message) header() []byte {
	h := make([]byte, 0, 4+1+len(m.KEM))
	h = append(h, m.Version.Major, m.Version.Minor)
	h = binary.BigEndian.AppendUint16(h, uint16(m.Envelope.Suite))
	h = append(h, byte(len(m.KEM)))
	return append(h, m.KEM...)
}

// Transcript returns the value the sender signs:
//
//	SHA3-256(domain, header, iv, encapsulatedKey, ciphertext, tag)
//
// with every component length-prefixed.
func (m *Message) Transcript() []byte {
	return crypto.TranscriptHash(
		[]byte(constants.DomainSeparatorTranscript),
		m.header(),
		m.Envelope.IV,
		m.Envelope.EncapsulatedKey,
		m.Envelope.Ciphertext,
		m.Envelope.Tag,
	)
}

// Validate checks field sizes against the message's KEM and cipher suite.
func (m *Message) Validate() error {
	const op = "sealed.Message.Validate"

	if !Current.IsCompatible(m.Version) {
		return qerrors.NewCryptoError(op, qerrors.ErrUnsupportedVersion)
	}
	if len(m.KEM) == 0 || len(m.KEM) > 0xff {
		return qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}
	k, err := envelope.KEMByName(m.KEM)
	if err != nil {
		return qerrors.NewCryptoError(op, qerrors.ErrUnsupportedKEM)
	}

	env := &m.Envelope
	switch {
	case env.Suite == constants.CipherSuiteAES256CBC:
		if len(env.IV) != constants.AESIVSize || len(env.Tag) != 0 ||
			len(env.Ciphertext)%constants.AESBlockSize != 0 {
			return qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
		}
	case env.Suite.IsAEAD():
		if len(env.IV) != constants.AESNonceSize || len(env.Tag) != constants.AESTagSize {
			return qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
		}
	default:
		return qerrors.NewCryptoError(op, qerrors.ErrUnsupportedCipherSuite)
	}

	if len(env.EncapsulatedKey) != k.CiphertextSize() {
		return qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}
	if len(env.Ciphertext) > MaxMessageSize {
		return qerrors.NewCryptoError(op, qerrors.ErrMessageTooLarge)
	}
	if m.Signature == nil {
		return qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}
	return nil
}

func (m *Message) payloadSize() int {
	return 2 + 2 + // version, suite
		1 + len(m.KEM) +
		1 + len(m.Envelope.IV) +
		2 + len(m.Envelope.EncapsulatedKey) +
		4 + len(m.Envelope.Ciphertext) +
		1 + len(m.Envelope.Tag) +
		constants.BLSSignatureSize
}

// MarshalBinary encodes a valid message.
func (m *Message) MarshalBinary() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	payloadSize := m.payloadSize()
	if payloadSize > MaxMessageSize {
		return nil, qerrors.NewCryptoError("sealed.Message.MarshalBinary", qerrors.ErrMessageTooLarge)
	}

	buf := crypto.NewBuffer(HeaderSize + payloadSize)
	var scratch [4]byte

	// Header
	_ = buf.WriteByte(byte(MessageTypeSealed))
	binary.BigEndian.PutUint32(scratch[:], uint32(payloadSize))
	_, _ = buf.Write(scratch[:4])

	// Version, suite, KEM name
	_, _ = buf.Write(m.header())

	// IV (length-prefixed)
	_ = buf.WriteByte(byte(len(m.Envelope.IV)))
	_, _ = buf.Write(m.Envelope.IV)

	// Encapsulated key
	binary.BigEndian.PutUint16(scratch[:2], uint16(len(m.Envelope.EncapsulatedKey)))
	_, _ = buf.Write(scratch[:2])
	_, _ = buf.Write(m.Envelope.EncapsulatedKey)

	// Ciphertext
	binary.BigEndian.PutUint32(scratch[:], uint32(len(m.Envelope.Ciphertext)))
	_, _ = buf.Write(scratch[:4])
	_, _ = buf.Write(m.Envelope.Ciphertext)

	// Tag
	_ = buf.WriteByte(byte(len(m.Envelope.Tag)))
	_, _ = buf.Write(m.Envelope.Tag)

	// Signature
	if _, err := buf.Write(m.Signature.Bytes()); err != nil {
		return nil, err
	}
	if buf.Remaining() != 0 {
		return nil, qerrors.NewCryptoError("sealed.Message.MarshalBinary", qerrors.ErrInvalidLength)
	}

	return buf.Bytes(), nil
}

// decoder walks a payload, latching the first short read.
type decoder struct {
	data []byte
	off  int
	bad  bool
}

func (d *decoder) take(n int) []byte {
	if d.bad || n < 0 || len(d.data)-d.off < n {
		d.bad = true
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() int {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (d *decoder) u16() int {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return int(binary.BigEndian.Uint16(b))
}

func (d *decoder) u32() int {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return int(binary.BigEndian.Uint32(b))
}

// bytes copies a field so the message never aliases the input buffer.
func (d *decoder) bytes(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// UnmarshalMessage decodes and validates a sealed message. Trailing bytes
// after the declared payload are rejected.
func UnmarshalMessage(data []byte) (*Message, error) {
	const op = "sealed.UnmarshalMessage"

	if len(data) < HeaderSize {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}
	if MessageType(data[0]) != MessageTypeSealed {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}

	payloadLen := binary.BigEndian.Uint32(data[1:HeaderSize])
	if payloadLen > MaxMessageSize {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrMessageTooLarge)
	}
	if len(data) != HeaderSize+int(payloadLen) {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}

	d := &decoder{data: data[HeaderSize:]}
	m := &Message{}

	v := d.take(2)
	if v != nil {
		m.Version = Version{Major: v[0], Minor: v[1]}
	}
	m.Envelope.Suite = constants.CipherSuite(d.u16())
	m.KEM = string(d.take(d.u8()))
	m.Envelope.IV = d.bytes(d.u8())
	m.Envelope.EncapsulatedKey = d.bytes(d.u16())
	m.Envelope.Ciphertext = d.bytes(d.u32())
	if tagLen := d.u8(); tagLen > 0 {
		m.Envelope.Tag = d.bytes(tagLen)
	}
	sig := d.take(constants.BLSSignatureSize)

	if d.bad || d.off != len(d.data) {
		return nil, qerrors.NewCryptoError(op, qerrors.ErrInvalidMessage)
	}

	s, err := bls.ParseSignature(sig)
	if err != nil {
		return nil, err
	}
	m.Signature = s

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadMessage reads one complete encoded message from r.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	payloadLen := binary.BigEndian.Uint32(header[1:HeaderSize])
	if payloadLen > MaxMessageSize {
		return nil, qerrors.NewCryptoError("sealed.ReadMessage", qerrors.ErrMessageTooLarge)
	}

	msg := make([]byte, HeaderSize+int(payloadLen))
	copy(msg, header)
	if _, err := io.ReadFull(r, msg[HeaderSize:]); err != nil {
		return nil, err
	}
	return msg, nil
}
