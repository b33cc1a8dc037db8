// Package sealed combines an envelope with a BLS signature.
//
// A sender encrypts to the recipient's KEM public key and signs the
// resulting transcript with its BLS secret key:
//
//	env ← envelope(KEM, suite, plaintext, recipientPK)
//	sig ← BLS.Sign(transcript(env), senderSK)
//
// The recipient checks the signature against the sender's BLS public key
// before touching the encapsulated key, so forged or modified messages are
// rejected with ErrVerifyFailed and never reach decapsulation.
//
// Example:
//
//	alice, _ := sealed.GenerateIdentity(nil, "")
//	bob, _ := sealed.GenerateIdentity(nil, "")
//
//	s, _ := sealed.NewSealer(sealed.DefaultConfig())
//	m, _ := s.Seal(ctx, []byte("hello"), bob.PublicKey(), alice.SigningKey)
//	pt, _ := s.Open(ctx, m, bob.KEMKeys.SecretKey, alice.VerifyKey)
package sealed

import (
	"context"
	"io"

	"github.com/pzverkov/quantum-envelope/internal/constants"
	qerrors "github.com/pzverkov/quantum-envelope/internal/errors"
	"github.com/pzverkov/quantum-envelope/pkg/bls"
	"github.com/pzverkov/quantum-envelope/pkg/crypto"
	"github.com/pzverkov/quantum-envelope/pkg/envelope"
	"github.com/pzverkov/quantum-envelope/pkg/metrics"
)

// Config holds the parameters of a Sealer.
type Config struct {
	// KEM names the key encapsulation suite (see constants.KEM*).
	// Default: ML-KEM-1024
	KEM string

	// Suite is the symmetric cipher. AES-256-CBC gives the classic
	// unauthenticated envelope; the AEAD suites authenticate the ciphertext
	// and the message header.
	// Default: AES-256-GCM
	Suite constants.CipherSuite

	// PadPlaintext applies PKCS#7 padding under AES-256-CBC so plaintext of
	// any length can be sealed. Without it CBC plaintext must be a multiple
	// of 16 bytes. Ignored for AEAD suites.
	// Default: true
	PadPlaintext bool

	// SelfTest configures conditional self-tests on fresh IVs.
	SelfTest crypto.CSTConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KEM:          constants.DefaultKEM,
		Suite:        constants.CipherSuiteAES256GCM,
		PadPlaintext: true,
		SelfTest:     crypto.DefaultCSTConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := envelope.KEMByName(c.KEM); err != nil {
		return err
	}
	if !c.Suite.IsSupported() || !crypto.SuiteAllowed(c.Suite) {
		return qerrors.NewCryptoError("sealed.Config", qerrors.ErrUnsupportedCipherSuite)
	}
	return nil
}

// Option configures a Sealer.
type Option func(*options)

type options struct {
	logger    *metrics.Logger
	collector *metrics.Collector
	tracer    metrics.Tracer
	rand      io.Reader
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *metrics.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCollector sets the metrics collector. Default: a private collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithTracer sets the tracer. Default: metrics.NoOpTracer.
func WithTracer(t metrics.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithRand sets the randomness source for IVs and encapsulation.
// Default: the OS CSPRNG.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

// Sealer seals and opens messages under a fixed KEM and cipher suite.
// It is safe for concurrent use unless a non-concurrent reader such as
// crypto.Rand is passed to WithRand.
type Sealer struct {
	cfg      Config
	kem      crypto.KEM
	rng      io.Reader
	observer *metrics.Observer
	selfTest *crypto.SelfTester
}

// NewSealer validates cfg and returns a Sealer.
func NewSealer(cfg Config, opts ...Option) (*Sealer, error) {
	if cfg.KEM == "" {
		cfg.KEM = constants.DefaultKEM
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := envelope.KEMByName(cfg.KEM)
	if err != nil {
		return nil, err
	}

	o := options{rand: crypto.Reader}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = crypto.Reader
	}

	return &Sealer{
		cfg: cfg,
		kem: k,
		rng: o.rand,
		observer: metrics.NewObserver(metrics.ObserverConfig{
			Collector: o.collector,
			Tracer:    o.tracer,
			Logger:    o.logger,
			KEM:       k.Name(),
			Suite:     cfg.Suite.String(),
		}),
		selfTest: crypto.NewSelfTester(cfg.SelfTest),
	}, nil
}

// Config returns the sealer's configuration.
func (s *Sealer) Config() Config {
	return s.cfg
}

// KEM returns the sealer's key encapsulation mechanism.
func (s *Sealer) KEM() crypto.KEM {
	return s.kem
}

// Collector returns the collector the sealer reports into.
func (s *Sealer) Collector() *metrics.Collector {
	return s.observer.Collector()
}

// freshIV draws an IV (CBC) or nonce (AEAD) sized for the suite.
func (s *Sealer) freshIV() ([]byte, error) {
	n := constants.AESIVSize
	if s.cfg.Suite.IsAEAD() {
		n = constants.AESNonceSize
	}
	iv := make([]byte, n)
	if _, err := io.ReadFull(s.rng, iv); err != nil {
		return nil, qerrors.NewCryptoError("sealed.Seal", err)
	}
	if err := s.selfTest.CheckRandom(iv); err != nil {
		return nil, qerrors.NewCryptoError("sealed.Seal", err)
	}
	return iv, nil
}

// Seal encrypts plaintext to recipientPublicKey and signs the result with
// signer.
func (s *Sealer) Seal(ctx context.Context, plaintext, recipientPublicKey []byte, signer *bls.SecretKey) (m *Message, err error) {
	ctx, done := s.observer.OnSeal(ctx, len(plaintext))
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, qerrors.NewCryptoError("sealed.Seal", qerrors.ErrInvalidPrivateKey)
	}

	iv, err := s.freshIV()
	if err != nil {
		return nil, err
	}

	m = &Message{
		Version: Current,
		KEM:     s.kem.Name(),
	}
	m.Envelope.Suite = s.cfg.Suite

	env, err := s.encrypt(ctx, m, plaintext, iv, recipientPublicKey)
	if err != nil {
		return nil, err
	}
	m.Envelope = *env

	_, signDone := s.observer.OnSign(ctx)
	m.Signature = bls.Sign(m.Transcript(), signer)
	signDone(nil)

	return m, nil
}

func (s *Sealer) encrypt(ctx context.Context, m *Message, plaintext, iv, recipientPublicKey []byte) (env *envelope.Envelope, err error) {
	_, end := s.observer.OnEncapsulate(ctx)
	defer func() { end(err) }()

	if s.cfg.Suite.IsAEAD() {
		return envelope.SealEnvelope(s.kem, s.cfg.Suite, plaintext, iv, m.header(), recipientPublicKey, s.rng)
	}

	if s.cfg.PadPlaintext {
		padded := envelope.Pad(plaintext)
		defer crypto.Zeroize(padded)
		plaintext = padded
	}
	return envelope.EncryptEnvelope(s.kem, plaintext, iv, recipientPublicKey, s.rng)
}

// Open verifies m against sender and decrypts it with recipientSecretKey.
// The signature is checked first: a message that fails verification is
// rejected with ErrVerifyFailed before any decapsulation.
func (s *Sealer) Open(ctx context.Context, m *Message, recipientSecretKey []byte, sender *bls.PublicKey) (plaintext []byte, err error) {
	ctx, done := s.observer.OnOpen(ctx)
	defer func() { done(len(plaintext), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, qerrors.NewCryptoError("sealed.Open", qerrors.ErrInvalidMessage)
	}
	if err := m.Validate(); err != nil {
		s.observer.OnDecodingError(err)
		return nil, err
	}
	if m.KEM != s.kem.Name() {
		return nil, qerrors.NewCryptoError("sealed.Open", qerrors.ErrUnsupportedKEM)
	}
	if m.Envelope.Suite != s.cfg.Suite {
		return nil, qerrors.NewCryptoError("sealed.Open", qerrors.ErrUnsupportedCipherSuite)
	}

	_, verifyDone := s.observer.OnVerify(ctx)
	err = bls.Verify(m.Transcript(), sender, m.Signature)
	verifyDone(err)
	if err != nil {
		return nil, err
	}

	return s.decrypt(ctx, m, recipientSecretKey)
}

func (s *Sealer) decrypt(ctx context.Context, m *Message, recipientSecretKey []byte) (pt []byte, err error) {
	_, end := s.observer.OnDecapsulate(ctx)
	defer func() { end(err) }()

	if m.Envelope.Suite.IsAEAD() {
		return envelope.OpenEnvelope(s.kem, &m.Envelope, m.header(), recipientSecretKey)
	}

	pt, err = envelope.DecryptEnvelope(s.kem, &m.Envelope, recipientSecretKey)
	if err != nil || !s.cfg.PadPlaintext {
		return pt, err
	}
	unpadded, err := envelope.Unpad(pt)
	if err != nil {
		crypto.Zeroize(pt)
		return nil, err
	}
	return unpadded, nil
}

// SealBytes is Seal followed by MarshalBinary.
func (s *Sealer) SealBytes(ctx context.Context, plaintext, recipientPublicKey []byte, signer *bls.SecretKey) ([]byte, error) {
	m, err := s.Seal(ctx, plaintext, recipientPublicKey, signer)
	if err != nil {
		return nil, err
	}
	return m.MarshalBinary()
}

// OpenBytes decodes an encoded message and opens it. Malformed input is
// counted as a decoding error.
func (s *Sealer) OpenBytes(ctx context.Context, data, recipientSecretKey []byte, sender *bls.PublicKey) ([]byte, error) {
	m, err := UnmarshalMessage(data)
	if err != nil {
		s.observer.OnDecodingError(err)
		return nil, err
	}
	return s.Open(ctx, m, recipientSecretKey, sender)
}
