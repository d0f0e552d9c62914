package jwe

import (
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
)

// ErrUnsupportedCriticalHeader means the "crit" parameter names a
// header the consumer doesn't recognize.
var ErrUnsupportedCriticalHeader = errors.New("jwe: unsupported critical header parameter")

// ErrUnsupportedCompression means the "zip" parameter names an unknown
// compression algorithm.
var ErrUnsupportedCompression = errors.New("jwe: unsupported compression algorithm")

// ErrPolicyViolation means a header parameter is outside the consumer's
// configured limits.
var ErrPolicyViolation = errors.New("jwe: policy violation")

// defaultMaxPBES2Count caps the PBES2 iteration count a consumer will
// run; it defends against decryption-time resource exhaustion.
const defaultMaxPBES2Count = 1000000

// AlgorithmVerifier restricts the key management algorithms a consumer
// accepts. It is evaluated before any key is bound to the message.
type AlgorithmVerifier interface {
	VerifyAlgorithm(ctx context.Context, alg jwa.KeyManagementAlgorithm) error
}

// AllowedAlgorithms is an AlgorithmVerifier that accepts the listed
// algorithms only.
type AllowedAlgorithms []jwa.KeyManagementAlgorithm

func (a AllowedAlgorithms) VerifyAlgorithm(ctx context.Context, alg jwa.KeyManagementAlgorithm) error {
	for _, allowed := range a {
		if alg == allowed {
			return nil
		}
	}
	return fmt.Errorf("jwe: key management algorithm %q is not allowed: %w", alg.String(), jwa.ErrAlgorithmNotAllowed)
}

// ConstraintsVerifier adapts [jwa.Constraints] to AlgorithmVerifier.
type ConstraintsVerifier struct {
	Constraints *jwa.Constraints
}

func (v *ConstraintsVerifier) VerifyAlgorithm(ctx context.Context, alg jwa.KeyManagementAlgorithm) error {
	return v.Constraints.Check(alg.KeyAlgorithm())
}

// UnsecureAnyAlgorithm is an AlgorithmVerifier that accepts any
// algorithm. Do not use it outside tests.
var UnsecureAnyAlgorithm = unsecureAnyAlgorithmVerifier{}

type unsecureAnyAlgorithmVerifier struct{}

func (unsecureAnyAlgorithmVerifier) VerifyAlgorithm(ctx context.Context, alg jwa.KeyManagementAlgorithm) error {
	return nil
}

// decryptOptions is the opts value handed to the key management
// algorithms on unwrap. It exposes the protected header's parameters
// plus the CEK size contract of the content encryption algorithm.
type decryptOptions struct {
	*Header
	cekSize int
}

func (o *decryptOptions) ContentEncryptionKeySize() int {
	return o.cekSize
}

// Decrypter consumes JWE messages.
type Decrypter struct {
	_NamedFieldsRequired struct{}

	AlgorithmVerifier AlgorithmVerifier
	KeyWrapperFinder  KeyWrapperFinder

	// Registry resolves the content encryption algorithm; nil means
	// [jwa.Default].
	Registry *jwa.Registry

	// KnownCriticalHeaders extends the set of header parameters the
	// consumer acknowledges for "crit" beyond those this package
	// understands.
	KnownCriticalHeaders []string

	// MaxPBES2Count caps the "p2c" header parameter.
	// Zero means the default of one million.
	MaxPBES2Count int
}

// Decrypt authenticates and decrypts the message.
//
// The tag is verified before any plaintext is released, and every
// authenticity failure surfaces as [ErrDecryptFailed] with no further
// distinction.
func (d *Decrypter) Decrypt(ctx context.Context, msg *Message) (plaintext []byte, err error) {
	_ = d._NamedFieldsRequired
	if d.AlgorithmVerifier == nil || d.KeyWrapperFinder == nil {
		return nil, errors.New("jwe: decrypter is not configured")
	}
	h := msg.protected
	if h == nil {
		return nil, ErrMalformed
	}
	if h.alg == "" || h.enc == "" {
		return nil, ErrMalformed
	}

	if err := d.checkCritical(h); err != nil {
		return nil, err
	}
	if zip := h.CompressionAlgorithm(); zip != "" && zip != jwa.DEF {
		return nil, fmt.Errorf("jwe: compression algorithm %q: %w", zip.String(), ErrUnsupportedCompression)
	}

	// policy checks run before any cryptographic work.
	maxCount := d.MaxPBES2Count
	if maxCount == 0 {
		maxCount = defaultMaxPBES2Count
	}
	if h.p2c > maxCount {
		return nil, fmt.Errorf("jwe: the parameter p2c is over the limit %d: %w", maxCount, ErrPolicyViolation)
	}

	// algorithm constraints run before key binding.
	if err := d.AlgorithmVerifier.VerifyAlgorithm(ctx, h.alg); err != nil {
		return nil, err
	}

	registry := d.Registry
	if registry == nil {
		registry = jwa.Default
	}
	encAlg, err := registry.EncryptionAlgorithm(h.enc)
	if err != nil {
		return nil, err
	}

	kw, err := d.KeyWrapperFinder.FindKeyWrapper(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to resolve the key: %w", err)
	}

	opts := &decryptOptions{
		Header:  h,
		cekSize: encAlg.CEKSize(),
	}
	cek, err := kw.UnwrapKey(msg.encryptedKey, opts)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	plaintext, err = encAlg.Decrypt(cek, msg.iv, msg.b64protected, msg.ciphertext, msg.tag)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	if h.CompressionAlgorithm() == jwa.DEF {
		plaintext, err = inflate(plaintext)
		if err != nil {
			return nil, fmt.Errorf("jwe: failed to decompress content: %w", err)
		}
	}
	return plaintext, nil
}

// DecryptCompact parses data and decrypts it in one step.
func (d *Decrypter) DecryptCompact(ctx context.Context, data []byte) (plaintext []byte, err error) {
	msg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return d.Decrypt(ctx, msg)
}

func (d *Decrypter) checkCritical(h *Header) error {
CRIT_LOOP:
	for _, param := range h.crit {
		for _, known := range knownParams {
			if param == known {
				continue CRIT_LOOP
			}
		}
		for _, known := range d.KnownCriticalHeaders {
			if param == known {
				continue CRIT_LOOP
			}
		}
		return fmt.Errorf("jwe: unknown parameter %q is in crit: %w", param, ErrUnsupportedCriticalHeader)
	}
	return nil
}

func inflate(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)))
	r := flate.NewReader(bytes.NewReader(data))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
