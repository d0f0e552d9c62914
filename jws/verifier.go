package jws

import (
	"context"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
)

// ErrUnsupportedCriticalHeader means the "crit" parameter names a
// header the consumer doesn't recognize.
var ErrUnsupportedCriticalHeader = errors.New("jws: unsupported critical header parameter")

// ErrDetachedPayload means the message has a detached payload and the
// verifier is not configured to accept one.
var ErrDetachedPayload = errors.New("jws: detached payload is not allowed")

// AlgorithmVerifier restricts the signing algorithms a consumer accepts.
// It is evaluated before any key is bound to the message.
type AlgorithmVerifier interface {
	VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error
}

// AllowedAlgorithms is an AlgorithmVerifier that accepts the listed
// algorithms only.
type AllowedAlgorithms []jwa.SignatureAlgorithm

func (a AllowedAlgorithms) VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error {
	for _, allowed := range a {
		if alg == allowed {
			return nil
		}
	}
	return fmt.Errorf("jws: signing algorithm %q is not allowed: %w", alg.String(), jwa.ErrAlgorithmNotAllowed)
}

// ConstraintsVerifier adapts [jwa.Constraints] to AlgorithmVerifier.
type ConstraintsVerifier struct {
	Constraints *jwa.Constraints
}

func (v *ConstraintsVerifier) VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error {
	return v.Constraints.Check(alg.KeyAlgorithm())
}

// UnsecureAnyAlgorithm is an AlgorithmVerifier that accepts any
// algorithm. Do not use it outside tests.
var UnsecureAnyAlgorithm = unsecureAnyAlgorithmVerifier{}

type unsecureAnyAlgorithmVerifier struct{}

func (unsecureAnyAlgorithmVerifier) VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error {
	return nil
}

// Verifier verifies JWS messages.
type Verifier struct {
	_NamedFieldsRequired struct{}

	AlgorithmVerifier AlgorithmVerifier
	KeyFinder         KeyFinder

	// KnownCriticalHeaders extends the set of header parameters the
	// consumer acknowledges for "crit" beyond those this package
	// understands.
	KnownCriticalHeaders []string

	// AllowDetachedPayload accepts messages parsed from the detached
	// compact serialization, once their payload has been supplied.
	AllowDetachedPayload bool
}

// Verify verifies the message and returns its protected header and
// authenticated payload. The payload is never returned unless the
// signature verifies.
func (v *Verifier) Verify(ctx context.Context, msg *Message) (protected *Header, payload []byte, err error) {
	_ = v._NamedFieldsRequired
	if v.AlgorithmVerifier == nil || v.KeyFinder == nil {
		return nil, nil, errors.New("jws: verifier is not configured")
	}
	if msg.protected == nil || msg.signature == nil {
		return nil, nil, errors.New("jws: message has no signature")
	}
	if msg.detached {
		return nil, nil, errors.New("jws: the payload of the detached message is not supplied")
	}

	// the "none" algorithm is never acceptable; a signature is required.
	if msg.protected.alg == jwa.None || msg.protected.alg == "" {
		return nil, nil, ErrVerifyFailed
	}

	// critical headers must be acknowledged before anything else is
	// trusted.
	if err := v.checkCritical(msg.protected); err != nil {
		return nil, nil, err
	}

	// algorithm constraints run before key binding.
	if err := v.AlgorithmVerifier.VerifyAlgorithm(ctx, msg.protected.alg); err != nil {
		return nil, nil, err
	}

	key, err := v.KeyFinder.FindKey(ctx, msg.protected)
	if err != nil {
		return nil, nil, fmt.Errorf("jws: failed to resolve the key: %w", err)
	}

	buf := make([]byte, 0, len(msg.rawProtected)+len(msg.payload)+1)
	buf = append(buf, msg.rawProtected...)
	buf = append(buf, '.')
	buf = append(buf, msg.payload...)
	if err := key.Verify(buf, msg.signature); err != nil {
		return nil, nil, ErrVerifyFailed
	}

	payload, err = msg.UnverifiedPayload()
	if err != nil {
		return nil, nil, ErrVerifyFailed
	}
	return msg.protected, payload, nil
}

// VerifyCompact parses data and verifies it in one step.
// detachedPayload, if non-nil, supplies the encoded payload of a
// detached message.
func (v *Verifier) VerifyCompact(ctx context.Context, data, detachedPayload []byte) (protected *Header, payload []byte, err error) {
	msg, err := ParseCompact(data)
	if err != nil {
		return nil, nil, err
	}
	if detachedPayload != nil {
		if !msg.detached {
			return nil, nil, errors.New("jws: message payload is not detached")
		}
		if !v.AllowDetachedPayload {
			return nil, nil, ErrDetachedPayload
		}
		msg.SetEncodedPayload(detachedPayload)
	}
	return v.Verify(ctx, msg)
}

func (v *Verifier) checkCritical(h *Header) error {
CRIT_LOOP:
	for _, param := range h.crit {
		for _, known := range knownParams {
			if param == known {
				continue CRIT_LOOP
			}
		}
		for _, known := range v.KnownCriticalHeaders {
			if param == known {
				continue CRIT_LOOP
			}
		}
		return fmt.Errorf("jws: unknown parameter %q is in crit: %w", param, ErrUnsupportedCriticalHeader)
	}
	return nil
}
