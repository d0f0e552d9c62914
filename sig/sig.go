// Package sig provides the interface of signature algorithms.
package sig

import (
	"crypto"
	"errors"
	"reflect"
)

// Key provides the key material for signing and verifying.
// It is implemented by [github.com/josekit/jose/jwk.Key], but any
// opaque key handle that can expose its crypto keys works, too.
type Key interface {
	PrivateKey() crypto.PrivateKey
	PublicKey() crypto.PublicKey
}

// Algorithm is an algorithm for signing.
type Algorithm interface {
	// NewSigningKey returns a new key for signing.
	NewSigningKey(key Key) SigningKey
}

// SigningKey is a key bound to an algorithm, ready for signing and
// verifying.
type SigningKey interface {
	Sign(signingInput []byte) (signature []byte, err error)
	Verify(signingInput, signature []byte) error
}

// ErrHashUnavailable means the hash function is not linked into the binary.
var ErrHashUnavailable = errors.New("sig: hash is unavailable")

// ErrSignUnavailable means the sign operation is not available for the key.
var ErrSignUnavailable = errors.New("sig: sign operation is unavailable")

// ErrSignatureMismatch is a signature mismatch error.
var ErrSignatureMismatch = errors.New("sig: signature mismatch")

// ErrAlgorithmKeyMismatch means the key type is incompatible with the
// named algorithm.
var ErrAlgorithmKeyMismatch = errors.New("sig: key type is incompatible with the algorithm")

type invalidKey struct {
	alg            string
	privateKeyType reflect.Type
	publicKeyType  reflect.Type
}

// NewInvalidKey returns a new key that fails all Sign and Verify
// operations with an error that matches [ErrAlgorithmKeyMismatch].
func NewInvalidKey(alg string, privateKey, publicKey any) SigningKey {
	return &invalidKey{
		alg:            alg,
		privateKeyType: reflect.TypeOf(privateKey),
		publicKeyType:  reflect.TypeOf(publicKey),
	}
}

// Sign implements SigningKey.
func (key *invalidKey) Sign(signingInput []byte) (signature []byte, err error) {
	return nil, key
}

// Verify implements SigningKey.
func (key *invalidKey) Verify(signingInput, signature []byte) error {
	return key
}

// Error implements error.
func (key *invalidKey) Error() string {
	priv := "nil"
	if key.privateKeyType != nil {
		priv = key.privateKeyType.String()
	}
	pub := "nil"
	if key.publicKeyType != nil {
		pub = key.publicKeyType.String()
	}
	return "sig: invalid key type for algorithm " + key.alg + ": " + priv + ", " + pub
}

// Is implements the interface used by [errors.Is].
func (key *invalidKey) Is(target error) bool {
	return target == ErrAlgorithmKeyMismatch
}

type errKey struct {
	err error
}

// NewErrorKey returns a new key that fails all Sign and Verify
// operations with err.
func NewErrorKey(err error) SigningKey {
	return &errKey{
		err: err,
	}
}

// Sign implements SigningKey.
func (key *errKey) Sign(signingInput []byte) (signature []byte, err error) {
	return nil, key.err
}

// Verify implements SigningKey.
func (key *errKey) Verify(signingInput, signature []byte) error {
	return key.err
}
