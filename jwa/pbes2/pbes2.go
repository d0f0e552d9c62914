// Package pbes2 provides the PBES2 with HMAC SHA-2 and AES Key Wrap
// key management algorithms.
package pbes2

import (
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwa/akw"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
)

const (
	// minSaltInputSize is the minimum p2s length RFC 7518 requires.
	minSaltInputSize = 8

	// defaultSaltInputSize is the p2s length drawn for new messages.
	defaultSaltInputSize = 32

	// defaultCount is the p2c used for new messages.
	defaultCount = 10000

	// maxCount bounds p2c on unwrap. The consumer-facing policy knob
	// lives on the JWE decrypter; this in-package ceiling guards
	// direct users of the wrapper against resource-exhaustion inputs.
	maxCount = 10000000
)

var hs256a128 = &algorithm{
	name: string(jwa.PBES2_HS256_A128KW),
	hash: crypto.SHA256.New,
	size: 16,
}

// NewHS256A128KW returns the PBES2-HS256+A128KW key management algorithm.
func NewHS256A128KW() keymanage.Algorithm {
	return hs256a128
}

var hs384a192 = &algorithm{
	name: string(jwa.PBES2_HS384_A192KW),
	hash: crypto.SHA384.New,
	size: 24,
}

// NewHS384A192KW returns the PBES2-HS384+A192KW key management algorithm.
func NewHS384A192KW() keymanage.Algorithm {
	return hs384a192
}

var hs512a256 = &algorithm{
	name: string(jwa.PBES2_HS512_A256KW),
	hash: crypto.SHA512.New,
	size: 32,
}

// NewHS512A256KW returns the PBES2-HS512+A256KW key management algorithm.
func NewHS512A256KW() keymanage.Algorithm {
	return hs512a256
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.PBES2_HS256_A128KW, NewHS256A128KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.PBES2_HS384_A192KW, NewHS384A192KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.PBES2_HS512_A256KW, NewHS512A256KW)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

type algorithm struct {
	name string
	hash func() hash.Hash
	size int
}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
// The private key is the password octets.
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	password, ok := privateKey.([]byte)
	if !ok {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("pbes2: invalid private key type: %T", privateKey))
	}
	return &keyWrapper{
		alg:       alg,
		password:  password,
		canDerive: jwktypes.CanUseFor(key, jwktypes.KeyOpDeriveKey),
	}
}

var _ keymanage.KeyWrapper = (*keyWrapper)(nil)

type keyWrapper struct {
	alg       *algorithm
	password  []byte
	canDerive bool
}

type pbes2SaltInputGetter interface {
	PBES2SaltInput() []byte
}

type pbes2SaltInputSetter interface {
	SetPBES2SaltInput(p2s []byte)
}

type pbes2CountGetter interface {
	PBES2Count() int
}

type pbes2CountSetter interface {
	SetPBES2Count(p2c int)
}

// deriveKEK derives the key encryption key as
// PBKDF2(password, alg-id || 0x00 || p2s, p2c, hash) of the inner AES
// key wrap size.
func (w *keyWrapper) deriveKEK(p2s []byte, p2c int) []byte {
	name := w.alg.name
	salt := make([]byte, 0, len(name)+len(p2s)+1)
	salt = append(salt, name...)
	salt = append(salt, '\x00')
	salt = append(salt, p2s...)
	return pbkdf2.Key(w.password, salt, p2c, w.alg.size, w.alg.hash)
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
// Missing p2s and p2c header parameters are generated and published
// through the setters on opts.
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, errors.New("pbes2: key derive operation is not allowed")
	}

	var p2s []byte
	if getter, ok := opts.(pbes2SaltInputGetter); ok {
		p2s = getter.PBES2SaltInput()
	}
	if p2s == nil {
		setter, ok := opts.(pbes2SaltInputSetter)
		if !ok {
			return nil, errors.New("pbes2: neither PBES2SaltInput nor SetPBES2SaltInput found")
		}
		p2s = make([]byte, defaultSaltInputSize)
		if _, err := rand.Read(p2s); err != nil {
			return nil, fmt.Errorf("pbes2: failed to initialize p2s: %w", err)
		}
		setter.SetPBES2SaltInput(p2s)
	}
	if len(p2s) < minSaltInputSize {
		return nil, fmt.Errorf("pbes2: p2s must be at least %d octets", minSaltInputSize)
	}

	var p2c int
	if getter, ok := opts.(pbes2CountGetter); ok {
		p2c = getter.PBES2Count()
	}
	if p2c == 0 {
		setter, ok := opts.(pbes2CountSetter)
		if !ok {
			return nil, errors.New("pbes2: neither PBES2Count nor SetPBES2Count found")
		}
		p2c = defaultCount
		setter.SetPBES2Count(p2c)
	}
	if p2c < 0 {
		return nil, errors.New("pbes2: p2c must be positive")
	}

	kek := w.deriveKEK(p2s, p2c)
	data, err := akw.NewKeyWrapper(kek).WrapKey(cek, opts)
	if err != nil {
		return nil, fmt.Errorf("pbes2: failed to wrap key: %w", err)
	}
	return data, nil
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, errors.New("pbes2: key derive operation is not allowed")
	}

	saltGetter, ok := opts.(pbes2SaltInputGetter)
	if !ok {
		return nil, errors.New("pbes2: PBES2SaltInput not found")
	}
	countGetter, ok := opts.(pbes2CountGetter)
	if !ok {
		return nil, errors.New("pbes2: PBES2Count not found")
	}
	p2s := saltGetter.PBES2SaltInput()
	p2c := countGetter.PBES2Count()
	if len(p2s) < minSaltInputSize {
		return nil, fmt.Errorf("pbes2: p2s must be at least %d octets", minSaltInputSize)
	}
	if p2c <= 0 {
		return nil, errors.New("pbes2: p2c must be positive")
	}
	if p2c > maxCount {
		return nil, fmt.Errorf("pbes2: p2c is over the limit %d", maxCount)
	}

	kek := w.deriveKEK(p2s, p2c)
	cek, err := akw.NewKeyWrapper(kek).UnwrapKey(data, opts)
	if err != nil {
		return nil, fmt.Errorf("pbes2: failed to unwrap key: %w", err)
	}
	return cek, nil
}
