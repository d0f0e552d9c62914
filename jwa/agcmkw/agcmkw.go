// Package agcmkw provides the AES-GCM key wrapping algorithms.
package agcmkw

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
)

var a128gcmkw = &algorithm{
	keySize: 16,
}

// New128 returns the A128GCMKW key management algorithm.
func New128() keymanage.Algorithm {
	return a128gcmkw
}

var a192gcmkw = &algorithm{
	keySize: 24,
}

// New192 returns the A192GCMKW key management algorithm.
func New192() keymanage.Algorithm {
	return a192gcmkw
}

var a256gcmkw = &algorithm{
	keySize: 32,
}

// New256 returns the A256GCMKW key management algorithm.
func New256() keymanage.Algorithm {
	return a256gcmkw
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.A128GCMKW, New128)
	jwa.RegisterKeyManagementAlgorithm(jwa.A192GCMKW, New192)
	jwa.RegisterKeyManagementAlgorithm(jwa.A256GCMKW, New256)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

type algorithm struct {
	keySize int
}

type initializationVectorGetter interface {
	InitializationVector() []byte
}

type initializationVectorSetter interface {
	SetInitializationVector(iv []byte)
}

type authenticationTagGetter interface {
	AuthenticationTag() []byte
}

type authenticationTagSetter interface {
	SetAuthenticationTag(tag []byte)
}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	kek, ok := privateKey.([]byte)
	if !ok {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("agcmkw: invalid private key type: %T", privateKey))
	}
	if len(kek) != alg.keySize {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("agcmkw: invalid key size: %d-bit key is required, but it is %d-bit", alg.keySize*8, len(kek)*8))
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("agcmkw: failed to initialize cipher: %w", err))
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("agcmkw: failed to initialize gcm: %w", err))
	}
	return &keyWrapper{
		aead:      aead,
		canWrap:   jwktypes.CanUseFor(key, jwktypes.KeyOpWrapKey),
		canUnwrap: jwktypes.CanUseFor(key, jwktypes.KeyOpUnwrapKey),
	}
}

var _ keymanage.KeyWrapper = (*keyWrapper)(nil)

type keyWrapper struct {
	aead      cipher.AEAD
	canWrap   bool
	canUnwrap bool
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
// A fresh IV is drawn when the header carries none; the IV and the
// authentication tag are published through the setters on opts.
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if !w.canWrap {
		return nil, errors.New("agcmkw: key wrapping operation is not allowed")
	}

	var iv []byte
	if getter, ok := opts.(initializationVectorGetter); ok {
		iv = getter.InitializationVector()
	}
	if len(iv) == 0 {
		setter, ok := opts.(initializationVectorSetter)
		if !ok {
			return nil, errors.New("agcmkw: neither InitializationVector nor SetInitializationVector found")
		}
		iv = make([]byte, w.aead.NonceSize())
		if _, err := rand.Read(iv); err != nil {
			return nil, fmt.Errorf("agcmkw: failed to initialize iv: %w", err)
		}
		setter.SetInitializationVector(iv)
	}
	if len(iv) != w.aead.NonceSize() {
		return nil, errors.New("agcmkw: invalid size of iv")
	}
	tagSetter, ok := opts.(authenticationTagSetter)
	if !ok {
		return nil, errors.New("agcmkw: SetAuthenticationTag not found")
	}

	buf := make([]byte, 0, len(cek)+w.aead.Overhead())
	data := w.aead.Seal(buf, iv, cek, nil)
	tagSetter.SetAuthenticationTag(data[len(cek):])
	return data[:len(cek)], nil
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canUnwrap {
		return nil, errors.New("agcmkw: key unwrapping operation is not allowed")
	}

	ivGetter, ok := opts.(initializationVectorGetter)
	if !ok {
		return nil, errors.New("agcmkw: InitializationVector not found")
	}
	tagGetter, ok := opts.(authenticationTagGetter)
	if !ok {
		return nil, errors.New("agcmkw: AuthenticationTag not found")
	}
	iv := ivGetter.InitializationVector()
	tag := tagGetter.AuthenticationTag()
	if len(iv) != w.aead.NonceSize() {
		return nil, errors.New("agcmkw: invalid size of iv")
	}

	buf := make([]byte, 0, len(data)+len(tag))
	buf = append(buf, data...)
	buf = append(buf, tag...)
	cek, err := w.aead.Open(buf[:0], iv, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("agcmkw: failed to decrypt CEK: %w", err)
	}
	return cek, nil
}
