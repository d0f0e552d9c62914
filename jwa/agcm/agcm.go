// Package agcm provides the AES-GCM content encryption algorithms.
package agcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"github.com/josekit/jose/enc"
	"github.com/josekit/jose/jwa"
)

const (
	ivSize  = 12
	tagSize = 16
)

var a128gcm = &algorithm{
	keyLen: 16,
}

// New128 returns the A128GCM content encryption algorithm.
func New128() enc.Algorithm {
	return a128gcm
}

var a192gcm = &algorithm{
	keyLen: 24,
}

// New192 returns the A192GCM content encryption algorithm.
func New192() enc.Algorithm {
	return a192gcm
}

var a256gcm = &algorithm{
	keyLen: 32,
}

// New256 returns the A256GCM content encryption algorithm.
func New256() enc.Algorithm {
	return a256gcm
}

func init() {
	jwa.RegisterEncryptionAlgorithm(jwa.A128GCM, New128)
	jwa.RegisterEncryptionAlgorithm(jwa.A192GCM, New192)
	jwa.RegisterEncryptionAlgorithm(jwa.A256GCM, New256)
}

var _ enc.Algorithm = (*algorithm)(nil)

// algorithm is AES-GCM with a 96-bit IV and a 128-bit tag.
// Reusing an IV with the same key is a fatal caller error; GenerateIV
// draws a fresh one.
type algorithm struct {
	keyLen int
}

// CEKSize implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) CEKSize() int {
	return alg.keyLen
}

// IVSize implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) IVSize() int {
	return ivSize
}

// GenerateCEK implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) GenerateCEK() ([]byte, error) {
	cek := make([]byte, alg.keyLen)
	if _, err := rand.Read(cek); err != nil {
		return nil, err
	}
	return cek, nil
}

// GenerateIV implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) GenerateIV() ([]byte, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

func (alg *algorithm) newAEAD(cek []byte) (cipher.AEAD, error) {
	if len(cek) != alg.keyLen {
		return nil, enc.ErrInvalidContentEncryptionKey
	}
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error) {
	aead, err := alg.newAEAD(cek)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, nil, errors.New("agcm: invalid size of iv")
	}
	sealed := aead.Seal(nil, iv, plaintext, aad)
	ciphertext = sealed[:len(sealed)-tagSize]
	authTag = sealed[len(sealed)-tagSize:]
	return
}

// Decrypt implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error) {
	aead, err := alg.newAEAD(cek)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() || len(authTag) != tagSize {
		return nil, enc.ErrDecryptionFailed
	}
	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)
	plaintext, err = aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, enc.ErrDecryptionFailed
	}
	return plaintext, nil
}
