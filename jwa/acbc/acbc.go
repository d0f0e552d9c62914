// Package acbc provides the AES_CBC_HMAC_SHA2 content encryption algorithms.
package acbc

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"github.com/josekit/jose/enc"
	"github.com/josekit/jose/jwa"
)

var a128cbcHS256 = &algorithm{
	macKeyLen: 16,
	encKeyLen: 16,
	hash:      crypto.SHA256,
	tagLen:    16,
}

// New128HS256 returns the AES_128_CBC_HMAC_SHA_256 authenticated
// encryption algorithm.
func New128HS256() enc.Algorithm {
	return a128cbcHS256
}

var a192cbcHS384 = &algorithm{
	macKeyLen: 24,
	encKeyLen: 24,
	hash:      crypto.SHA384,
	tagLen:    24,
}

// New192HS384 returns the AES_192_CBC_HMAC_SHA_384 authenticated
// encryption algorithm.
func New192HS384() enc.Algorithm {
	return a192cbcHS384
}

var a256cbcHS512 = &algorithm{
	macKeyLen: 32,
	encKeyLen: 32,
	hash:      crypto.SHA512,
	tagLen:    32,
}

// New256HS512 returns the AES_256_CBC_HMAC_SHA_512 authenticated
// encryption algorithm.
func New256HS512() enc.Algorithm {
	return a256cbcHS512
}

func init() {
	jwa.RegisterEncryptionAlgorithm(jwa.A128CBC_HS256, New128HS256)
	jwa.RegisterEncryptionAlgorithm(jwa.A192CBC_HS384, New192HS384)
	jwa.RegisterEncryptionAlgorithm(jwa.A256CBC_HS512, New256HS512)
}

var _ enc.Algorithm = (*algorithm)(nil)

// algorithm composes AES-CBC and HMAC-SHA2 into an AEAD.
// The CEK is the MAC key followed by the encryption key; the tag is the
// leading half of the HMAC output.
type algorithm struct {
	macKeyLen int
	encKeyLen int
	hash      crypto.Hash
	tagLen    int
}

// CEKSize implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) CEKSize() int {
	return alg.macKeyLen + alg.encKeyLen
}

// IVSize implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) IVSize() int {
	return aes.BlockSize
}

// GenerateCEK implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) GenerateCEK() ([]byte, error) {
	cek := make([]byte, alg.CEKSize())
	if _, err := rand.Read(cek); err != nil {
		return nil, err
	}
	return cek, nil
}

// GenerateIV implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) GenerateIV() ([]byte, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt implements [github.com/josekit/jose/enc.Algorithm].
func (alg *algorithm) Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error) {
	if len(cek) != alg.CEKSize() {
		return nil, nil, enc.ErrInvalidContentEncryptionKey
	}
	mac := cek[:alg.macKeyLen]
	key := cek[alg.macKeyLen:]
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, nil, errors.New("acbc: invalid size of iv")
	}

	ciphertext = pad(plaintext, block.BlockSize())
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, ciphertext)
	authTag = alg.computeTag(mac, aad, iv, ciphertext)
	return
}

// Decrypt implements [github.com/josekit/jose/enc.Algorithm].
//
// Tag comparison and padding extraction run in constant time, and both
// failures surface as the same error.
func (alg *algorithm) Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error) {
	if len(cek) != alg.CEKSize() {
		return nil, enc.ErrInvalidContentEncryptionKey
	}
	mac := cek[:alg.macKeyLen]
	key := cek[alg.macKeyLen:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, enc.ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, enc.ErrDecryptionFailed
	}

	plaintext = make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)
	toRemove, good := extractPadding(plaintext)

	expected := alg.computeTag(mac, aad, iv, ciphertext)
	cmp := subtle.ConstantTimeCompare(authTag, expected) & int(good)
	if cmp != 1 {
		return nil, enc.ErrDecryptionFailed
	}
	return plaintext[:len(plaintext)-toRemove], nil
}

// computeTag MACs AAD || IV || ciphertext || AL, where AL is the 64-bit
// big-endian bit count of the AAD, and truncates to half the hash.
func (alg *algorithm) computeTag(mac, aad, iv, ciphertext []byte) []byte {
	w := hmac.New(alg.hash.New, mac)
	w.Write(aad)
	w.Write(iv)
	w.Write(ciphertext)
	var al [8]byte
	binary.BigEndian.PutUint64(al[:], uint64(len(aad))*8)
	w.Write(al[:])
	return w.Sum(nil)[:alg.tagLen]
}

// pad applies PKCS#7 padding.
func pad(data []byte, size int) []byte {
	paddingLen := size - len(data)%size
	ret := make([]byte, len(data)+paddingLen)
	copy(ret, data)
	for i := len(data); i < len(ret); i++ {
		ret[i] = byte(paddingLen)
	}
	return ret
}

// extractPadding returns, in constant time, the length of the padding
// to remove from the end of payload. It also returns a byte which is
// equal to 255 if the padding was valid and 0 otherwise.
// See RFC 2246, Section 6.2.3.2.
func extractPadding(payload []byte) (toRemove int, good byte) {
	if len(payload) < 1 {
		return 0, 0
	}

	paddingLen := payload[len(payload)-1]
	t := uint(len(payload)) - uint(paddingLen)
	// if len(payload) > paddingLen then the MSB of t is zero
	good = byte(int32(^t) >> 31)

	// The maximum possible padding length plus the actual length field
	toCheck := 256
	// The length of the padded data is public, so we can use an if here
	if toCheck > len(payload) {
		toCheck = len(payload)
	}

	for i := 1; i <= toCheck; i++ {
		t := uint(paddingLen) - uint(i)
		// if i <= paddingLen then the MSB of t is zero
		mask := byte(int32(^t) >> 31)
		b := payload[len(payload)-i]
		good &^= mask&paddingLen ^ mask&b
	}

	// We AND together the bits of good and replicate the result across
	// all the bits.
	good &= good << 4
	good &= good << 2
	good &= good << 1
	good = uint8(int8(good) >> 7)

	// Zero the padding length on error. This ensures any unchecked
	// bytes are included in the MAC.
	paddingLen &= good

	toRemove = int(paddingLen)
	return
}
