// Package enc provides the interface of content encryption algorithms.
package enc

import "errors"

// ErrDecryptionFailed is the single error returned for any authenticity
// failure during content decryption. MAC mismatch and padding errors are
// deliberately indistinguishable.
var ErrDecryptionFailed = errors.New("enc: decryption failed")

// ErrInvalidContentEncryptionKey means the CEK does not match the
// algorithm's key size.
var ErrInvalidContentEncryptionKey = errors.New("enc: invalid content encryption key")

// Algorithm is an algorithm for content encryption.
// CEKSize and IVSize describe the key and nonce the algorithm consumes;
// they form the contract handed to the key management step.
type Algorithm interface {
	// CEKSize returns the byte size of the CEK (Content Encryption Key)
	// for the algorithm.
	CEKSize() int

	// IVSize returns the byte size of the IV (Initialization Vector)
	// for the algorithm.
	IVSize() int

	// GenerateCEK generates a new CEK from a cryptographically secure source.
	GenerateCEK() ([]byte, error)

	// GenerateIV generates a new IV from a cryptographically secure source.
	GenerateIV() ([]byte, error)

	// Encrypt encrypts plaintext and authenticates it together with aad.
	Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error)

	// Decrypt verifies the authentication tag and decrypts ciphertext.
	// The plaintext is never returned unless authentication succeeds.
	Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error)
}
