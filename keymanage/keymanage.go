// Package keymanage defines the interface of Key Management Algorithms.
package keymanage

import "crypto"

// Key provides the key material for wrapping or unwrapping the
// Content Encryption Key (CEK).
type Key interface {
	PrivateKey() crypto.PrivateKey
	PublicKey() crypto.PublicKey
}

// Algorithm is an algorithm for wrapping or unwrapping the CEK.
type Algorithm interface {
	NewKeyWrapper(key Key) KeyWrapper
}

// KeyWrapper wraps and unwraps the CEK.
//
// opts is the protected header under construction. Algorithms read their
// parameters from it through getter interfaces and publish header
// updates (epk, iv, tag, p2s, p2c) through setter interfaces. The engine
// applies the updates before the header is encoded, so everything a
// wrapper writes is covered by the AAD.
type KeyWrapper interface {
	WrapKey(cek []byte, opts any) (data []byte, err error)
	UnwrapKey(data []byte, opts any) (cek []byte, err error)
}

// KeyDeriver is implemented by key wrappers that derive the CEK itself
// instead of wrapping a generated one (direct encryption and direct key
// agreement). cekSize is the byte length the content encryption
// algorithm requires.
type KeyDeriver interface {
	DeriveKey(cekSize int, opts any) (cek, encryptedKey []byte, err error)
}

// NewInvalidKeyWrapper returns a KeyWrapper that fails every operation
// with err.
func NewInvalidKeyWrapper(err error) KeyWrapper {
	return &invalidKeyWrapper{
		err: err,
	}
}

type invalidKeyWrapper struct {
	err error
}

func (w *invalidKeyWrapper) WrapKey(cek []byte, opts any) (data []byte, err error) {
	return nil, w.err
}

func (w *invalidKeyWrapper) UnwrapKey(data []byte, opts any) (cek []byte, err error) {
	return nil, w.err
}
