// Package dir implements the key management algorithm that uses a
// shared symmetric key directly as the CEK.
package dir

import (
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
)

var alg = &algorithm{}

// New returns the direct key management algorithm.
func New() keymanage.Algorithm {
	return alg
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.Direct, New)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

type algorithm struct{}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	cek, ok := privateKey.([]byte)
	if !ok {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("dir: invalid key type: %T", privateKey))
	}
	return &keyWrapper{
		cek:       cek,
		canDerive: jwktypes.CanUseFor(key, jwktypes.KeyOpDeriveKey),
	}
}

var (
	_ keymanage.KeyWrapper = (*keyWrapper)(nil)
	_ keymanage.KeyDeriver = (*keyWrapper)(nil)
)

type keyWrapper struct {
	cek       []byte
	canDerive bool
}

// DeriveKey implements [github.com/josekit/jose/keymanage.KeyDeriver].
// The CEK is the shared key itself and the encrypted key is empty.
func (w *keyWrapper) DeriveKey(cekSize int, opts any) (cek, encryptedKey []byte, err error) {
	if !w.canDerive {
		return nil, nil, errors.New("dir: key derive operation is not allowed")
	}
	if len(w.cek) != cekSize {
		return nil, nil, fmt.Errorf("dir: the key has %d octets, but the content encryption algorithm requires %d", len(w.cek), cekSize)
	}
	return append([]byte(nil), w.cek...), []byte{}, nil
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
// Direct encryption never wraps a key; use DeriveKey.
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return nil, errors.New("dir: key wrapping is not supported")
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, errors.New("dir: key derive operation is not allowed")
	}
	if len(data) != 0 {
		return nil, errors.New("dir: encrypted key must be empty")
	}
	return append([]byte(nil), w.cek...), nil
}
