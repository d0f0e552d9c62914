// Package rsaoaep implements the RSA-OAEP and RSA-OAEP-256 key
// management algorithms.
package rsaoaep

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
)

var oaep = &algorithm{
	hash: crypto.SHA1,
}

// New returns the RSA-OAEP key management algorithm
// (OAEP using SHA-1 and MGF1 with SHA-1).
func New() keymanage.Algorithm {
	return oaep
}

var oaep256 = &algorithm{
	hash: crypto.SHA256,
}

// New256 returns the RSA-OAEP-256 key management algorithm
// (OAEP using SHA-256 and MGF1 with SHA-256).
func New256() keymanage.Algorithm {
	return oaep256
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP_256, New256)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

type algorithm struct {
	hash crypto.Hash
}

// the label is always empty in JOSE.
var label = []byte{}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	priv, ok := privateKey.(*rsa.PrivateKey)
	if !ok && privateKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsaoaep: invalid private key type: %T", privateKey))
	}

	publicKey := key.PublicKey()
	pub, ok := publicKey.(*rsa.PublicKey)
	if !ok && publicKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsaoaep: invalid public key type: %T", publicKey))
	}

	if priv != nil && pub == nil {
		pub = &priv.PublicKey
	}
	if pub == nil {
		return keymanage.NewInvalidKeyWrapper(errors.New("rsaoaep: no key material"))
	}
	return &keyWrapper{
		hash:      alg.hash,
		priv:      priv,
		pub:       pub,
		canWrap:   jwktypes.CanUseFor(key, jwktypes.KeyOpWrapKey),
		canUnwrap: jwktypes.CanUseFor(key, jwktypes.KeyOpUnwrapKey),
	}
}

var _ keymanage.KeyWrapper = (*keyWrapper)(nil)

type keyWrapper struct {
	hash      crypto.Hash
	priv      *rsa.PrivateKey
	pub       *rsa.PublicKey
	canWrap   bool
	canUnwrap bool
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if !w.canWrap {
		return nil, errors.New("rsaoaep: key wrapping operation is not allowed")
	}
	return rsa.EncryptOAEP(w.hash.New(), rand.Reader, w.pub, cek, label)
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canUnwrap {
		return nil, errors.New("rsaoaep: key unwrapping operation is not allowed")
	}
	if w.priv == nil {
		return nil, errors.New("rsaoaep: private key is missing")
	}
	cek, err := rsa.DecryptOAEP(w.hash.New(), rand.Reader, w.priv, data, label)
	if err != nil {
		return nil, fmt.Errorf("rsaoaep: failed to unwrap key: %w", err)
	}
	return cek, nil
}
