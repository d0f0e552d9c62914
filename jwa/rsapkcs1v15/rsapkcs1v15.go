// Package rsapkcs1v15 implements the RSA1_5 (RSAES-PKCS1-v1_5) key
// management algorithm.
package rsapkcs1v15

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
)

var alg = &algorithm{}

// New returns the RSA1_5 key management algorithm.
func New() keymanage.Algorithm {
	return alg
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA1_5, New)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

type algorithm struct{}

// contentEncryptionKeySizer reports the CEK size the content encryption
// algorithm requires. The JWE engine's unwrap options implement it.
type contentEncryptionKeySizer interface {
	ContentEncryptionKeySize() int
}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	priv, ok := privateKey.(*rsa.PrivateKey)
	if !ok && privateKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsapkcs1v15: invalid private key type: %T", privateKey))
	}

	publicKey := key.PublicKey()
	pub, ok := publicKey.(*rsa.PublicKey)
	if !ok && publicKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsapkcs1v15: invalid public key type: %T", publicKey))
	}

	if priv != nil && pub == nil {
		pub = &priv.PublicKey
	}
	if pub == nil {
		return keymanage.NewInvalidKeyWrapper(errors.New("rsapkcs1v15: no key material"))
	}
	return &keyWrapper{
		priv:      priv,
		pub:       pub,
		canWrap:   jwktypes.CanUseFor(key, jwktypes.KeyOpWrapKey),
		canUnwrap: jwktypes.CanUseFor(key, jwktypes.KeyOpUnwrapKey),
	}
}

var _ keymanage.KeyWrapper = (*keyWrapper)(nil)

type keyWrapper struct {
	priv      *rsa.PrivateKey
	pub       *rsa.PublicKey
	canWrap   bool
	canUnwrap bool
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
// The encryption is randomized; two wraps of the same CEK differ.
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if !w.canWrap {
		return nil, errors.New("rsapkcs1v15: key wrapping operation is not allowed")
	}
	return rsa.EncryptPKCS1v15(rand.Reader, w.pub, cek)
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
//
// Padding failures are not reported. The session-key decryption fills a
// pre-drawn random CEK of the expected length in constant time, so a
// wrong padding yields a CEK that fails downstream authentication
// exactly like a wrong tag does.
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canUnwrap {
		return nil, errors.New("rsapkcs1v15: key unwrapping operation is not allowed")
	}
	if w.priv == nil {
		return nil, errors.New("rsapkcs1v15: private key is missing")
	}
	sizer, ok := opts.(contentEncryptionKeySizer)
	if !ok {
		return nil, errors.New("rsapkcs1v15: ContentEncryptionKeySize not found")
	}
	cek := make([]byte, sizer.ContentEncryptionKeySize())
	if _, err := rand.Read(cek); err != nil {
		return nil, err
	}
	// Ignoring the error is deliberate: returning it would reopen the
	// padding oracle this construction closes.
	_ = rsa.DecryptPKCS1v15SessionKey(nil, w.priv, data, cek)
	return cek, nil
}
