// Package eddsa provides the Edwards-Curve Digital Signature Algorithm.
package eddsa

import (
	"crypto/ed25519"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/sig"
)

var alg = &algorithm{}

// New returns the EdDSA signature algorithm.
// The curve is selected by the key: Ed25519 or Ed448.
func New() sig.Algorithm {
	return alg
}

func init() {
	jwa.RegisterSignatureAlgorithm(jwa.EdDSA, New)
}

var _ sig.Algorithm = (*algorithm)(nil)

type algorithm struct{}

// NewSigningKey implements [github.com/josekit/jose/sig.Algorithm].
func (alg *algorithm) NewSigningKey(key sig.Key) sig.SigningKey {
	priv := key.PrivateKey()
	pub := key.PublicKey()
	canSign := jwktypes.CanUseFor(key, jwktypes.KeyOpSign)
	canVerify := jwktypes.CanUseFor(key, jwktypes.KeyOpVerify)

	switch priv := priv.(type) {
	case ed25519.PrivateKey:
		pubkey, ok := pub.(ed25519.PublicKey)
		if !ok {
			return sig.NewInvalidKey("EdDSA", priv, pub)
		}
		return &ed25519Key{
			priv:      priv,
			pub:       pubkey,
			canSign:   canSign,
			canVerify: canVerify,
		}
	case ed448.PrivateKey:
		pubkey, ok := pub.(ed448.PublicKey)
		if !ok {
			return sig.NewInvalidKey("EdDSA", priv, pub)
		}
		return &ed448Key{
			priv:      priv,
			pub:       pubkey,
			canSign:   canSign,
			canVerify: canVerify,
		}
	case nil:
		switch pub := pub.(type) {
		case ed25519.PublicKey:
			return &ed25519Key{
				pub:       pub,
				canSign:   canSign,
				canVerify: canVerify,
			}
		case ed448.PublicKey:
			return &ed448Key{
				pub:       pub,
				canSign:   canSign,
				canVerify: canVerify,
			}
		default:
			return sig.NewInvalidKey("EdDSA", priv, pub)
		}
	default:
		return sig.NewInvalidKey("EdDSA", priv, pub)
	}
}

// ed25519Key signs with Ed25519; the signature is 64 octets.
type ed25519Key struct {
	priv      ed25519.PrivateKey
	pub       ed25519.PublicKey
	canSign   bool
	canVerify bool
}

func (key *ed25519Key) Sign(signingInput []byte) (signature []byte, err error) {
	if key.priv == nil || !key.canSign {
		return nil, sig.ErrSignUnavailable
	}
	return ed25519.Sign(key.priv, signingInput), nil
}

func (key *ed25519Key) Verify(signingInput, signature []byte) error {
	if !key.canVerify {
		return sig.ErrSignUnavailable
	}
	if len(signature) != ed25519.SignatureSize {
		return sig.ErrSignatureMismatch
	}
	if !ed25519.Verify(key.pub, signingInput, signature) {
		return sig.ErrSignatureMismatch
	}
	return nil
}

// ed448Key signs with Ed448 (empty context); the signature is 114 octets.
type ed448Key struct {
	priv      ed448.PrivateKey
	pub       ed448.PublicKey
	canSign   bool
	canVerify bool
}

func (key *ed448Key) Sign(signingInput []byte) (signature []byte, err error) {
	if key.priv == nil || !key.canSign {
		return nil, sig.ErrSignUnavailable
	}
	return ed448.Sign(key.priv, signingInput, ""), nil
}

func (key *ed448Key) Verify(signingInput, signature []byte) error {
	if !key.canVerify {
		return sig.ErrSignUnavailable
	}
	if len(signature) != ed448.SignatureSize {
		return sig.ErrSignatureMismatch
	}
	if !ed448.Verify(key.pub, signingInput, signature, "") {
		return sig.ErrSignatureMismatch
	}
	return nil
}
