// Package hs provides the HMAC using SHA-2 signature algorithms.
package hs

import (
	"crypto"
	"crypto/hmac"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/sig"
)

var hs256 = &algorithm{
	alg:  jwa.HS256,
	hash: crypto.SHA256,
}

// New256 returns the HS256 (HMAC using SHA-256) signature algorithm.
//
// New256 doesn't accept weak keys shorter than 256 bits.
// If you need to use weak keys, use New256Weak instead.
func New256() sig.Algorithm {
	return hs256
}

var hs384 = &algorithm{
	alg:  jwa.HS384,
	hash: crypto.SHA384,
}

// New384 returns the HS384 (HMAC using SHA-384) signature algorithm.
//
// New384 doesn't accept weak keys shorter than 384 bits.
// If you need to use weak keys, use New384Weak instead.
func New384() sig.Algorithm {
	return hs384
}

var hs512 = &algorithm{
	alg:  jwa.HS512,
	hash: crypto.SHA512,
}

// New512 returns the HS512 (HMAC using SHA-512) signature algorithm.
//
// New512 doesn't accept weak keys shorter than 512 bits.
// If you need to use weak keys, use New512Weak instead.
func New512() sig.Algorithm {
	return hs512
}

var hs256w = &algorithm{
	alg:  jwa.HS256,
	hash: crypto.SHA256,
	weak: true,
}

// New256Weak is the same as New256, but it accepts weak keys.
//
// Deprecated: Use New256 instead.
func New256Weak() sig.Algorithm {
	return hs256w
}

var hs384w = &algorithm{
	alg:  jwa.HS384,
	hash: crypto.SHA384,
	weak: true,
}

// New384Weak is the same as New384, but it accepts weak keys.
//
// Deprecated: Use New384 instead.
func New384Weak() sig.Algorithm {
	return hs384w
}

var hs512w = &algorithm{
	alg:  jwa.HS512,
	hash: crypto.SHA512,
	weak: true,
}

// New512Weak is the same as New512, but it accepts weak keys.
//
// Deprecated: Use New512 instead.
func New512Weak() sig.Algorithm {
	return hs512w
}

func init() {
	jwa.RegisterSignatureAlgorithm(jwa.HS256, New256)
	jwa.RegisterSignatureAlgorithm(jwa.HS384, New384)
	jwa.RegisterSignatureAlgorithm(jwa.HS512, New512)
}

var _ sig.Algorithm = (*algorithm)(nil)

type algorithm struct {
	alg  jwa.SignatureAlgorithm
	hash crypto.Hash
	weak bool
}

var _ sig.SigningKey = (*signingKey)(nil)

type signingKey struct {
	hash      crypto.Hash
	key       []byte
	canSign   bool
	canVerify bool
}

// NewSigningKey implements [github.com/josekit/jose/sig.Algorithm].
func (alg *algorithm) NewSigningKey(key sig.Key) sig.SigningKey {
	priv := key.PrivateKey()
	pub := key.PublicKey()

	secret, ok := priv.([]byte)
	if !ok || pub != nil {
		return sig.NewInvalidKey(alg.alg.String(), priv, pub)
	}
	if !alg.weak && len(secret) < alg.hash.Size() {
		return sig.NewErrorKey(fmt.Errorf("hs: weak key size: %d", len(secret)))
	}
	return &signingKey{
		hash:      alg.hash,
		key:       secret,
		canSign:   jwktypes.CanUseFor(key, jwktypes.KeyOpSign),
		canVerify: jwktypes.CanUseFor(key, jwktypes.KeyOpVerify),
	}
}

// Sign implements [github.com/josekit/jose/sig.SigningKey].
//
// The tag length equals the hash output length.
func (key *signingKey) Sign(signingInput []byte) (signature []byte, err error) {
	if !key.hash.Available() {
		return nil, sig.ErrHashUnavailable
	}
	if !key.canSign {
		return nil, sig.ErrSignUnavailable
	}
	mac := hmac.New(key.hash.New, key.key)
	if _, err := mac.Write(signingInput); err != nil {
		return nil, err
	}
	return mac.Sum(nil), nil
}

// Verify implements [github.com/josekit/jose/sig.SigningKey].
func (key *signingKey) Verify(signingInput, signature []byte) error {
	if !key.hash.Available() {
		return sig.ErrHashUnavailable
	}
	if !key.canVerify {
		return sig.ErrSignUnavailable
	}
	mac := hmac.New(key.hash.New, key.key)
	if _, err := mac.Write(signingInput); err != nil {
		return err
	}
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return sig.ErrSignatureMismatch
	}
	return nil
}
