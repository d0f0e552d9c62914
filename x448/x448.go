// Package x448 provides key types for the X448 function defined in
// RFC 7748, backed by the CIRCL implementation.
package x448

import (
	"crypto"
	"crypto/rand"
	"errors"
	"io"

	"github.com/cloudflare/circl/dh/x448"
)

// SeedSize is the size of the private key scalar in bytes.
const SeedSize = x448.Size

// PublicKeySize is the size of the public key in bytes.
const PublicKeySize = x448.Size

// PublicKey is an X448 public key.
type PublicKey []byte

// PrivateKey is an X448 private key.
type PrivateKey []byte

// Public returns the public key corresponding to priv.
func (priv PrivateKey) Public() crypto.PublicKey {
	var secret, pub x448.Key
	copy(secret[:], priv)
	x448.KeyGen(&pub, &secret)
	return PublicKey(pub[:])
}

// Equal reports whether priv and x have the same value.
func (priv PrivateKey) Equal(x crypto.PrivateKey) bool {
	other, ok := x.(PrivateKey)
	if !ok {
		return false
	}
	return string(priv) == string(other)
}

// Equal reports whether pub and x have the same value.
func (pub PublicKey) Equal(x crypto.PublicKey) bool {
	other, ok := x.(PublicKey)
	if !ok {
		return false
	}
	return string(pub) == string(other)
}

// GenerateKey generates a new key pair using entropy from rnd.
// If rnd is nil, crypto/rand.Reader is used.
func GenerateKey(rnd io.Reader) (PublicKey, PrivateKey, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(rnd, seed); err != nil {
		return nil, nil, err
	}
	priv := PrivateKey(seed)
	pub := priv.Public().(PublicKey)
	return pub, priv, nil
}

// SharedSecret computes the X448 shared secret between priv and pub.
// It fails on low-order points.
func SharedSecret(priv PrivateKey, pub PublicKey) ([]byte, error) {
	if len(priv) != SeedSize {
		return nil, errors.New("x448: invalid private key size")
	}
	if len(pub) != PublicKeySize {
		return nil, errors.New("x448: invalid public key size")
	}
	var secret, point, shared x448.Key
	copy(secret[:], priv)
	copy(point[:], pub)
	if !x448.Shared(&shared, &secret, &point) {
		return nil, errors.New("x448: low-order point")
	}
	return shared[:], nil
}
