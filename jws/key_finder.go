package jws

import (
	"context"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk"
	"github.com/josekit/jose/sig"
)

// KeyFinder resolves the signing key for a JWS message from its
// protected header.
type KeyFinder interface {
	FindKey(ctx context.Context, protected *Header) (key sig.SigningKey, err error)
}

// FindKeyFunc is an adapter to allow the use of ordinary functions as KeyFinder.
type FindKeyFunc func(ctx context.Context, protected *Header) (key sig.SigningKey, err error)

func (f FindKeyFunc) FindKey(ctx context.Context, protected *Header) (key sig.SigningKey, err error) {
	return f(ctx, protected)
}

// JWKKeyFinder binds one specific JWK regardless of the header.
type JWKKeyFinder struct {
	JWK *jwk.Key

	// Registry resolves the algorithm; nil means [jwa.Default].
	Registry *jwa.Registry
}

func (f *JWKKeyFinder) FindKey(ctx context.Context, protected *Header) (key sig.SigningKey, err error) {
	registry := f.Registry
	if registry == nil {
		registry = jwa.Default
	}
	alg, err := registry.SignatureAlgorithm(protected.Algorithm())
	if err != nil {
		return nil, err
	}
	return alg.NewSigningKey(f.JWK), nil
}

// SetKeyFinder resolves keys from a JWK Set by the header's "kid" and
// "alg" parameters.
type SetKeyFinder struct {
	Set *jwk.Set

	// Registry resolves the algorithm; nil means [jwa.Default].
	Registry *jwa.Registry
}

func (f *SetKeyFinder) FindKey(ctx context.Context, protected *Header) (key sig.SigningKey, err error) {
	registry := f.Registry
	if registry == nil {
		registry = jwa.Default
	}
	alg, err := registry.SignatureAlgorithm(protected.Algorithm())
	if err != nil {
		return nil, err
	}
	k, ok := f.Set.FindMatch(jwk.Filter{
		KeyID: protected.KeyID(),
	})
	if !ok {
		return nil, fmt.Errorf("jws: no key found for kid %q", protected.KeyID())
	}
	return alg.NewSigningKey(k), nil
}
