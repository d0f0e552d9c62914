package jwe

import (
	"context"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk"
	"github.com/josekit/jose/keymanage"
)

// KeyWrapperFinder resolves the key wrapper for a JWE message from its
// protected header.
type KeyWrapperFinder interface {
	FindKeyWrapper(ctx context.Context, protected *Header) (wrapper keymanage.KeyWrapper, err error)
}

// FindKeyWrapperFunc is an adapter to allow the use of ordinary
// functions as KeyWrapperFinder.
type FindKeyWrapperFunc func(ctx context.Context, protected *Header) (wrapper keymanage.KeyWrapper, err error)

func (f FindKeyWrapperFunc) FindKeyWrapper(ctx context.Context, protected *Header) (wrapper keymanage.KeyWrapper, err error) {
	return f(ctx, protected)
}

// JWKKeyWrapperFinder binds one specific JWK regardless of the header.
type JWKKeyWrapperFinder struct {
	JWK *jwk.Key

	// Registry resolves the algorithm; nil means [jwa.Default].
	Registry *jwa.Registry
}

func (f *JWKKeyWrapperFinder) FindKeyWrapper(ctx context.Context, protected *Header) (wrapper keymanage.KeyWrapper, err error) {
	registry := f.Registry
	if registry == nil {
		registry = jwa.Default
	}
	alg, err := registry.KeyManagementAlgorithm(protected.Algorithm())
	if err != nil {
		return nil, err
	}
	return alg.NewKeyWrapper(f.JWK), nil
}
