package jwa

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/josekit/jose/enc"
	"github.com/josekit/jose/keymanage"
	"github.com/josekit/jose/sig"
)

// ErrAlgorithmNotFound means the algorithm identifier has no entry in
// the registry, either because it is unknown or because its
// implementation package is not linked into the binary.
var ErrAlgorithmNotFound = errors.New("jwa: algorithm not found")

// ErrAlgorithmNotAllowed means the algorithm identifier is rejected by
// the consumer's constraints.
var ErrAlgorithmNotAllowed = errors.New("jwa: algorithm not allowed")

// Registry holds the catalogs of signature, key management, and content
// encryption algorithms. Reads go through an atomic snapshot and take no
// locks; writers serialize on a mutex and install a copied catalog, so a
// lookup never observes a torn state.
//
// The zero value is ready to use. Most callers use [Default], which the
// algorithm packages populate from their init functions; engines accept
// an explicit Registry for callers that want an isolated catalog.
type Registry struct {
	mu  sync.Mutex
	sig atomic.Pointer[map[SignatureAlgorithm]func() sig.Algorithm]
	km  atomic.Pointer[map[KeyManagementAlgorithm]func() keymanage.Algorithm]
	enc atomic.Pointer[map[EncryptionAlgorithm]func() enc.Algorithm]
}

// Default is the process-wide registry.
// Importing an algorithm package registers its algorithms here.
var Default = new(Registry)

// NewRegistry returns a new empty Registry.
func NewRegistry() *Registry {
	return new(Registry)
}

func snapshot[K comparable, V any](p *atomic.Pointer[map[K]V]) map[K]V {
	if m := p.Load(); m != nil {
		return *m
	}
	return nil
}

func store[K comparable, V any](p *atomic.Pointer[map[K]V], k K, v V, remove bool) {
	old := snapshot(p)
	next := make(map[K]V, len(old)+1)
	for key, val := range old {
		next[key] = val
	}
	if remove {
		delete(next, k)
	} else {
		next[k] = v
	}
	p.Store(&next)
}

// RegisterSignatureAlgorithm registers a signature algorithm factory.
// It panics if f is nil or alg is already registered.
func (r *Registry) RegisterSignatureAlgorithm(alg SignatureAlgorithm, f func() sig.Algorithm) {
	if f == nil {
		panic("jwa: RegisterSignatureAlgorithm with nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := snapshot(&r.sig)[alg]; ok {
		panic("jwa: RegisterSignatureAlgorithm of already registered algorithm " + alg.String())
	}
	store(&r.sig, alg, f, false)
}

// UnregisterSignatureAlgorithm removes a signature algorithm.
func (r *Registry) UnregisterSignatureAlgorithm(alg SignatureAlgorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store(&r.sig, alg, nil, true)
}

// SignatureAlgorithm returns a new instance of the named signature
// algorithm, or [ErrAlgorithmNotFound].
func (r *Registry) SignatureAlgorithm(alg SignatureAlgorithm) (sig.Algorithm, error) {
	f, ok := snapshot(&r.sig)[alg]
	if !ok {
		return nil, fmt.Errorf("jwa: signature algorithm %q: %w", alg.String(), ErrAlgorithmNotFound)
	}
	return f(), nil
}

// RegisterKeyManagementAlgorithm registers a key management algorithm factory.
// It panics if f is nil or alg is already registered.
func (r *Registry) RegisterKeyManagementAlgorithm(alg KeyManagementAlgorithm, f func() keymanage.Algorithm) {
	if f == nil {
		panic("jwa: RegisterKeyManagementAlgorithm with nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := snapshot(&r.km)[alg]; ok {
		panic("jwa: RegisterKeyManagementAlgorithm of already registered algorithm " + alg.String())
	}
	store(&r.km, alg, f, false)
}

// UnregisterKeyManagementAlgorithm removes a key management algorithm.
func (r *Registry) UnregisterKeyManagementAlgorithm(alg KeyManagementAlgorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store(&r.km, alg, nil, true)
}

// KeyManagementAlgorithm returns a new instance of the named key
// management algorithm, or [ErrAlgorithmNotFound].
func (r *Registry) KeyManagementAlgorithm(alg KeyManagementAlgorithm) (keymanage.Algorithm, error) {
	f, ok := snapshot(&r.km)[alg]
	if !ok {
		return nil, fmt.Errorf("jwa: key management algorithm %q: %w", alg.String(), ErrAlgorithmNotFound)
	}
	return f(), nil
}

// RegisterEncryptionAlgorithm registers a content encryption algorithm factory.
// It panics if f is nil or e is already registered.
func (r *Registry) RegisterEncryptionAlgorithm(e EncryptionAlgorithm, f func() enc.Algorithm) {
	if f == nil {
		panic("jwa: RegisterEncryptionAlgorithm with nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := snapshot(&r.enc)[e]; ok {
		panic("jwa: RegisterEncryptionAlgorithm of already registered algorithm " + e.String())
	}
	store(&r.enc, e, f, false)
}

// UnregisterEncryptionAlgorithm removes a content encryption algorithm.
func (r *Registry) UnregisterEncryptionAlgorithm(e EncryptionAlgorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store(&r.enc, e, nil, true)
}

// EncryptionAlgorithm returns a new instance of the named content
// encryption algorithm, or [ErrAlgorithmNotFound].
func (r *Registry) EncryptionAlgorithm(e EncryptionAlgorithm) (enc.Algorithm, error) {
	f, ok := snapshot(&r.enc)[e]
	if !ok {
		return nil, fmt.Errorf("jwa: content encryption algorithm %q: %w", e.String(), ErrAlgorithmNotFound)
	}
	return f(), nil
}

// RegisterSignatureAlgorithm registers a signature algorithm in [Default].
func RegisterSignatureAlgorithm(alg SignatureAlgorithm, f func() sig.Algorithm) {
	Default.RegisterSignatureAlgorithm(alg, f)
}

// RegisterKeyManagementAlgorithm registers a key management algorithm in [Default].
func RegisterKeyManagementAlgorithm(alg KeyManagementAlgorithm, f func() keymanage.Algorithm) {
	Default.RegisterKeyManagementAlgorithm(alg, f)
}

// RegisterEncryptionAlgorithm registers a content encryption algorithm in [Default].
func RegisterEncryptionAlgorithm(e EncryptionAlgorithm, f func() enc.Algorithm) {
	Default.RegisterEncryptionAlgorithm(e, f)
}

// New returns a new instance of the algorithm from [Default].
// It panics if the algorithm is not available.
func (alg SignatureAlgorithm) New() sig.Algorithm {
	a, err := Default.SignatureAlgorithm(alg)
	if err != nil {
		panic("jwa: requested signature algorithm " + alg.String() + " is not available")
	}
	return a
}

// Available reports whether the algorithm is registered in [Default].
func (alg SignatureAlgorithm) Available() bool {
	_, err := Default.SignatureAlgorithm(alg)
	return err == nil
}

// New returns a new instance of the algorithm from [Default].
// It panics if the algorithm is not available.
func (alg KeyManagementAlgorithm) New() keymanage.Algorithm {
	a, err := Default.KeyManagementAlgorithm(alg)
	if err != nil {
		panic("jwa: requested key management algorithm " + alg.String() + " is not available")
	}
	return a
}

// Available reports whether the algorithm is registered in [Default].
func (alg KeyManagementAlgorithm) Available() bool {
	_, err := Default.KeyManagementAlgorithm(alg)
	return err == nil
}

// New returns a new instance of the algorithm from [Default].
// It panics if the algorithm is not available.
func (e EncryptionAlgorithm) New() enc.Algorithm {
	a, err := Default.EncryptionAlgorithm(e)
	if err != nil {
		panic("jwa: requested content encryption algorithm " + e.String() + " is not available")
	}
	return a
}

// Available reports whether the algorithm is registered in [Default].
func (e EncryptionAlgorithm) Available() bool {
	_, err := Default.EncryptionAlgorithm(e)
	return err == nil
}

// Constraints is an allow/deny filter over algorithm identifiers.
// Engines evaluate it before any key is bound to an operation.
// An empty Allow list permits everything not denied.
type Constraints struct {
	Allow []KeyAlgorithm
	Deny  []KeyAlgorithm
}

// Check returns an error matching [ErrAlgorithmNotAllowed] if alg is
// denied, or not contained in a non-empty allow list.
func (c *Constraints) Check(alg KeyAlgorithm) error {
	if c == nil {
		return nil
	}
	for _, denied := range c.Deny {
		if alg == denied {
			return fmt.Errorf("jwa: algorithm %q is denied: %w", alg.String(), ErrAlgorithmNotAllowed)
		}
	}
	if len(c.Allow) == 0 {
		return nil
	}
	for _, allowed := range c.Allow {
		if alg == allowed {
			return nil
		}
	}
	return fmt.Errorf("jwa: algorithm %q is not in the allow list: %w", alg.String(), ErrAlgorithmNotAllowed)
}
