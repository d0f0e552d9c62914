package jwa

import (
	"errors"
	"sync"
	"testing"

	"github.com/josekit/jose/sig"
)

type stubAlgorithm struct{}

func (stubAlgorithm) NewSigningKey(key sig.Key) sig.SigningKey {
	return sig.NewErrorKey(errors.New("stub"))
}

func newStub() sig.Algorithm {
	return stubAlgorithm{}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.SignatureAlgorithm(HS256); !errors.Is(err, ErrAlgorithmNotFound) {
		t.Errorf("want ErrAlgorithmNotFound, got %v", err)
	}

	r.RegisterSignatureAlgorithm(HS256, newStub)
	if _, err := r.SignatureAlgorithm(HS256); err != nil {
		t.Errorf("want registered algorithm, got %v", err)
	}

	// lookups are name-exact
	if _, err := r.SignatureAlgorithm("hs256"); !errors.Is(err, ErrAlgorithmNotFound) {
		t.Errorf("want ErrAlgorithmNotFound, got %v", err)
	}

	r.UnregisterSignatureAlgorithm(HS256)
	if _, err := r.SignatureAlgorithm(HS256); !errors.Is(err, ErrAlgorithmNotFound) {
		t.Errorf("want ErrAlgorithmNotFound after unregister, got %v", err)
	}
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want panic on duplicate registration")
		}
	}()
	r := NewRegistry()
	r.RegisterSignatureAlgorithm(HS256, newStub)
	r.RegisterSignatureAlgorithm(HS256, newStub)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry()
	r.RegisterSignatureAlgorithm(HS256, newStub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if _, err := r.SignatureAlgorithm(HS256); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	// a single writer mutating unrelated entries must not disturb readers.
	for j := 0; j < 100; j++ {
		r.RegisterSignatureAlgorithm(ES256, newStub)
		r.UnregisterSignatureAlgorithm(ES256)
	}
	wg.Wait()
}

func TestConstraints(t *testing.T) {
	tests := []struct {
		name        string
		constraints *Constraints
		alg         KeyAlgorithm
		wantErr     bool
	}{
		{
			name: "nil permits everything",
			alg:  "HS256",
		},
		{
			name:        "empty allow list permits non-denied",
			constraints: &Constraints{},
			alg:         "HS256",
		},
		{
			name: "allow list",
			constraints: &Constraints{
				Allow: []KeyAlgorithm{"RS256"},
			},
			alg: "RS256",
		},
		{
			name: "not in allow list",
			constraints: &Constraints{
				Allow: []KeyAlgorithm{"RS256"},
			},
			alg:     "HS256",
			wantErr: true,
		},
		{
			name: "deny list wins",
			constraints: &Constraints{
				Allow: []KeyAlgorithm{"RS256"},
				Deny:  []KeyAlgorithm{"RS256"},
			},
			alg:     "RS256",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constraints.Check(tt.alg)
			if tt.wantErr {
				if !errors.Is(err, ErrAlgorithmNotAllowed) {
					t.Errorf("want ErrAlgorithmNotAllowed, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
