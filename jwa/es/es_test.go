package es

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/josekit/jose/jwk"
	"github.com/josekit/jose/sig"
)

func newTestKey(t *testing.T, crv elliptic.Curve) *jwk.Key {
	t.Helper()
	priv, err := ecdsa.GenerateKey(crv, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := jwk.NewPrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestSignVerify_RoundTrip(t *testing.T) {
	tests := []struct {
		alg     sig.Algorithm
		crv     elliptic.Curve
		sigSize int
	}{
		{New256(), elliptic.P256(), 64},
		{New384(), elliptic.P384(), 96},
		{New512(), elliptic.P521(), 132},
	}
	for _, tt := range tests {
		key := newTestKey(t, tt.crv)
		sk := tt.alg.NewSigningKey(key)
		signature, err := sk.Sign([]byte("payload"))
		if err != nil {
			t.Fatal(err)
		}
		// the signature is R || S, fixed width, no DER.
		if len(signature) != tt.sigSize {
			t.Errorf("unexpected signature size: got %d, want %d", len(signature), tt.sigSize)
		}
		if err := sk.Verify([]byte("payload"), signature); err != nil {
			t.Error(err)
		}
	}
}

func TestSign_Randomized(t *testing.T) {
	key := newTestKey(t, elliptic.P256())
	sk := New256().NewSigningKey(key)
	s1, err := sk.Sign([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := sk.Sign([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(s1, s2) {
		t.Error("ECDSA is randomized; two signatures must differ")
	}
	if err := sk.Verify([]byte("payload"), s2); err != nil {
		t.Error(err)
	}
}

func TestVerify_Rejections(t *testing.T) {
	key := newTestKey(t, elliptic.P256())
	sk := New256().NewSigningKey(key)
	signature, err := sk.Sign([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	// zero R
	zeroR := append([]byte(nil), signature...)
	for i := 0; i < 32; i++ {
		zeroR[i] = 0
	}
	if err := sk.Verify([]byte("payload"), zeroR); err == nil {
		t.Error("R = 0 must be rejected")
	}

	// wrong length (DER-ish input)
	if err := sk.Verify([]byte("payload"), signature[:63]); err == nil {
		t.Error("signatures of the wrong length must be rejected")
	}

	// tampered payload
	if err := sk.Verify([]byte("Payload"), signature); err == nil {
		t.Error("a modified payload must not verify")
	}
}

func TestNewSigningKey_CurveMismatch(t *testing.T) {
	key := newTestKey(t, elliptic.P384())
	sk := New256().NewSigningKey(key)
	if _, err := sk.Sign([]byte("payload")); err == nil {
		t.Error("a P-384 key must be rejected by ES256")
	}
}
