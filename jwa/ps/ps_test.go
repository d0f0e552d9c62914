package ps

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/josekit/jose/jwk"
)

func newTestKey(t *testing.T) *jwk.Key {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
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
	key := newTestKey(t)
	for _, alg := range []string{"PS256", "PS384", "PS512"} {
		t.Run(alg, func(t *testing.T) {
			a := New256()
			switch alg {
			case "PS384":
				a = New384()
			case "PS512":
				a = New512()
			}
			sk := a.NewSigningKey(key)
			signature, err := sk.Sign([]byte("payload"))
			if err != nil {
				t.Fatal(err)
			}
			if err := sk.Verify([]byte("payload"), signature); err != nil {
				t.Error(err)
			}
			if err := sk.Verify([]byte("tampered"), signature); err == nil {
				t.Error("a modified payload must not verify")
			}
		})
	}
}

func TestSign_Randomized(t *testing.T) {
	key := newTestKey(t)
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
		t.Error("PSS uses a random salt; two signatures must differ")
	}
	if err := sk.Verify([]byte("payload"), s1); err != nil {
		t.Error(err)
	}
	if err := sk.Verify([]byte("payload"), s2); err != nil {
		t.Error(err)
	}
}
