package hs

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/josekit/jose/jwk"
)

func TestSign_RFC7515AppendixA1(t *testing.T) {
	rawKey := `{"kty":"oct",` +
		`"k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75` +
		`aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`
	key, err := jwk.ParseKey([]byte(rawKey))
	if err != nil {
		t.Fatal(err)
	}

	signingInput := []byte("eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		"." +
		"eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFt" +
		"cGxlLmNvbS9pc19yb290Ijp0cnVlfQ")
	want, err := base64.RawURLEncoding.DecodeString("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	if err != nil {
		t.Fatal(err)
	}

	sk := New256().NewSigningKey(key)
	got, err := sk.Sign(signingInput)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}

	// HMAC is deterministic: signing twice is byte-identical.
	got2, err := sk.Sign(signingInput)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, got2) {
		t.Error("two signatures differ")
	}

	if err := sk.Verify(signingInput, want); err != nil {
		t.Error(err)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	key, err := jwk.ParseKey([]byte(`{"kty":"oct",` +
		`"k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75` +
		`aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`))
	if err != nil {
		t.Fatal(err)
	}
	sk := New256().NewSigningKey(key)
	signature, err := sk.Sign([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	signature[0] ^= 0x01
	if err := sk.Verify([]byte("payload"), signature); err == nil {
		t.Error("tampered signature should not verify")
	}
}

func TestNewSigningKey_WeakKey(t *testing.T) {
	key, err := jwk.ParseKey([]byte(`{"kty":"oct","k":"GawgguFyGrWKav7AX4VKUg"}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New256().NewSigningKey(key).Sign([]byte("payload")); err == nil {
		t.Error("16-octet keys should be rejected by HS256")
	}
	if _, err := New256Weak().NewSigningKey(key).Sign([]byte("payload")); err != nil {
		t.Errorf("New256Weak should accept short keys: %v", err)
	}
}

func TestNewSigningKey_KeyOps(t *testing.T) {
	key, err := jwk.ParseKey([]byte(`{"kty":"oct",` +
		`"key_ops":["verify"],` +
		`"k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75` +
		`aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`))
	if err != nil {
		t.Fatal(err)
	}
	sk := New256().NewSigningKey(key)
	if _, err := sk.Sign([]byte("payload")); err == nil {
		t.Error("key_ops without sign should refuse to sign")
	}
}
