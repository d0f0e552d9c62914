package x448

import (
	"bytes"
	"testing"
)

func TestSharedSecret(t *testing.T) {
	pubA, privA, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pubB, privB, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}

	z1, err := SharedSecret(privA, pubB)
	if err != nil {
		t.Fatal(err)
	}
	z2, err := SharedSecret(privB, pubA)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(z1, z2) {
		t.Error("both sides must derive the same secret")
	}
	if len(z1) != 56 {
		t.Errorf("unexpected secret size: %d", len(z1))
	}
}

func TestSharedSecret_InvalidSizes(t *testing.T) {
	pub, priv, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SharedSecret(priv[:10], pub); err == nil {
		t.Error("short private keys must be rejected")
	}
	if _, err := SharedSecret(priv, pub[:10]); err == nil {
		t.Error("short public keys must be rejected")
	}
}

func TestPublic(t *testing.T) {
	pub, priv, err := GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !priv.Public().(PublicKey).Equal(pub) {
		t.Error("Public must derive the generated public key")
	}
}
