package akw

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	data, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// RFC 3394 Section 4.1: wrap 128 bits of key data with a 128-bit KEK.
func TestWrapKey_RFC3394(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	cek := mustHex(t, "00112233445566778899aabbccddeeff")
	want := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")

	got, err := NewKeyWrapper(kek).WrapKey(cek, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestUnwrapKey_RFC3394(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	data := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")
	want := mustHex(t, "00112233445566778899aabbccddeeff")

	got, err := NewKeyWrapper(kek).UnwrapKey(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

// RFC 3394 Section 4.3: wrap 128 bits of key data with a 256-bit KEK.
func TestWrapKey_RFC3394_256BitKEK(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	cek := mustHex(t, "00112233445566778899aabbccddeeff")
	want := mustHex(t, "64e8c3f9ce0f5ba263e9777905818a2a93c8191e7d6e8ae7")

	got, err := NewKeyWrapper(kek).WrapKey(cek, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestUnwrapKey_Corrupted(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	data := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")
	data[0] ^= 0x01
	if _, err := NewKeyWrapper(kek).UnwrapKey(data, nil); err == nil {
		t.Error("corrupted data should fail the integrity check")
	}
}

func TestNewKeyWrapper_InvalidKeySize(t *testing.T) {
	if _, err := NewKeyWrapper(make([]byte, 15)).WrapKey(make([]byte, 16), nil); err == nil {
		t.Error("15-octet KEKs should be rejected")
	}
}
