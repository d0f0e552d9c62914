package agcm

import (
	"bytes"
	"testing"

	"github.com/josekit/jose/enc"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	algs := []enc.Algorithm{New128(), New192(), New256()}
	for _, alg := range algs {
		cek, err := alg.GenerateCEK()
		if err != nil {
			t.Fatal(err)
		}
		iv, err := alg.GenerateIV()
		if err != nil {
			t.Fatal(err)
		}
		if len(iv) != 12 {
			t.Errorf("the IV must be 96 bits, got %d octets", len(iv))
		}

		aad := []byte("aad")
		plaintext := []byte("Live long and prosper.")
		ciphertext, tag, err := alg.Encrypt(cek, iv, aad, plaintext)
		if err != nil {
			t.Fatal(err)
		}
		if len(tag) != 16 {
			t.Errorf("the tag must be 128 bits, got %d octets", len(tag))
		}
		got, err := alg.Decrypt(cek, iv, aad, ciphertext, tag)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("got %q, want %q", got, plaintext)
		}
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	alg := New256()
	cek, _ := alg.GenerateCEK()
	iv, _ := alg.GenerateIV()
	aad := []byte("aad")
	ciphertext, tag, err := alg.Encrypt(cek, iv, aad, []byte("attack at dawn"))
	if err != nil {
		t.Fatal(err)
	}

	ct := append([]byte(nil), ciphertext...)
	ct[0] ^= 0x01
	if _, err := alg.Decrypt(cek, iv, aad, ct, tag); err != enc.ErrDecryptionFailed {
		t.Errorf("want ErrDecryptionFailed, got %v", err)
	}

	tg := append([]byte(nil), tag...)
	tg[0] ^= 0x01
	if _, err := alg.Decrypt(cek, iv, aad, ciphertext, tg); err != enc.ErrDecryptionFailed {
		t.Errorf("want ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_InvalidCEK(t *testing.T) {
	alg := New128()
	if _, err := alg.Decrypt(make([]byte, 8), make([]byte, 12), nil, nil, make([]byte, 16)); err == nil {
		t.Error("short CEKs should be rejected")
	}
}
