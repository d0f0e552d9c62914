package acbc

import (
	"bytes"
	"testing"

	"github.com/josekit/jose/enc"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	algs := []enc.Algorithm{New128HS256(), New192HS384(), New256HS512()}
	for _, alg := range algs {
		cek, err := alg.GenerateCEK()
		if err != nil {
			t.Fatal(err)
		}
		if len(cek) != alg.CEKSize() {
			t.Errorf("unexpected CEK size: %d", len(cek))
		}
		iv, err := alg.GenerateIV()
		if err != nil {
			t.Fatal(err)
		}
		if len(iv) != alg.IVSize() {
			t.Errorf("unexpected IV size: %d", len(iv))
		}

		aad := []byte("aad")
		plaintext := []byte("Live long and prosper.")
		ciphertext, tag, err := alg.Encrypt(cek, iv, aad, plaintext)
		if err != nil {
			t.Fatal(err)
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

func TestEncrypt_Deterministic(t *testing.T) {
	alg := New128HS256()
	cek := make([]byte, alg.CEKSize())
	iv := make([]byte, alg.IVSize())
	c1, t1, err := alg.Encrypt(cek, iv, []byte("aad"), []byte("data"))
	if err != nil {
		t.Fatal(err)
	}
	c2, t2, err := alg.Encrypt(cek, iv, []byte("aad"), []byte("data"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c1, c2) || !bytes.Equal(t1, t2) {
		t.Error("same key, iv, and input must give identical output")
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	alg := New128HS256()
	cek, _ := alg.GenerateCEK()
	iv, _ := alg.GenerateIV()
	aad := []byte("aad")
	ciphertext, tag, err := alg.Encrypt(cek, iv, aad, []byte("attack at dawn"))
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name   string
		mutate func(ct, tag, aad []byte)
	}{
		{"ciphertext", func(ct, tag, aad []byte) { ct[0] ^= 0x01 }},
		{"tag", func(ct, tag, aad []byte) { tag[0] ^= 0x01 }},
		{"aad", func(ct, tag, aad []byte) { aad[0] ^= 0x01 }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ct := append([]byte(nil), ciphertext...)
			tg := append([]byte(nil), tag...)
			ad := append([]byte(nil), aad...)
			tt.mutate(ct, tg, ad)
			if _, err := alg.Decrypt(cek, iv, ad, ct, tg); err != enc.ErrDecryptionFailed {
				t.Errorf("want ErrDecryptionFailed, got %v", err)
			}
		})
	}
}

func TestDecrypt_InvalidCEK(t *testing.T) {
	alg := New128HS256()
	if _, err := alg.Decrypt(make([]byte, 16), make([]byte, 16), nil, make([]byte, 16), make([]byte, 16)); err == nil {
		t.Error("short CEKs should be rejected")
	}
}

func TestTagLength(t *testing.T) {
	// the tag is half the hash output.
	for _, tt := range []struct {
		alg  enc.Algorithm
		want int
	}{
		{New128HS256(), 16},
		{New192HS384(), 24},
		{New256HS512(), 32},
	} {
		cek := make([]byte, tt.alg.CEKSize())
		iv := make([]byte, tt.alg.IVSize())
		_, tag, err := tt.alg.Encrypt(cek, iv, nil, []byte("data"))
		if err != nil {
			t.Fatal(err)
		}
		if len(tag) != tt.want {
			t.Errorf("unexpected tag length: got %d, want %d", len(tag), tt.want)
		}
	}
}
