package rsapkcs1v15

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/josekit/jose/jwk"
)

type sizer int

func (s sizer) ContentEncryptionKeySize() int { return int(s) }

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

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	key := newTestKey(t)
	cek := make([]byte, 32)
	for i := range cek {
		cek[i] = byte(i)
	}

	data1, err := New().NewKeyWrapper(key).WrapKey(cek, nil)
	if err != nil {
		t.Fatal(err)
	}
	data2, err := New().NewKeyWrapper(key).WrapKey(cek, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(data1, data2) {
		t.Error("RSA1_5 is randomized; two wraps must differ")
	}

	got, err := New().NewKeyWrapper(key).UnwrapKey(data1, sizer(32))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, cek) {
		t.Errorf("got %x, want %x", got, cek)
	}
}

func TestUnwrapKey_BlindedFailure(t *testing.T) {
	key := newTestKey(t)
	cek := make([]byte, 32)
	data, err := New().NewKeyWrapper(key).WrapKey(cek, nil)
	if err != nil {
		t.Fatal(err)
	}

	// corrupting the encrypted key must not surface an error; the
	// caller sees a wrong random CEK of the right length instead.
	data[0] ^= 0x01
	got, err := New().NewKeyWrapper(key).UnwrapKey(data, sizer(32))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 32 {
		t.Errorf("unexpected CEK length: %d", len(got))
	}
	if bytes.Equal(got, cek) {
		t.Error("a corrupted wrap must not yield the original CEK")
	}
}
