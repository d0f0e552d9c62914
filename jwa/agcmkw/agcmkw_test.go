package agcmkw

import (
	"bytes"
	"testing"

	"github.com/josekit/jose/jwk"
)

// header is a minimal stand-in for the JWE protected header.
type header struct {
	iv  []byte
	tag []byte
}

func (h *header) InitializationVector() []byte     { return h.iv }
func (h *header) SetInitializationVector(v []byte) { h.iv = v }
func (h *header) AuthenticationTag() []byte        { return h.tag }
func (h *header) SetAuthenticationTag(v []byte)    { h.tag = v }

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	kek := make([]byte, 32)
	for i := range kek {
		kek[i] = byte(i)
	}
	key, err := jwk.NewPrivateKey(kek)
	if err != nil {
		t.Fatal(err)
	}
	cek := make([]byte, 32)

	h := &header{}
	data, err := New256().NewKeyWrapper(key).WrapKey(cek, h)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.iv) != 12 {
		t.Errorf("a fresh 96-bit iv must be published, got %d octets", len(h.iv))
	}
	if len(h.tag) != 16 {
		t.Errorf("the tag must be published, got %d octets", len(h.tag))
	}
	if len(data) != len(cek) {
		t.Errorf("unexpected encrypted key length: %d", len(data))
	}

	got, err := New256().NewKeyWrapper(key).UnwrapKey(data, h)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, cek) {
		t.Errorf("got %x, want %x", got, cek)
	}
}

func TestUnwrapKey_TamperedTag(t *testing.T) {
	kek := make([]byte, 16)
	key, err := jwk.NewPrivateKey(kek)
	if err != nil {
		t.Fatal(err)
	}
	h := &header{}
	data, err := New128().NewKeyWrapper(key).WrapKey(make([]byte, 16), h)
	if err != nil {
		t.Fatal(err)
	}
	h.tag[0] ^= 0x01
	if _, err := New128().NewKeyWrapper(key).UnwrapKey(data, h); err == nil {
		t.Error("a tampered tag must fail")
	}
}

func TestNewKeyWrapper_KeySizeMismatch(t *testing.T) {
	key, err := jwk.NewPrivateKey(make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New256().NewKeyWrapper(key).WrapKey(make([]byte, 16), &header{}); err == nil {
		t.Error("a 128-bit key must be rejected by A256GCMKW")
	}
}
