package bigutil

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func TestToOctets(t *testing.T) {
	if got := ToOctets(big.NewInt(0)); !bytes.Equal(got, []byte{0}) {
		t.Errorf("got %x, want 00", got)
	}
	if got := ToOctets(big.NewInt(0x0102)); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("got %x, want 0102", got)
	}
}

func TestToFixedOctets(t *testing.T) {
	got, err := ToFixedOctets(big.NewInt(0x0102), 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("got %x, want 00000102", got)
	}

	if _, err := ToFixedOctets(big.NewInt(0x010203), 2); !errors.Is(err, ErrIntegerTooLarge) {
		t.Errorf("want ErrIntegerTooLarge, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(0x0123456789), 64)
	got := FromOctets(ToOctets(want))
	if got.Cmp(want) != 0 {
		t.Errorf("got %v, want %v", got, want)
	}
}
