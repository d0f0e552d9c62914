// Package bigutil converts between arbitrary-precision integers and the
// unsigned big-endian octet strings the JOSE wire formats use.
package bigutil

import (
	"errors"
	"math/big"
)

// ErrIntegerTooLarge is returned when an integer does not fit the
// requested octet length.
var ErrIntegerTooLarge = errors.New("bigutil: integer is too large")

// ToOctets returns the minimal-length unsigned big-endian representation
// of n. Zero encodes as a single zero octet.
func ToOctets(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	return n.Bytes()
}

// ToFixedOctets returns the unsigned big-endian representation of n
// left-padded with zeroes to exactly size octets.
func ToFixedOctets(n *big.Int, size int) ([]byte, error) {
	if (n.BitLen()+7)/8 > size {
		return nil, ErrIntegerTooLarge
	}
	buf := make([]byte, size)
	return n.FillBytes(buf), nil
}

// FromOctets interprets data as an unsigned big-endian integer.
func FromOctets(data []byte) *big.Int {
	return new(big.Int).SetBytes(data)
}
