package jsonutils

import (
	"encoding/base64"
	"math/big"

	"github.com/josekit/jose/internal/bigutil"
)

// Encoder writes JOSE object members into an insertion-ordered Object,
// recording only the first error it encounters.
type Encoder struct {
	obj *Object

	// pre-allocated base64 encoding buffer.
	dst []byte

	err error
}

// NewEncoder returns a new Encoder writing into obj.
// If obj is nil, a new Object is allocated.
func NewEncoder(obj *Object) *Encoder {
	if obj == nil {
		obj = NewObject()
	}
	return &Encoder{
		obj: obj,
	}
}

// Object returns the object under construction.
func (e *Encoder) Object() *Object {
	return e.obj
}

func (e *Encoder) grow(n int) {
	m := base64.RawURLEncoding.EncodedLen(n)
	if cap(e.dst) >= m {
		return
	}
	if m < 64 {
		m = 64
	}
	e.dst = make([]byte, m)
}

// Set sets the member name to v.
func (e *Encoder) Set(name string, v any) {
	e.obj.Set(name, v)
}

// SetBytes sets the member name to the base64url encoding of data.
func (e *Encoder) SetBytes(name string, data []byte) {
	e.obj.Set(name, e.Encode(data))
}

// SetBigInt sets the member name to the base64url encoding of the
// minimal big-endian representation of i.
func (e *Encoder) SetBigInt(name string, i *big.Int) {
	e.obj.Set(name, e.Encode(i.Bytes()))
}

// SetFixedBigInt sets the member name to the base64url encoding of the
// big-endian representation of i, left-padded to exactly size octets.
func (e *Encoder) SetFixedBigInt(name string, i *big.Int, size int) {
	data, err := bigutil.ToFixedOctets(i, size)
	if err != nil {
		e.SaveError(err)
		return
	}
	e.obj.Set(name, e.Encode(data))
}

// Encode encodes s as base64 raw url encoding.
func (e *Encoder) Encode(s []byte) string {
	e.grow(len(s))
	dst := e.dst[:base64.RawURLEncoding.EncodedLen(len(s))]
	base64.RawURLEncoding.Encode(dst, s)
	return string(dst)
}

// SaveError records the first non-nil error passed to it.
func (e *Encoder) SaveError(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

// Err returns the first error during encoding.
func (e *Encoder) Err() error {
	return e.err
}
