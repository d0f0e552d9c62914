// Package jsonutils provides JSON helpers shared by the JOSE packages:
// a tolerant decoder over pre-parsed JSON objects and an
// insertion-ordered object encoder.
package jsonutils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshal is the same as [json.Unmarshal], but it uses [json.Number]
// for numbers and rejects trailing data.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}

	// check if there is any trailing data.
	r := dec.Buffered()
	var buf [16]byte
	for {
		n, err := r.Read(buf[:])
		if err != nil && err != io.EOF {
			return err
		}
		for _, b := range buf[:n] {
			switch b {
			case ' ', '\t', '\r', '\n':
				continue
			default:
				return fmt.Errorf("jsonutils: trailing data")
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

var b64 = base64.RawURLEncoding

// stripSpace removes the whitespace some producers embed inside long
// base64url member values.
func stripSpace(s string) string {
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			goto strip
		}
		i++
	}
	return s
strip:
	buf := make([]byte, i, len(s))
	copy(buf, s)
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}

// Decoder reads JOSE object members out of a JSON-decoded map,
// recording only the first error it encounters.
type Decoder struct {
	pkg string
	raw map[string]any

	// pre-allocated base64 decoding buffers.
	src []byte
	dst []byte

	// first error
	err error
}

// NewDecoder returns a new Decoder.
// raw should be decoded by the json package with UseNumber.
func NewDecoder(pkg string, raw map[string]any) *Decoder {
	return &Decoder{
		pkg: pkg,
		raw: raw,
	}
}

func (d *Decoder) grow(n int) {
	if cap(d.src) >= n {
		return
	}
	if n < 64 {
		n = 64
	}
	d.src = make([]byte, n)
	d.dst = make([]byte, b64.DecodedLen(n))
}

// Decode decodes s as base64 raw url encoding.
// The returned slice is valid until the next call.
func (d *Decoder) Decode(s string, name string) []byte {
	d.grow(len(s))
	return d.decode(d.dst, s, name)
}

func (d *Decoder) decode(dst []byte, s, name string) []byte {
	s = stripSpace(s)
	s = strings.TrimRight(s, "=") // padded input is tolerated
	d.grow(len(s))
	src := d.src[:len(s)]
	copy(src, s)
	n, err := b64.Decode(dst, src)
	if err != nil {
		d.SaveError(&base64DecodeError{
			pkg:  d.pkg,
			name: name,
			err:  err,
		})
		return nil
	}
	return dst[:n]
}

// Has reports whether the name parameter exists.
func (d *Decoder) Has(name string) bool {
	_, ok := d.raw[name]
	return ok
}

// GetString gets a string parameter.
// If the parameter doesn't exist, it returns ("", false).
func (d *Decoder) GetString(name string) (string, bool) {
	v, ok := d.raw[name]
	if !ok {
		return "", false
	}
	u, ok := v.(string)
	if !ok {
		d.SaveError(&typeError{
			pkg:  d.pkg,
			name: name,
			want: "string",
			got:  reflect.TypeOf(v),
		})
		return "", false
	}
	return u, true
}

// MustString gets a string parameter.
// If the parameter doesn't exist, it returns an empty string
// and saves the error.
func (d *Decoder) MustString(name string) string {
	s, ok := d.GetString(name)
	if !ok {
		d.SaveError(&missingError{
			pkg:  d.pkg,
			name: name,
		})
		return ""
	}
	return s
}

// GetBoolean gets a boolean parameter.
// If the parameter doesn't exist, it returns (false, false).
func (d *Decoder) GetBoolean(name string) (bool, bool) {
	v, ok := d.raw[name]
	if !ok {
		return false, false
	}
	u, ok := v.(bool)
	if !ok {
		d.SaveError(&typeError{
			pkg:  d.pkg,
			name: name,
			want: "boolean",
			got:  reflect.TypeOf(v),
		})
		return false, false
	}
	return u, true
}

// GetArray gets an array parameter.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetArray(name string) ([]any, bool) {
	v, ok := d.raw[name]
	if !ok {
		return nil, false
	}
	u, ok := v.([]any)
	if !ok {
		d.SaveError(&typeError{
			pkg:  d.pkg,
			name: name,
			want: "[]any",
			got:  reflect.TypeOf(v),
		})
		return nil, false
	}
	return u, true
}

// GetObject gets an object parameter.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetObject(name string) (map[string]any, bool) {
	v, ok := d.raw[name]
	if !ok {
		return nil, false
	}
	u, ok := v.(map[string]any)
	if !ok {
		d.SaveError(&typeError{
			pkg:  d.pkg,
			name: name,
			want: "map[string]any",
			got:  reflect.TypeOf(v),
		})
		return nil, false
	}
	return u, true
}

// GetStringArray gets a string array parameter.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetStringArray(name string) ([]string, bool) {
	array, ok := d.GetArray(name)
	if !ok {
		return nil, false
	}
	ret := make([]string, 0, len(array))
	for i, v := range array {
		s, ok := v.(string)
		if !ok {
			d.SaveError(&typeError{
				pkg:  d.pkg,
				name: name + "[" + strconv.Itoa(i) + "]",
				want: "string",
				got:  reflect.TypeOf(v),
			})
			return nil, false
		}
		ret = append(ret, s)
	}
	return ret, true
}

// GetBytes gets a base64url-encoded byte sequence parameter.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetBytes(name string) ([]byte, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	s = stripSpace(s)
	buf := make([]byte, b64.DecodedLen(len(s)))
	return d.decode(buf, s, name), true
}

// MustBytes gets a base64url-encoded byte sequence parameter.
// If the parameter doesn't exist, it returns nil and saves the error.
func (d *Decoder) MustBytes(name string) []byte {
	data, ok := d.GetBytes(name)
	if !ok {
		d.SaveError(&missingError{
			pkg:  d.pkg,
			name: name,
		})
		return nil
	}
	return data
}

// GetBigInt gets a big integer parameter.
// The parameter must be base64url-encoded and big endian.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetBigInt(name string) (*big.Int, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	data := d.Decode(s, name)
	if d.err != nil {
		return nil, false
	}
	return new(big.Int).SetBytes(data), true
}

// MustBigInt gets a big integer parameter.
// If the parameter doesn't exist, it returns nil and saves the error.
func (d *Decoder) MustBigInt(name string) *big.Int {
	n, ok := d.GetBigInt(name)
	if !ok {
		d.SaveError(&missingError{
			pkg:  d.pkg,
			name: name,
		})
		return nil
	}
	return n
}

// GetURL gets a url parameter.
// If the parameter doesn't exist, it returns (nil, false).
func (d *Decoder) GetURL(name string) (*url.URL, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		d.SaveError(fmt.Errorf("%s: failed to parse the parameter %s as url: %v", d.pkg, name, err))
		return nil, false
	}
	return u, true
}

// GetInt64 gets an integer parameter.
// Non-integral or out-of-range numbers save an error.
// If the parameter doesn't exist, it returns (0, false).
func (d *Decoder) GetInt64(name string) (int64, bool) {
	v, ok := d.raw[name]
	if !ok {
		return 0, false
	}
	switch v := v.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			d.SaveError(fmt.Errorf("%s: failed to parse integer parameter %s: %w", d.pkg, name, err))
			return 0, false
		}
		return i, true
	case float64:
		i, f := math.Modf(v)
		if f != 0 {
			d.SaveError(fmt.Errorf("%s: failed to parse integer parameter %s", d.pkg, name))
			return 0, false
		}
		if i > math.MaxInt64 || i < math.MinInt64 {
			d.SaveError(fmt.Errorf("%s: integer parameter %s is overflow", d.pkg, name))
			return 0, false
		}
		return int64(i), true
	}
	d.SaveError(&typeError{
		pkg:  d.pkg,
		name: name,
		want: "number",
		got:  reflect.TypeOf(v),
	})
	return 0, false
}

// MustInt64 gets an integer parameter.
// If the parameter doesn't exist, it returns 0 and saves the error.
func (d *Decoder) MustInt64(name string) int64 {
	n, ok := d.GetInt64(name)
	if !ok {
		d.SaveError(&missingError{
			pkg:  d.pkg,
			name: name,
		})
		return 0
	}
	return n
}

// SaveError records the first non-nil error passed to it.
func (d *Decoder) SaveError(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// Err returns the first error during decoding.
func (d *Decoder) Err() error {
	return d.err
}

type base64DecodeError struct {
	pkg  string
	name string
	err  error
}

func (err *base64DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to parse the parameter %s as base64url: %v", err.pkg, err.name, err.err)
}

func (err *base64DecodeError) Unwrap() error {
	return err.err
}

type typeError struct {
	pkg  string
	name string
	want string
	got  reflect.Type
}

func (err *typeError) Error() string {
	return fmt.Sprintf("%s: want %s for the parameter %s but got %s", err.pkg, err.want, err.name, err.got.String())
}

type missingError struct {
	pkg  string
	name string
}

func (err *missingError) Error() string {
	return fmt.Sprintf("%s: required parameter %s is missing", err.pkg, err.name)
}
