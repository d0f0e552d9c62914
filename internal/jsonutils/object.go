package jsonutils

import (
	"bytes"
	"encoding/json"
)

// Object is a JSON object that remembers the order in which its members
// were set. Serializing an Object emits the members in exactly that
// order, with no added whitespace and without HTML escaping, so a header
// authored through it round-trips byte-for-byte.
type Object struct {
	names  []string
	values map[string]any
}

// NewObject returns a new empty Object.
func NewObject() *Object {
	return &Object{
		values: make(map[string]any),
	}
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.names)
}

// Set sets the member name to v. A new member is appended; setting an
// existing member updates its value but keeps its position.
func (o *Object) Set(name string, v any) {
	if _, ok := o.values[name]; !ok {
		o.names = append(o.names, name)
	}
	o.values[name] = v
}

// Get returns the value of the member name.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Delete removes the member name, if present.
func (o *Object) Delete(name string) {
	if _, ok := o.values[name]; !ok {
		return
	}
	delete(o.values, name)
	for i, n := range o.names {
		if n == name {
			o.names = append(o.names[:i], o.names[i+1:]...)
			break
		}
	}
}

// Names returns the member names in insertion order.
// The returned slice is shared with the Object; do not modify it.
func (o *Object) Names() []string {
	return o.names
}

var _ json.Marshaler = (*Object)(nil)

// MarshalJSON implements [encoding/json.Marshaler].
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, o.values[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue appends the JSON encoding of v without HTML escaping and
// without the trailing newline the json package adds.
func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
	return nil
}
