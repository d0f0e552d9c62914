package jwk

import (
	"encoding/json"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
)

// Set is a JWK Set defined in RFC 7517 Section 5.
type Set struct {
	Keys []*Key
}

// ParseSet parses a JWK Set.
//
// Keys whose type is not understood or whose required members are
// missing are skipped, as RFC 7517 Section 5 recommends.
func ParseSet(data []byte) (*Set, error) {
	var keys struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := jsonutils.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	list := make([]*Key, 0, len(keys.Keys))
	for _, raw := range keys.Keys {
		if key, err := ParseMap(raw); err == nil {
			list = append(list, key)
		}
	}
	return &Set{
		Keys: list,
	}, nil
}

// Find returns the first key that has kid.
func (set *Set) Find(kid string) (key *Key, found bool) {
	for _, k := range set.Keys {
		if k.kid == kid {
			return k, true
		}
	}
	return nil, false
}

// Filter selects keys from a Set. Zero-valued fields match any key.
type Filter struct {
	KeyID     string
	KeyUse    jwktypes.KeyUse
	KeyType   jwa.KeyType
	Algorithm jwa.KeyAlgorithm
}

func (f *Filter) match(key *Key) bool {
	if f.KeyID != "" && key.kid != f.KeyID {
		return false
	}
	if f.KeyUse != "" && key.use != f.KeyUse {
		return false
	}
	if f.KeyType != "" && key.kty != f.KeyType {
		return false
	}
	if f.Algorithm != "" && key.alg != f.Algorithm {
		return false
	}
	return true
}

// FindMatch returns the first key satisfying all the filters set in f.
func (set *Set) FindMatch(f Filter) (key *Key, found bool) {
	for _, k := range set.Keys {
		if f.match(k) {
			return k, true
		}
	}
	return nil, false
}

var _ json.Unmarshaler = (*Set)(nil)

// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (set *Set) UnmarshalJSON(data []byte) error {
	s, err := ParseSet(data)
	if err != nil {
		return err
	}
	*set = *s
	return nil
}

var _ json.Marshaler = (*Set)(nil)

// MarshalJSON implements [encoding/json.Marshaler].
func (set *Set) MarshalJSON() ([]byte, error) {
	keys := make([]json.RawMessage, 0, len(set.Keys))
	for _, key := range set.Keys {
		data, err := key.MarshalJSON()
		if err != nil {
			return nil, err
		}
		keys = append(keys, data)
	}
	return json.Marshal(map[string]any{
		"keys": keys,
	})
}
