// Package jws handles JSON Web Signatures defined in RFC 7515.
//
// Only the compact serialization is produced and consumed.
package jws

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk"
	"github.com/josekit/jose/sig"
)

// shorthand for base64.RawURLEncoding
var b64 = base64.RawURLEncoding

// ErrMalformed means the input is not a valid compact serialization:
// wrong part count, bad base64url, or a bad JOSE header.
var ErrMalformed = errors.New("jws: malformed compact serialization")

// ErrVerifyFailed means the message could not be verified.
var ErrVerifyFailed = errors.New("jws: failed to verify the message")

// header parameters the package itself understands; a "crit" entry
// naming anything outside this set and the verifier's configured set
// fails verification.
var knownParams = [...]string{
	jwa.AlgorithmKey,
	jwa.JWKSetURLKey,
	jwa.JSONWebKey,
	jwa.KeyIDKey,
	jwa.X509URLKey,
	jwa.X509CertificateChainKey,
	jwa.X509CertificateSHA1Thumbprint,
	jwa.X509CertificateSHA256Thumbprint,
	jwa.TypeKey,
	jwa.ContentTypeKey,
	jwa.CriticalKey,
	jwa.Base64URLEncodePayloadKey,
}

// Header is a decoded JOSE header.
//
// The order in which parameters are set is remembered, and the
// serialized protected header emits them in exactly that order, so an
// authored header is reproducible byte-for-byte.
type Header struct {
	// Raw is the raw data of the JSON-decoded JOSE header.
	// JSON numbers are decoded as json.Number to avoid data loss.
	Raw map[string]any

	names []string // authoring order

	alg     jwa.SignatureAlgorithm
	jku     *url.URL
	jwk     *jwk.Key
	kid     string
	x5u     *url.URL
	x5c     []*x509.Certificate
	x5t     []byte
	x5tS256 []byte
	typ     string
	cty     string
	crit    []string
	nb64    bool // nb64 is !b64
}

// NewHeader returns a new empty Header.
func NewHeader() *Header {
	return &Header{
		Raw: map[string]any{},
	}
}

// mark records the authoring position of a parameter.
func (h *Header) mark(name string) {
	for _, n := range h.names {
		if n == name {
			return
		}
	}
	h.names = append(h.names, name)
}

// Algorithm is RFC 7515 Section 4.1.1. "alg" (Algorithm) Header Parameter.
func (h *Header) Algorithm() jwa.SignatureAlgorithm {
	return h.alg
}

// SetAlgorithm sets the "alg" parameter.
func (h *Header) SetAlgorithm(alg jwa.SignatureAlgorithm) {
	h.alg = alg
	h.mark(jwa.AlgorithmKey)
}

// JWKSetURL is RFC 7515 Section 4.1.2. "jku" (JWK Set URL) Header Parameter.
func (h *Header) JWKSetURL() *url.URL {
	return h.jku
}

// SetJWKSetURL sets the "jku" parameter.
func (h *Header) SetJWKSetURL(jku *url.URL) {
	h.jku = jku
	h.mark(jwa.JWKSetURLKey)
}

// JWK is RFC 7515 Section 4.1.3. "jwk" (JSON Web Key) Header Parameter.
func (h *Header) JWK() *jwk.Key {
	return h.jwk
}

// SetJWK sets the "jwk" parameter.
func (h *Header) SetJWK(key *jwk.Key) {
	h.jwk = key
	h.mark(jwa.JSONWebKey)
}

// KeyID is RFC 7515 Section 4.1.4. "kid" (Key ID) Header Parameter.
func (h *Header) KeyID() string {
	return h.kid
}

// SetKeyID sets the "kid" parameter.
func (h *Header) SetKeyID(kid string) {
	h.kid = kid
	h.mark(jwa.KeyIDKey)
}

// X509URL is RFC 7515 Section 4.1.5. "x5u" (X.509 URL) Header Parameter.
func (h *Header) X509URL() *url.URL {
	return h.x5u
}

// SetX509URL sets the "x5u" parameter.
func (h *Header) SetX509URL(x5u *url.URL) {
	h.x5u = x5u
	h.mark(jwa.X509URLKey)
}

// X509CertificateChain is RFC 7515 Section 4.1.6. "x5c" (X.509 Certificate Chain) Header Parameter.
func (h *Header) X509CertificateChain() []*x509.Certificate {
	return h.x5c
}

// SetX509CertificateChain sets the "x5c" parameter.
func (h *Header) SetX509CertificateChain(x5c []*x509.Certificate) {
	h.x5c = x5c
	h.mark(jwa.X509CertificateChainKey)
}

// X509CertificateSHA1 is RFC 7515 Section 4.1.7. "x5t" (X.509 Certificate SHA-1 Thumbprint) Header Parameter.
func (h *Header) X509CertificateSHA1() []byte {
	return h.x5t
}

// SetX509CertificateSHA1 sets the "x5t" parameter.
func (h *Header) SetX509CertificateSHA1(x5t []byte) {
	h.x5t = x5t
	h.mark(jwa.X509CertificateSHA1Thumbprint)
}

// X509CertificateSHA256 is RFC 7515 Section 4.1.8. "x5t#S256" (X.509 Certificate SHA-256 Thumbprint) Header Parameter.
func (h *Header) X509CertificateSHA256() []byte {
	return h.x5tS256
}

// SetX509CertificateSHA256 sets the "x5t#S256" parameter.
func (h *Header) SetX509CertificateSHA256(x5tS256 []byte) {
	h.x5tS256 = x5tS256
	h.mark(jwa.X509CertificateSHA256Thumbprint)
}

// Type is RFC 7515 Section 4.1.9. "typ" (Type) Header Parameter.
func (h *Header) Type() string {
	return h.typ
}

// SetType sets the "typ" parameter.
func (h *Header) SetType(typ string) {
	h.typ = typ
	h.mark(jwa.TypeKey)
}

// ContentType is RFC 7515 Section 4.1.10. "cty" (Content Type) Header Parameter.
func (h *Header) ContentType() string {
	return h.cty
}

// SetContentType sets the "cty" parameter.
func (h *Header) SetContentType(cty string) {
	h.cty = cty
	h.mark(jwa.ContentTypeKey)
}

// Critical is RFC 7515 Section 4.1.11. "crit" (Critical) Header Parameter.
func (h *Header) Critical() []string {
	return h.crit
}

// SetCritical sets the "crit" parameter. Duplicates are dropped and the
// names are sorted.
func (h *Header) SetCritical(crit []string) {
	h.crit = make([]string, 0, len(crit))
LOOP:
	for _, param1 := range crit {
		for _, param2 := range h.crit {
			if param1 == param2 {
				continue LOOP
			}
		}
		h.crit = append(h.crit, param1)
	}
	sort.Strings(h.crit)
	h.mark(jwa.CriticalKey)
}

// Base64 is RFC 7797 Section 3. The "b64" Header Parameter.
func (h *Header) Base64() bool {
	return !h.nb64
}

// SetBase64 sets the "b64" parameter.
// If b64 is false, "b64" is added to the "crit" parameter.
func (h *Header) SetBase64(b64 bool) {
	h.nb64 = !b64
	if !b64 {
		h.mark(jwa.Base64URLEncodePayloadKey)
		for _, param := range h.crit {
			if param == "b64" {
				return
			}
		}
		h.crit = append(h.crit, "b64")
		h.mark(jwa.CriticalKey)
	}
}

// Set sets a header parameter this package has no typed accessor for.
func (h *Header) Set(name string, v any) {
	if h.Raw == nil {
		h.Raw = map[string]any{}
	}
	h.Raw[name] = v
	h.mark(name)
}

// Get returns a header parameter this package has no typed accessor for.
func (h *Header) Get(name string) (any, bool) {
	v, ok := h.Raw[name]
	return v, ok
}

// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := jsonutils.Unmarshal(data, &raw); err != nil {
		return err
	}
	header, err := decodeHeader(raw)
	if err != nil {
		return err
	}
	*h = *header
	return nil
}

// MarshalJSON implements [encoding/json.Marshaler].
// Parameters are emitted in authoring order.
func (h *Header) MarshalJSON() ([]byte, error) {
	obj, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

func decodeHeader(raw map[string]any) (*Header, error) {
	d := jsonutils.NewDecoder("jws", raw)
	h := &Header{
		Raw: raw,
	}

	alg := d.MustString(jwa.AlgorithmKey)
	h.alg = jwa.SignatureAlgorithm(alg)
	h.mark(jwa.AlgorithmKey)

	if jku, ok := d.GetURL(jwa.JWKSetURLKey); ok {
		h.jku = jku
		h.mark(jwa.JWKSetURLKey)
	}

	if v, ok := d.GetObject(jwa.JSONWebKey); ok {
		key, err := jwk.ParseMap(v)
		if err != nil {
			d.SaveError(err)
		}
		h.jwk = key
		h.mark(jwa.JSONWebKey)
	}

	if kid, ok := d.GetString(jwa.KeyIDKey); ok {
		h.kid = kid
		h.mark(jwa.KeyIDKey)
	}

	if x5u, ok := d.GetURL(jwa.X509URLKey); ok {
		h.x5u = x5u
		h.mark(jwa.X509URLKey)
	}

	var cert0 []byte
	if x5c, ok := d.GetStringArray(jwa.X509CertificateChainKey); ok {
		var certs []*x509.Certificate
		for i, s := range x5c {
			der, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				d.SaveError(fmt.Errorf("jws: failed to parse the parameter x5c[%d]: %w", i, err))
				break
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				d.SaveError(fmt.Errorf("jws: failed to parse certificate: %w", err))
				break
			}
			if cert0 == nil {
				cert0 = der
			}
			certs = append(certs, cert)
		}
		h.x5c = certs
		h.mark(jwa.X509CertificateChainKey)
	}

	if x5t, ok := d.GetBytes(jwa.X509CertificateSHA1Thumbprint); ok {
		h.x5t = x5t
		h.mark(jwa.X509CertificateSHA1Thumbprint)
		if cert0 != nil {
			sum := sha1.Sum(cert0)
			if subtle.ConstantTimeCompare(sum[:], x5t) == 0 {
				d.SaveError(errors.New("jws: sha-1 thumbprint of certificate is mismatch"))
			}
		}
	}

	if x5t256, ok := d.GetBytes(jwa.X509CertificateSHA256Thumbprint); ok {
		h.x5tS256 = x5t256
		h.mark(jwa.X509CertificateSHA256Thumbprint)
		if cert0 != nil {
			sum := sha256.Sum256(cert0)
			if subtle.ConstantTimeCompare(sum[:], x5t256) == 0 {
				d.SaveError(errors.New("jws: sha-256 thumbprint of certificate is mismatch"))
			}
		}
	}

	if typ, ok := d.GetString(jwa.TypeKey); ok {
		h.typ = typ
		h.mark(jwa.TypeKey)
	}
	if cty, ok := d.GetString(jwa.ContentTypeKey); ok {
		h.cty = cty
		h.mark(jwa.ContentTypeKey)
	}
	if crit, ok := d.GetStringArray(jwa.CriticalKey); ok {
		if len(crit) == 0 {
			d.SaveError(errors.New("jws: the crit parameter must not be empty"))
		}
		h.crit = crit
		h.mark(jwa.CriticalKey)
	}
	if b64, ok := d.GetBoolean(jwa.Base64URLEncodePayloadKey); ok {
		h.nb64 = !b64
		h.mark(jwa.Base64URLEncodePayloadKey)
	}

	if err := d.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

func encodeHeader(h *Header) (*jsonutils.Object, error) {
	e := jsonutils.NewEncoder(nil)
	for _, name := range h.names {
		switch name {
		case jwa.AlgorithmKey:
			if v := h.alg; v != "" {
				e.Set(jwa.AlgorithmKey, v.String())
			}
		case jwa.JWKSetURLKey:
			if u := h.jku; u != nil {
				e.Set(jwa.JWKSetURLKey, u.String())
			}
		case jwa.JSONWebKey:
			if key := h.jwk; key != nil {
				data, err := key.MarshalJSON()
				if err != nil {
					e.SaveError(err)
				} else {
					e.Set(jwa.JSONWebKey, json.RawMessage(data))
				}
			}
		case jwa.KeyIDKey:
			if kid := h.kid; kid != "" {
				e.Set(jwa.KeyIDKey, kid)
			}
		case jwa.X509URLKey:
			if x5u := h.x5u; x5u != nil {
				e.Set(jwa.X509URLKey, x5u.String())
			}
		case jwa.X509CertificateChainKey:
			if x5c := h.x5c; x5c != nil {
				chain := make([]string, 0, len(x5c))
				for _, cert := range x5c {
					chain = append(chain, base64.StdEncoding.EncodeToString(cert.Raw))
				}
				e.Set(jwa.X509CertificateChainKey, chain)
			}
		case jwa.X509CertificateSHA1Thumbprint:
			if x5t := h.x5t; x5t != nil {
				e.SetBytes(jwa.X509CertificateSHA1Thumbprint, x5t)
			} else if len(h.x5c) > 0 {
				sum := sha1.Sum(h.x5c[0].Raw)
				e.SetBytes(jwa.X509CertificateSHA1Thumbprint, sum[:])
			}
		case jwa.X509CertificateSHA256Thumbprint:
			if x5t256 := h.x5tS256; x5t256 != nil {
				e.SetBytes(jwa.X509CertificateSHA256Thumbprint, x5t256)
			} else if len(h.x5c) > 0 {
				sum := sha256.Sum256(h.x5c[0].Raw)
				e.SetBytes(jwa.X509CertificateSHA256Thumbprint, sum[:])
			}
		case jwa.TypeKey:
			if typ := h.typ; typ != "" {
				e.Set(jwa.TypeKey, typ)
			}
		case jwa.ContentTypeKey:
			if cty := h.cty; cty != "" {
				e.Set(jwa.ContentTypeKey, cty)
			}
		case jwa.CriticalKey:
			if crit := h.crit; len(crit) > 0 {
				e.Set(jwa.CriticalKey, crit)
			}
		case jwa.Base64URLEncodePayloadKey:
			if h.nb64 {
				e.Set(jwa.Base64URLEncodePayloadKey, false)
			}
		default:
			if v, ok := h.Raw[name]; ok {
				e.Set(name, v)
			}
		}
	}
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Object(), nil
}

// Message is a JWS message: a payload and, once signed, a signature
// bound to a protected header.
type Message struct {
	payload  []byte // base64url-encoded unless nb64
	nb64     bool
	detached bool

	protected    *Header
	rawProtected []byte // base64url octets of the serialized protected header
	signature    []byte
	b64signature []byte
}

// NewMessage returns a new unsigned Message carrying payload.
func NewMessage(payload []byte) *Message {
	return &Message{
		payload: b64Encode(payload),
	}
}

// NewRawMessage returns a new unsigned Message whose payload is not
// base64url-encoded (RFC 7797).
func NewRawMessage(payload []byte) *Message {
	return &Message{
		payload: append([]byte(nil), payload...),
		nb64:    true,
	}
}

// Header returns the protected header, or nil before signing or parsing.
func (msg *Message) Header() *Header {
	return msg.protected
}

// Detached reports whether the message was parsed from a detached
// compact serialization and still lacks its payload.
func (msg *Message) Detached() bool {
	return msg.detached
}

// SetEncodedPayload supplies the externally transmitted payload of a
// detached message. payload must be the base64url-encoded form (or the
// raw form for b64=false messages).
func (msg *Message) SetEncodedPayload(payload []byte) {
	msg.payload = append([]byte(nil), payload...)
	msg.detached = false
}

// UnverifiedPayload returns the decoded payload WITHOUT verifying any
// signature. Callers must treat the result as untrusted input; use
// [Verifier.Verify] to obtain an authenticated payload.
func (msg *Message) UnverifiedPayload() ([]byte, error) {
	if msg.nb64 {
		return msg.payload, nil
	}
	payload, err := b64Decode(msg.payload)
	if err != nil {
		return nil, ErrMalformed
	}
	return payload, nil
}

// Sign computes the signature over the signing input and binds the
// protected header to the message. The header's "alg" parameter must be
// set.
func (msg *Message) Sign(protected *Header, key sig.SigningKey) error {
	if protected == nil || protected.alg == "" {
		return errors.New("jws: algorithm is not set")
	}
	if msg.nb64 != protected.nb64 {
		return errors.New("jws: failed to sign: b64 is mismatch")
	}

	obj, err := encodeHeader(protected)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	raw = b64Encode(raw)

	buf := make([]byte, 0, len(raw)+len(msg.payload)+1)
	buf = append(buf, raw...)
	buf = append(buf, '.')
	buf = append(buf, msg.payload...)
	signature, err := key.Sign(buf)
	if err != nil {
		return fmt.Errorf("jws: failed to sign: %w", err)
	}

	msg.protected = protected
	msg.rawProtected = raw
	msg.signature = signature
	msg.b64signature = b64Encode(signature)
	return nil
}

// Compact encodes the signed message into the compact serialization.
func (msg *Message) Compact() ([]byte, error) {
	if msg.signature == nil {
		return nil, errors.New("jws: message is not signed")
	}
	if msg.nb64 && bytes.IndexByte(msg.payload, '.') >= 0 {
		return nil, errors.New("jws: raw payload contains a period; use CompactDetached")
	}
	buf := make([]byte, 0, len(msg.rawProtected)+len(msg.payload)+len(msg.b64signature)+2)
	buf = append(buf, msg.rawProtected...)
	buf = append(buf, '.')
	buf = append(buf, msg.payload...)
	buf = append(buf, '.')
	buf = append(buf, msg.b64signature...)
	return buf, nil
}

// CompactDetached encodes the signed message into the detached compact
// serialization: the payload part is empty and must travel out-of-band.
func (msg *Message) CompactDetached() ([]byte, error) {
	if msg.signature == nil {
		return nil, errors.New("jws: message is not signed")
	}
	buf := make([]byte, 0, len(msg.rawProtected)+len(msg.b64signature)+2)
	buf = append(buf, msg.rawProtected...)
	buf = append(buf, '.')
	buf = append(buf, '.')
	buf = append(buf, msg.b64signature...)
	return buf, nil
}

// ParseCompact parses a compact serialized JWS.
// An empty payload part yields a detached message; supply the payload
// with [Message.SetEncodedPayload] before verifying.
func ParseCompact(data []byte) (*Message, error) {
	if bytes.Count(data, []byte{'.'}) != 2 {
		return nil, ErrMalformed
	}
	data = append([]byte(nil), data...)
	idx1 := bytes.IndexByte(data, '.')
	idx2 := bytes.LastIndexByte(data, '.')
	b64header := data[:idx1]
	payload := data[idx1+1 : idx2]
	b64signature := data[idx2+1:]

	header, err := b64Decode(b64header)
	if err != nil {
		return nil, fmt.Errorf("jws: failed to parse JOSE header: %w", ErrMalformed)
	}
	var h Header
	if err := h.UnmarshalJSON(header); err != nil {
		return nil, fmt.Errorf("jws: failed to parse JOSE header: %v: %w", err, ErrMalformed)
	}

	signature, err := b64Decode(b64signature)
	if err != nil {
		return nil, fmt.Errorf("jws: failed to parse signature: %w", ErrMalformed)
	}

	return &Message{
		payload:      payload,
		nb64:         h.nb64,
		detached:     len(payload) == 0,
		protected:    &h,
		rawProtected: b64header,
		signature:    signature,
		b64signature: b64signature,
	}, nil
}

func b64Decode(src []byte) ([]byte, error) {
	dst := make([]byte, b64.DecodedLen(len(src)))
	n, err := b64.Decode(dst, src)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func b64Encode(src []byte) []byte {
	dst := make([]byte, b64.EncodedLen(len(src)))
	b64.Encode(dst, src)
	return dst
}
