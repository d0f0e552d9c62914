// Package jwe handles JSON Web Encryption defined in RFC 7516.
//
// Only the compact serialization is produced and consumed.
package jwe

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
	"math"
	"net/url"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk"
)

var b64 = base64.RawURLEncoding

// ErrMalformed means the input is not a valid compact serialization:
// wrong part count, bad base64url, or a bad JOSE header.
var ErrMalformed = errors.New("jwe: malformed compact serialization")

// ErrDecryptFailed is the single error returned for any authenticity
// failure during decryption: tag mismatch, padding failure, and key
// unwrap failure are deliberately indistinguishable.
var ErrDecryptFailed = errors.New("jwe: failed to decrypt the message")

// header parameters the package itself understands.
var knownParams = [...]string{
	jwa.AlgorithmKey,
	jwa.EncryptionAlgorithmKey,
	jwa.CompressionAlgorithmKey,
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
	jwa.EphemeralPublicKeyKey,
	jwa.AgreementPartyUInfoKey,
	jwa.AgreementPartyVInfoKey,
	jwa.InitializationVectorKey,
	jwa.AuthenticationTagKey,
	jwa.PBES2SaltInputKey,
	jwa.PBES2CountKey,
}

// Header is a decoded JOSE header.
//
// The order in which parameters are set is remembered, and the
// serialized protected header emits them in exactly that order, so an
// authored header is reproducible byte-for-byte. Header updates from
// the key management step (epk, iv, tag, p2s, p2c) land through the
// same setters and are therefore always covered by the AAD.
type Header struct {
	// Raw is the raw data of the JSON-decoded JOSE header.
	// JSON numbers are decoded as json.Number to avoid data loss.
	Raw map[string]any

	names []string // authoring order

	alg     jwa.KeyManagementAlgorithm
	enc     jwa.EncryptionAlgorithm
	zip     jwa.CompressionAlgorithm
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
	epk     *jwk.Key
	apu     []byte
	apv     []byte
	iv      []byte
	tag     []byte
	p2s     []byte
	p2c     int
}

// NewHeader returns a new empty Header.
func NewHeader() *Header {
	return &Header{
		Raw: map[string]any{},
	}
}

// Clone returns a copy of h that shares no mutable state with it.
func (h *Header) Clone() *Header {
	if h == nil {
		return NewHeader()
	}
	clone := *h
	clone.names = append([]string(nil), h.names...)
	raw := make(map[string]any, len(h.Raw))
	for k, v := range h.Raw {
		raw[k] = v
	}
	clone.Raw = raw
	return &clone
}

func (h *Header) mark(name string) {
	for _, n := range h.names {
		if n == name {
			return
		}
	}
	h.names = append(h.names, name)
}

// Algorithm is RFC 7516 Section 4.1.1. "alg" (Algorithm) Header Parameter.
func (h *Header) Algorithm() jwa.KeyManagementAlgorithm {
	if h == nil {
		return ""
	}
	return h.alg
}

func (h *Header) SetAlgorithm(alg jwa.KeyManagementAlgorithm) {
	h.alg = alg
	h.mark(jwa.AlgorithmKey)
}

// EncryptionAlgorithm is RFC 7516 Section 4.1.2. "enc" (Encryption Algorithm) Header Parameter.
func (h *Header) EncryptionAlgorithm() jwa.EncryptionAlgorithm {
	if h == nil {
		return ""
	}
	return h.enc
}

func (h *Header) SetEncryptionAlgorithm(enc jwa.EncryptionAlgorithm) {
	h.enc = enc
	h.mark(jwa.EncryptionAlgorithmKey)
}

// CompressionAlgorithm is RFC 7516 Section 4.1.3. "zip" (Compression Algorithm) Header Parameter.
func (h *Header) CompressionAlgorithm() jwa.CompressionAlgorithm {
	if h == nil {
		return ""
	}
	return h.zip
}

func (h *Header) SetCompressionAlgorithm(zip jwa.CompressionAlgorithm) {
	h.zip = zip
	h.mark(jwa.CompressionAlgorithmKey)
}

// JWKSetURL is RFC 7516 Section 4.1.4. "jku" (JWK Set URL) Header Parameter.
func (h *Header) JWKSetURL() *url.URL {
	if h == nil {
		return nil
	}
	return h.jku
}

func (h *Header) SetJWKSetURL(jku *url.URL) {
	h.jku = jku
	h.mark(jwa.JWKSetURLKey)
}

// JWK is RFC 7516 Section 4.1.5. "jwk" (JSON Web Key) Header Parameter.
func (h *Header) JWK() *jwk.Key {
	if h == nil {
		return nil
	}
	return h.jwk
}

func (h *Header) SetJWK(key *jwk.Key) {
	h.jwk = key
	h.mark(jwa.JSONWebKey)
}

// KeyID is RFC 7516 Section 4.1.6. "kid" (Key ID) Header Parameter.
func (h *Header) KeyID() string {
	if h == nil {
		return ""
	}
	return h.kid
}

func (h *Header) SetKeyID(kid string) {
	h.kid = kid
	h.mark(jwa.KeyIDKey)
}

// X509URL is RFC 7516 Section 4.1.7. "x5u" (X.509 URL) Header Parameter.
func (h *Header) X509URL() *url.URL {
	if h == nil {
		return nil
	}
	return h.x5u
}

func (h *Header) SetX509URL(x5u *url.URL) {
	h.x5u = x5u
	h.mark(jwa.X509URLKey)
}

// X509CertificateChain is RFC 7516 Section 4.1.8. "x5c" (X.509 Certificate Chain) Header Parameter.
func (h *Header) X509CertificateChain() []*x509.Certificate {
	if h == nil {
		return nil
	}
	return h.x5c
}

func (h *Header) SetX509CertificateChain(x5c []*x509.Certificate) {
	h.x5c = x5c
	h.mark(jwa.X509CertificateChainKey)
}

// X509CertificateSHA1 is RFC 7516 Section 4.1.9. "x5t" (X.509 Certificate SHA-1 Thumbprint) Header Parameter.
func (h *Header) X509CertificateSHA1() []byte {
	if h == nil {
		return nil
	}
	return h.x5t
}

func (h *Header) SetX509CertificateSHA1(x5t []byte) {
	h.x5t = x5t
	h.mark(jwa.X509CertificateSHA1Thumbprint)
}

// X509CertificateSHA256 is RFC 7516 Section 4.1.10. "x5t#S256" (X.509 Certificate SHA-256 Thumbprint) Header Parameter.
func (h *Header) X509CertificateSHA256() []byte {
	if h == nil {
		return nil
	}
	return h.x5tS256
}

func (h *Header) SetX509CertificateSHA256(x5tS256 []byte) {
	h.x5tS256 = x5tS256
	h.mark(jwa.X509CertificateSHA256Thumbprint)
}

// Type is RFC 7516 Section 4.1.11. "typ" (Type) Header Parameter.
func (h *Header) Type() string {
	if h == nil {
		return ""
	}
	return h.typ
}

func (h *Header) SetType(typ string) {
	h.typ = typ
	h.mark(jwa.TypeKey)
}

// ContentType is RFC 7516 Section 4.1.12. "cty" (Content Type) Header Parameter.
func (h *Header) ContentType() string {
	if h == nil {
		return ""
	}
	return h.cty
}

func (h *Header) SetContentType(cty string) {
	h.cty = cty
	h.mark(jwa.ContentTypeKey)
}

// Critical is RFC 7516 Section 4.1.13. "crit" (Critical) Header Parameter.
func (h *Header) Critical() []string {
	if h == nil {
		return nil
	}
	return h.crit
}

func (h *Header) SetCritical(crit []string) {
	h.crit = crit
	h.mark(jwa.CriticalKey)
}

// EphemeralPublicKey is RFC 7518 Section 4.6.1.1. "epk" (Ephemeral Public Key) Header Parameter.
func (h *Header) EphemeralPublicKey() *jwk.Key {
	if h == nil {
		return nil
	}
	return h.epk
}

func (h *Header) SetEphemeralPublicKey(epk *jwk.Key) {
	h.epk = epk
	h.mark(jwa.EphemeralPublicKeyKey)
}

// AgreementPartyUInfo is RFC 7518 Section 4.6.1.2. "apu" (Agreement PartyUInfo) Header Parameter.
func (h *Header) AgreementPartyUInfo() []byte {
	if h == nil {
		return nil
	}
	return h.apu
}

func (h *Header) SetAgreementPartyUInfo(apu []byte) {
	h.apu = apu
	h.mark(jwa.AgreementPartyUInfoKey)
}

// AgreementPartyVInfo is RFC 7518 Section 4.6.1.3. "apv" (Agreement PartyVInfo) Header Parameter.
func (h *Header) AgreementPartyVInfo() []byte {
	if h == nil {
		return nil
	}
	return h.apv
}

func (h *Header) SetAgreementPartyVInfo(apv []byte) {
	h.apv = apv
	h.mark(jwa.AgreementPartyVInfoKey)
}

// InitializationVector is RFC 7518 Section 4.7.1.1. "iv" (Initialization Vector) Header Parameter.
// It is the 96-bit IV used for the key encryption operation.
func (h *Header) InitializationVector() []byte {
	if h == nil {
		return nil
	}
	return h.iv
}

func (h *Header) SetInitializationVector(iv []byte) {
	h.iv = iv
	h.mark(jwa.InitializationVectorKey)
}

// AuthenticationTag is RFC 7518 Section 4.7.1.2. "tag" (Authentication Tag) Header Parameter.
func (h *Header) AuthenticationTag() []byte {
	if h == nil {
		return nil
	}
	return h.tag
}

func (h *Header) SetAuthenticationTag(tag []byte) {
	h.tag = tag
	h.mark(jwa.AuthenticationTagKey)
}

// PBES2SaltInput is RFC 7518 Section 4.8.1.1. "p2s" (PBES2 Salt Input) Header Parameter.
func (h *Header) PBES2SaltInput() []byte {
	if h == nil {
		return nil
	}
	return h.p2s
}

func (h *Header) SetPBES2SaltInput(p2s []byte) {
	h.p2s = p2s
	h.mark(jwa.PBES2SaltInputKey)
}

// PBES2Count is RFC 7518 Section 4.8.1.2. "p2c" (PBES2 Count) Header Parameter.
func (h *Header) PBES2Count() int {
	if h == nil {
		return 0
	}
	return h.p2c
}

func (h *Header) SetPBES2Count(p2c int) {
	if p2c < 0 {
		panic("jwe: p2c is out of range")
	}
	h.p2c = p2c
	h.mark(jwa.PBES2CountKey)
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

// MarshalJSON implements [encoding/json.Marshaler].
// Parameters are emitted in authoring order.
func (h *Header) MarshalJSON() ([]byte, error) {
	obj, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
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

func decodeHeader(raw map[string]any) (*Header, error) {
	d := jsonutils.NewDecoder("jwe", raw)
	h := &Header{
		Raw: raw,
	}

	h.alg = jwa.KeyManagementAlgorithm(d.MustString(jwa.AlgorithmKey))
	h.mark(jwa.AlgorithmKey)
	h.enc = jwa.EncryptionAlgorithm(d.MustString(jwa.EncryptionAlgorithmKey))
	h.mark(jwa.EncryptionAlgorithmKey)

	if zip, ok := d.GetString(jwa.CompressionAlgorithmKey); ok {
		h.zip = jwa.CompressionAlgorithm(zip)
		h.mark(jwa.CompressionAlgorithmKey)
	}
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
				d.SaveError(fmt.Errorf("jwe: failed to parse the parameter x5c[%d]: %w", i, err))
				break
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				d.SaveError(fmt.Errorf("jwe: failed to parse certificate: %w", err))
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
				d.SaveError(errors.New("jwe: sha-1 thumbprint of certificate is mismatch"))
			}
		}
	}
	if x5t256, ok := d.GetBytes(jwa.X509CertificateSHA256Thumbprint); ok {
		h.x5tS256 = x5t256
		h.mark(jwa.X509CertificateSHA256Thumbprint)
		if cert0 != nil {
			sum := sha256.Sum256(cert0)
			if subtle.ConstantTimeCompare(sum[:], x5t256) == 0 {
				d.SaveError(errors.New("jwe: sha-256 thumbprint of certificate is mismatch"))
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
			d.SaveError(errors.New("jwe: the crit parameter must not be empty"))
		}
		h.crit = crit
		h.mark(jwa.CriticalKey)
	}

	if v, ok := d.GetObject(jwa.EphemeralPublicKeyKey); ok {
		key, err := jwk.ParseMap(v)
		if err != nil {
			d.SaveError(err)
		}
		h.epk = key
		h.mark(jwa.EphemeralPublicKeyKey)
	}
	if apu, ok := d.GetBytes(jwa.AgreementPartyUInfoKey); ok {
		h.apu = apu
		h.mark(jwa.AgreementPartyUInfoKey)
	}
	if apv, ok := d.GetBytes(jwa.AgreementPartyVInfoKey); ok {
		h.apv = apv
		h.mark(jwa.AgreementPartyVInfoKey)
	}
	if iv, ok := d.GetBytes(jwa.InitializationVectorKey); ok {
		h.iv = iv
		h.mark(jwa.InitializationVectorKey)
	}
	if tag, ok := d.GetBytes(jwa.AuthenticationTagKey); ok {
		h.tag = tag
		h.mark(jwa.AuthenticationTagKey)
	}
	if p2s, ok := d.GetBytes(jwa.PBES2SaltInputKey); ok {
		h.p2s = p2s
		h.mark(jwa.PBES2SaltInputKey)
	}
	if p2c, ok := d.GetInt64(jwa.PBES2CountKey); ok {
		if p2c <= 0 || p2c > math.MaxInt32 {
			d.SaveError(errors.New("jwe: the parameter p2c is out of range"))
		} else {
			h.p2c = int(p2c)
			h.mark(jwa.PBES2CountKey)
		}
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
				e.Set(jwa.AlgorithmKey, string(v))
			}
		case jwa.EncryptionAlgorithmKey:
			if v := h.enc; v != "" {
				e.Set(jwa.EncryptionAlgorithmKey, v.String())
			}
		case jwa.CompressionAlgorithmKey:
			if v := h.zip; v != "" {
				e.Set(jwa.CompressionAlgorithmKey, v.String())
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
		case jwa.EphemeralPublicKeyKey:
			if epk := h.epk; epk != nil {
				data, err := epk.MarshalJSON()
				if err != nil {
					e.SaveError(err)
				} else {
					e.Set(jwa.EphemeralPublicKeyKey, json.RawMessage(data))
				}
			}
		case jwa.AgreementPartyUInfoKey:
			if apu := h.apu; apu != nil {
				e.SetBytes(jwa.AgreementPartyUInfoKey, apu)
			}
		case jwa.AgreementPartyVInfoKey:
			if apv := h.apv; apv != nil {
				e.SetBytes(jwa.AgreementPartyVInfoKey, apv)
			}
		case jwa.InitializationVectorKey:
			if iv := h.iv; iv != nil {
				e.SetBytes(jwa.InitializationVectorKey, iv)
			}
		case jwa.AuthenticationTagKey:
			if tag := h.tag; tag != nil {
				e.SetBytes(jwa.AuthenticationTagKey, tag)
			}
		case jwa.PBES2SaltInputKey:
			if p2s := h.p2s; p2s != nil {
				e.SetBytes(jwa.PBES2SaltInputKey, p2s)
			}
		case jwa.PBES2CountKey:
			if p2c := h.p2c; p2c != 0 {
				e.Set(jwa.PBES2CountKey, p2c)
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

// Message is a parsed or produced JWE.
type Message struct {
	protected    *Header
	rawProtected []byte // serialized protected header
	b64protected []byte // base64url octets; the AAD

	encryptedKey, b64encryptedKey []byte
	iv, b64iv                     []byte
	ciphertext, b64ciphertext     []byte
	tag, b64tag                   []byte
}

// Header returns the protected header.
func (msg *Message) Header() *Header {
	return msg.protected
}

// EncryptedKey returns the encrypted key part.
func (msg *Message) EncryptedKey() []byte {
	return msg.encryptedKey
}

// Compact encodes the message into the compact serialization:
// five base64url parts joined by periods.
func (msg *Message) Compact() ([]byte, error) {
	if msg.b64protected == nil {
		return nil, errors.New("jwe: message is not encrypted")
	}
	size := len(msg.b64protected) + len(msg.b64encryptedKey) + len(msg.b64iv) +
		len(msg.b64ciphertext) + len(msg.b64tag) + 4
	buf := make([]byte, 0, size)
	buf = append(buf, msg.b64protected...)
	buf = append(buf, '.')
	buf = append(buf, msg.b64encryptedKey...)
	buf = append(buf, '.')
	buf = append(buf, msg.b64iv...)
	buf = append(buf, '.')
	buf = append(buf, msg.b64ciphertext...)
	buf = append(buf, '.')
	buf = append(buf, msg.b64tag...)
	return buf, nil
}

// Parse parses a compact serialized JWE.
func Parse(data []byte) (*Message, error) {
	if bytes.Count(data, []byte{'.'}) != 4 {
		return nil, ErrMalformed
	}
	data = append([]byte(nil), data...)
	parts := bytes.Split(data, []byte{'.'})
	b64protected := parts[0]
	b64encryptedKey := parts[1]
	b64iv := parts[2]
	b64ciphertext := parts[3]
	b64tag := parts[4]

	rawProtected, err := b64Decode(b64protected)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to decode header: %w", ErrMalformed)
	}
	var h Header
	if err := h.UnmarshalJSON(rawProtected); err != nil {
		return nil, fmt.Errorf("jwe: failed to parse header: %v: %w", err, ErrMalformed)
	}

	encryptedKey, err := b64Decode(b64encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to decode encrypted key: %w", ErrMalformed)
	}
	iv, err := b64Decode(b64iv)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to decode iv: %w", ErrMalformed)
	}
	ciphertext, err := b64Decode(b64ciphertext)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to decode ciphertext: %w", ErrMalformed)
	}
	tag, err := b64Decode(b64tag)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to decode tag: %w", ErrMalformed)
	}

	return &Message{
		protected:       &h,
		rawProtected:    rawProtected,
		b64protected:    b64protected,
		encryptedKey:    encryptedKey,
		b64encryptedKey: b64encryptedKey,
		iv:              iv,
		b64iv:           b64iv,
		ciphertext:      ciphertext,
		b64ciphertext:   b64ciphertext,
		tag:             tag,
		b64tag:          b64tag,
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
