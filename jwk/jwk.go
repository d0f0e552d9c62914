// Package jwk handles JSON Web Key defined in RFC 7517.
package jwk

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"reflect"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/x448"
)

// ErrMalformedKey means the JSON object is not a valid JWK.
var ErrMalformedKey = errors.New("jwk: malformed key")

// ErrUnknownMember means strict parsing found a member the key type
// does not define.
var ErrUnknownMember = errors.New("jwk: unknown member")

// Key is a JSON Web Key.
//
// A Key is immutable once parsed; the setters exist for keys under
// construction from native key material.
type Key struct {
	kty     jwa.KeyType
	use     jwktypes.KeyUse
	keyOps  []jwktypes.KeyOp
	alg     jwa.KeyAlgorithm
	kid     string
	x5u     *url.URL
	x5c     []*x509.Certificate
	x5t     []byte
	x5tS256 []byte
	priv    crypto.PrivateKey
	pub     crypto.PublicKey

	// Raw is the raw data of the JSON-decoded JWK.
	// JSON numbers are decoded as json.Number to avoid data loss.
	Raw map[string]any
}

// KeyType is RFC 7517 4.1. "kty" (Key Type) Parameter.
func (key *Key) KeyType() jwa.KeyType {
	return key.kty
}

// PublicKeyUse is RFC 7517 4.2. "use" (Public Key Use) Parameter.
func (key *Key) PublicKeyUse() jwktypes.KeyUse {
	return key.use
}

func (key *Key) SetPublicKeyUse(use jwktypes.KeyUse) {
	key.use = use
}

// KeyOperations is RFC 7517 4.3. "key_ops" (Key Operations) Parameter.
func (key *Key) KeyOperations() []jwktypes.KeyOp {
	return key.keyOps
}

func (key *Key) SetKeyOperations(keyOps []jwktypes.KeyOp) {
	key.keyOps = keyOps
}

// Algorithm is RFC 7517 4.4. "alg" (Algorithm) Parameter.
func (key *Key) Algorithm() jwa.KeyAlgorithm {
	return key.alg
}

func (key *Key) SetAlgorithm(alg jwa.KeyAlgorithm) {
	key.alg = alg
}

// KeyID is RFC 7517 4.5. "kid" (Key ID) Parameter.
func (key *Key) KeyID() string {
	return key.kid
}

func (key *Key) SetKeyID(kid string) {
	key.kid = kid
}

// X509URL is RFC 7517 4.6. "x5u" (X.509 URL) Parameter.
func (key *Key) X509URL() *url.URL {
	return key.x5u
}

func (key *Key) SetX509URL(x5u *url.URL) {
	key.x5u = x5u
}

// X509CertificateChain is RFC 7517 4.7. "x5c" (X.509 Certificate Chain) Parameter.
func (key *Key) X509CertificateChain() []*x509.Certificate {
	return key.x5c
}

func (key *Key) SetX509CertificateChain(x5c []*x509.Certificate) {
	key.x5c = x5c
}

// X509CertificateSHA1 is RFC 7517 4.8. "x5t" (X.509 Certificate SHA-1 Thumbprint) Parameter.
func (key *Key) X509CertificateSHA1() []byte {
	return key.x5t
}

func (key *Key) SetX509CertificateSHA1(x5t []byte) {
	key.x5t = x5t
}

// X509CertificateSHA256 is RFC 7517 4.9. "x5t#S256" (X.509 Certificate SHA-256 Thumbprint) Parameter.
func (key *Key) X509CertificateSHA256() []byte {
	return key.x5tS256
}

func (key *Key) SetX509CertificateSHA256(x5tS256 []byte) {
	key.x5tS256 = x5tS256
}

// PrivateKey returns the private key.
// If the key doesn't contain any private key, it returns nil.
func (key *Key) PrivateKey() crypto.PrivateKey {
	return key.priv
}

// PublicKey returns the public key.
// If the key doesn't contain any public key, it returns nil.
func (key *Key) PublicKey() crypto.PublicKey {
	return key.pub
}

// NewPrivateKey returns a new Key wrapping a native private key.
func NewPrivateKey(key crypto.PrivateKey) (*Key, error) {
	switch key := key.(type) {
	case *ecdsa.PrivateKey:
		if err := validateEcdsaPrivateKey(key); err != nil {
			return nil, err
		}
		return &Key{
			kty:  jwa.EC,
			priv: key,
			pub:  key.Public(),
		}, nil
	case *rsa.PrivateKey:
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("jwk: invalid rsa private key: %w", err)
		}
		return &Key{
			kty:  jwa.RSA,
			priv: key,
			pub:  key.Public(),
		}, nil
	case ed25519.PrivateKey:
		if len(key) != ed25519.PrivateKeySize {
			return nil, errors.New("jwk: invalid ed25519 private key size")
		}
		return &Key{
			kty:  jwa.OKP,
			priv: key,
			pub:  key.Public(),
		}, nil
	case ed448.PrivateKey:
		if len(key) != ed448.PrivateKeySize {
			return nil, errors.New("jwk: invalid ed448 private key size")
		}
		return &Key{
			kty:  jwa.OKP,
			priv: key,
			pub:  key.Public(),
		}, nil
	case *ecdh.PrivateKey:
		if key.Curve() != ecdh.X25519() {
			return nil, errors.New("jwk: ecdh private keys other than X25519 must be provided in ecdsa form")
		}
		return &Key{
			kty:  jwa.OKP,
			priv: key,
			pub:  key.Public(),
		}, nil
	case x448.PrivateKey:
		if len(key) != x448.SeedSize {
			return nil, errors.New("jwk: invalid x448 private key size")
		}
		return &Key{
			kty:  jwa.OKP,
			priv: key,
			pub:  key.Public(),
		}, nil
	case []byte:
		return &Key{
			kty:  jwa.Oct,
			priv: append([]byte(nil), key...),
		}, nil
	default:
		return nil, fmt.Errorf("jwk: unknown private key type: %T", key)
	}
}

// NewPublicKey returns a new Key wrapping a native public key.
func NewPublicKey(key crypto.PublicKey) (*Key, error) {
	switch key := key.(type) {
	case *ecdsa.PublicKey:
		if err := validateEcdsaPublicKey(key); err != nil {
			return nil, err
		}
		return &Key{
			kty: jwa.EC,
			pub: key,
		}, nil
	case *rsa.PublicKey:
		return &Key{
			kty: jwa.RSA,
			pub: key,
		}, nil
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return nil, errors.New("jwk: invalid ed25519 public key size")
		}
		return &Key{
			kty: jwa.OKP,
			pub: key,
		}, nil
	case ed448.PublicKey:
		if len(key) != ed448.PublicKeySize {
			return nil, errors.New("jwk: invalid ed448 public key size")
		}
		return &Key{
			kty: jwa.OKP,
			pub: key,
		}, nil
	case *ecdh.PublicKey:
		if key.Curve() != ecdh.X25519() {
			return nil, errors.New("jwk: ecdh public keys other than X25519 must be provided in ecdsa form")
		}
		return &Key{
			kty: jwa.OKP,
			pub: key,
		}, nil
	case x448.PublicKey:
		if len(key) != x448.PublicKeySize {
			return nil, errors.New("jwk: invalid x448 public key size")
		}
		return &Key{
			kty: jwa.OKP,
			pub: key,
		}, nil
	default:
		return nil, fmt.Errorf("jwk: unknown public key type: %T", key)
	}
}

// Public returns the public view of the key: the same key with every
// private parameter removed. For symmetric keys it returns nil; they
// have no public view.
func (key *Key) Public() *Key {
	if key.kty == jwa.Oct {
		return nil
	}
	pub := *key
	pub.priv = nil
	pub.Raw = nil
	return &pub
}

// ParseKey parses a JWK.
// Unknown members are retained in Raw but otherwise ignored.
func ParseKey(data []byte) (*Key, error) {
	return parseKey(data, false)
}

// ParseKeyStrict parses a JWK and rejects members the key type does not
// define with an error matching [ErrUnknownMember].
func ParseKeyStrict(data []byte) (*Key, error) {
	return parseKey(data, true)
}

func parseKey(data []byte, strict bool) (*Key, error) {
	var raw map[string]any
	if err := jsonutils.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("jwk: failed to parse JWK: %v: %w", err, ErrMalformedKey)
	}
	return parseMap(raw, strict)
}

// ParseMap parses a JWK that has been decoded by the json package.
func ParseMap(raw map[string]any) (*Key, error) {
	return parseMap(raw, false)
}

var commonMembers = [...]string{
	"kty", "kid", "use", "key_ops", "alg",
	"x5u", "x5c", "x5t", "x5t#S256",
}

var variantMembers = map[jwa.KeyType][]string{
	jwa.EC:  {"crv", "x", "y", "d"},
	jwa.RSA: {"n", "e", "d", "p", "q", "dp", "dq", "qi", "oth"},
	jwa.OKP: {"crv", "x", "d"},
	jwa.Oct: {"k"},
}

func checkMembers(raw map[string]any, kty jwa.KeyType) error {
MEMBERS:
	for name := range raw {
		for _, known := range commonMembers {
			if name == known {
				continue MEMBERS
			}
		}
		for _, known := range variantMembers[kty] {
			if name == known {
				continue MEMBERS
			}
		}
		return fmt.Errorf("jwk: unknown member %q for key type %q: %w", name, kty.String(), ErrUnknownMember)
	}
	return nil
}

func parseMap(raw map[string]any, strict bool) (*Key, error) {
	d := jsonutils.NewDecoder("jwk", raw)
	key := &Key{
		Raw: raw,
	}
	decodeCommonParameters(d, key)
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedKey)
	}
	if strict {
		if err := checkMembers(raw, key.kty); err != nil {
			return nil, err
		}
	}

	switch key.kty {
	case jwa.EC:
		parseEcdsaKey(d, key)
	case jwa.RSA:
		parseRSAKey(d, key)
	case jwa.OKP:
		parseOKPKey(d, key)
	case jwa.Oct:
		parseSymmetricKey(d, key)
	default:
		return nil, fmt.Errorf("jwk: unknown key type: %q: %w", key.kty, ErrMalformedKey)
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedKey)
	}
	return key, nil
}

// decode common parameters such as certificates and thumbprints.
func decodeCommonParameters(d *jsonutils.Decoder, key *Key) {
	key.kty = jwa.KeyType(d.MustString("kty"))
	key.kid, _ = d.GetString("kid")
	if use, ok := d.GetString("use"); ok {
		key.use = jwktypes.KeyUse(use)
	}
	if ops, ok := d.GetStringArray("key_ops"); ok {
		key.keyOps = make([]jwktypes.KeyOp, len(ops))
		for i := range ops {
			key.keyOps[i] = jwktypes.KeyOp(ops[i])
		}
	}
	if alg, ok := d.GetString("alg"); ok {
		key.alg = jwa.KeyAlgorithm(alg)
	}

	if x5u, ok := d.GetURL("x5u"); ok {
		key.x5u = x5u
	}
	var cert0 []byte
	if x5c, ok := d.GetStringArray("x5c"); ok {
		var certs []*x509.Certificate
		for i, s := range x5c {
			der, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				d.SaveError(fmt.Errorf("jwk: failed to parse the parameter x5c[%d]: %w", i, err))
				return
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				d.SaveError(fmt.Errorf("jwk: failed to parse certificate: %w", err))
				return
			}
			if cert0 == nil {
				cert0 = der
			}
			certs = append(certs, cert)
		}
		key.x5c = certs
	}

	// check the certificate thumbprints
	if x5t, ok := d.GetBytes("x5t"); ok {
		key.x5t = x5t
		if cert0 != nil {
			sum := sha1.Sum(cert0)
			if subtle.ConstantTimeCompare(sum[:], x5t) == 0 {
				d.SaveError(errors.New("jwk: sha-1 thumbprint of certificate is mismatch"))
			}
		}
	}
	if x5t256, ok := d.GetBytes("x5t#S256"); ok {
		key.x5tS256 = x5t256
		if cert0 != nil {
			sum := sha256.Sum256(cert0)
			if subtle.ConstantTimeCompare(sum[:], x5t256) == 0 {
				d.SaveError(errors.New("jwk: sha-256 thumbprint of certificate is mismatch"))
			}
		}
	}
}

func encodeCommonParameters(e *jsonutils.Encoder, key *Key) {
	e.Set("kty", key.kty.String())
	if v := key.kid; v != "" {
		e.Set("kid", v)
	}
	if v := key.use; v != "" {
		e.Set("use", v.String())
	}
	if v := key.keyOps; v != nil {
		ops := make([]string, len(v))
		for i := range v {
			ops[i] = v[i].String()
		}
		e.Set("key_ops", ops)
	}
	if v := key.alg; v != "" {
		e.Set("alg", v.String())
	}
	if x5u := key.x5u; x5u != nil {
		e.Set("x5u", x5u.String())
	}
	if x5c := key.x5c; x5c != nil {
		chain := make([]string, 0, len(x5c))
		for _, cert := range x5c {
			chain = append(chain, base64.StdEncoding.EncodeToString(cert.Raw))
		}
		e.Set("x5c", chain)
	}
	if x5t := key.x5t; x5t != nil {
		e.SetBytes("x5t", x5t)
	} else if len(key.x5c) > 0 {
		sum := sha1.Sum(key.x5c[0].Raw)
		e.SetBytes("x5t", sum[:])
	}
	if x5t256 := key.x5tS256; x5t256 != nil {
		e.SetBytes("x5t#S256", x5t256)
	} else if len(key.x5c) > 0 {
		sum := sha256.Sum256(key.x5c[0].Raw)
		e.SetBytes("x5t#S256", sum[:])
	}
}

var _ json.Unmarshaler = (*Key)(nil)

// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (key *Key) UnmarshalJSON(data []byte) error {
	k, err := ParseKey(data)
	if err != nil {
		return err
	}
	*key = *k
	return nil
}

var _ json.Marshaler = (*Key)(nil)

// MarshalJSON implements [encoding/json.Marshaler].
func (key *Key) MarshalJSON() ([]byte, error) {
	e := jsonutils.NewEncoder(nil)
	encodeCommonParameters(e, key)
	key.encodeKeyParameters(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(e.Object())
}

func (key *Key) encodeKeyParameters(e *jsonutils.Encoder) {
	switch priv := key.priv.(type) {
	case *ecdsa.PrivateKey:
		encodeEcdsaKey(e, priv, &priv.PublicKey)
	case *rsa.PrivateKey:
		encodeRSAKey(e, priv, &priv.PublicKey)
	case ed25519.PrivateKey:
		encodeOKPKey(e, jwa.Ed25519, priv.Public().(ed25519.PublicKey), priv.Seed())
	case ed448.PrivateKey:
		encodeOKPKey(e, jwa.Ed448, priv.Public().(ed448.PublicKey), priv.Seed())
	case *ecdh.PrivateKey:
		encodeOKPKey(e, jwa.X25519, priv.PublicKey().Bytes(), priv.Bytes())
	case x448.PrivateKey:
		encodeOKPKey(e, jwa.X448, priv.Public().(x448.PublicKey), priv)
	case []byte:
		encodeSymmetricKey(e, priv)
	case nil:
		switch pub := key.pub.(type) {
		case *ecdsa.PublicKey:
			encodeEcdsaKey(e, nil, pub)
		case *rsa.PublicKey:
			encodeRSAKey(e, nil, pub)
		case ed25519.PublicKey:
			encodeOKPKey(e, jwa.Ed25519, pub, nil)
		case ed448.PublicKey:
			encodeOKPKey(e, jwa.Ed448, pub, nil)
		case *ecdh.PublicKey:
			encodeOKPKey(e, jwa.X25519, pub.Bytes(), nil)
		case x448.PublicKey:
			encodeOKPKey(e, jwa.X448, pub, nil)
		default:
			e.SaveError(newUnknownKeyTypeError(key))
		}
	default:
		e.SaveError(newUnknownKeyTypeError(key))
	}
}

// Thumbprint computes the thumbprint of the key defined in RFC 7638:
// the digest of the JSON encoding of the required members of the key,
// in lexicographic order, with no whitespace.
func (key *Key) Thumbprint(h hash.Hash) ([]byte, error) {
	e := jsonutils.NewEncoder(nil)
	switch key.kty {
	case jwa.EC:
		pub, ok := key.pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, newUnknownKeyTypeError(key)
		}
		size := (pub.Curve.Params().BitSize + 7) / 8
		e.Set("crv", curveName(pub.Curve).String())
		e.Set("kty", jwa.EC.String())
		e.SetFixedBigInt("x", pub.X, size)
		e.SetFixedBigInt("y", pub.Y, size)
	case jwa.RSA:
		pub, ok := key.pub.(*rsa.PublicKey)
		if !ok {
			return nil, newUnknownKeyTypeError(key)
		}
		e.SetBytes("e", encodeRSAExponent(pub.E))
		e.Set("kty", jwa.RSA.String())
		e.SetBigInt("n", pub.N)
	case jwa.OKP:
		crv, x, err := okpPublicParameters(key)
		if err != nil {
			return nil, err
		}
		e.Set("crv", crv.String())
		e.Set("kty", jwa.OKP.String())
		e.SetBytes("x", x)
	case jwa.Oct:
		k, ok := key.priv.([]byte)
		if !ok {
			return nil, newUnknownKeyTypeError(key)
		}
		e.SetBytes("k", k)
		e.Set("kty", jwa.Oct.String())
	default:
		return nil, fmt.Errorf("jwk: unknown key type: %q", key.kty)
	}
	if err := e.Err(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e.Object())
	if err != nil {
		return nil, err
	}
	if _, err := h.Write(data); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

type unknownKeyTypeError struct {
	priv reflect.Type
	pub  reflect.Type
}

func newUnknownKeyTypeError(key *Key) *unknownKeyTypeError {
	return &unknownKeyTypeError{
		priv: reflect.TypeOf(key.priv),
		pub:  reflect.TypeOf(key.pub),
	}
}

func (err *unknownKeyTypeError) Error() string {
	priv := "nil"
	if err.priv != nil {
		priv = err.priv.String()
	}
	pub := "nil"
	if err.pub != nil {
		pub = err.pub.String()
	}
	return "jwk: unknown private and public key type: " + priv + ", " + pub
}
