// Package ecdhes implements key agreement with Elliptic Curve
// Diffie-Hellman Ephemeral Static (ECDH-ES), in direct mode and with
// AES Key Wrap.
package ecdhes

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	_ "crypto/sha256" // for crypto.SHA256
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwa/akw"
	"github.com/josekit/jose/jwk"
	"github.com/josekit/jose/jwk/jwktypes"
	"github.com/josekit/jose/keymanage"
	"github.com/josekit/jose/x448"
)

var direct = &algorithm{}

// New returns the ECDH-ES key management algorithm: Elliptic Curve
// Diffie-Hellman Ephemeral Static key agreement using Concat KDF in
// direct mode.
func New() keymanage.Algorithm {
	return direct
}

var a128kw = &algorithm{
	name: string(jwa.ECDH_ES_A128KW),
	size: 16,
}

// NewA128KW returns the ECDH-ES+A128KW key management algorithm.
func NewA128KW() keymanage.Algorithm {
	return a128kw
}

var a192kw = &algorithm{
	name: string(jwa.ECDH_ES_A192KW),
	size: 24,
}

// NewA192KW returns the ECDH-ES+A192KW key management algorithm.
func NewA192KW() keymanage.Algorithm {
	return a192kw
}

var a256kw = &algorithm{
	name: string(jwa.ECDH_ES_A256KW),
	size: 32,
}

// NewA256KW returns the ECDH-ES+A256KW key management algorithm.
func NewA256KW() keymanage.Algorithm {
	return a256kw
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A128KW, NewA128KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A192KW, NewA192KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A256KW, NewA256KW)
}

var _ keymanage.Algorithm = (*algorithm)(nil)

// algorithm with size == 0 is direct agreement; otherwise the derived
// key is a KEK of the given size fed into AES Key Wrap.
type algorithm struct {
	name string
	size int
}

type ephemeralPublicKeyGetter interface {
	EphemeralPublicKey() *jwk.Key
}

type ephemeralPublicKeySetter interface {
	SetEphemeralPublicKey(epk *jwk.Key)
}

type agreementPartyInfoGetter interface {
	AgreementPartyUInfo() []byte
	AgreementPartyVInfo() []byte
}

type encryptionGetter interface {
	EncryptionAlgorithm() jwa.EncryptionAlgorithm
}

type contentEncryptionKeySizer interface {
	ContentEncryptionKeySize() int
}

// NewKeyWrapper implements [github.com/josekit/jose/keymanage.Algorithm].
// In direct mode the returned wrapper implements
// [github.com/josekit/jose/keymanage.KeyDeriver].
func (alg *algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	w := keyWrapper{
		alg:       alg,
		priv:      key.PrivateKey(),
		pub:       key.PublicKey(),
		canDerive: jwktypes.CanUseFor(key, jwktypes.KeyOpDeriveKey),
	}
	if alg.size == 0 {
		return &directKeyWrapper{keyWrapper: w}
	}
	return &w
}

var (
	_ keymanage.KeyWrapper = (*keyWrapper)(nil)
	_ keymanage.KeyDeriver = (*directKeyWrapper)(nil)
)

type keyWrapper struct {
	alg       *algorithm
	priv      crypto.PrivateKey
	pub       crypto.PublicKey
	canDerive bool
}

// directKeyWrapper is the direct-agreement form; the CEK is the Concat
// KDF output itself, so it derives instead of wrapping.
type directKeyWrapper struct {
	keyWrapper
}

// DeriveKey implements [github.com/josekit/jose/keymanage.KeyDeriver].
// The CEK is the Concat KDF output and the encrypted key is empty. The
// generated ephemeral public key is published into the header through
// opts.
func (w *directKeyWrapper) DeriveKey(cekSize int, opts any) (cek, encryptedKey []byte, err error) {
	if !w.canDerive {
		return nil, nil, errors.New("ecdhes: key derive operation is not allowed")
	}
	encGetter, ok := opts.(encryptionGetter)
	if !ok {
		return nil, nil, errors.New("ecdhes: EncryptionAlgorithm not found")
	}
	algID := []byte(encGetter.EncryptionAlgorithm().String())
	key, err := w.agreeEphemeral(algID, cekSize, opts)
	if err != nil {
		return nil, nil, err
	}
	return key, []byte{}, nil
}

// WrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
// In wrap mode the derived key is a KEK for AES Key Wrap; the
// AlgorithmID of the KDF is the "alg" identifier.
func (w *keyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if w.alg.size == 0 {
		return nil, errors.New("ecdhes: direct mode doesn't wrap keys")
	}
	if !w.canDerive {
		return nil, errors.New("ecdhes: key derive operation is not allowed")
	}
	kek, err := w.agreeEphemeral([]byte(w.alg.name), w.alg.size, opts)
	if err != nil {
		return nil, err
	}
	data, err := akw.NewKeyWrapper(kek).WrapKey(cek, opts)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to wrap key: %w", err)
	}
	return data, nil
}

// UnwrapKey implements [github.com/josekit/jose/keymanage.KeyWrapper].
func (w *keyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, errors.New("ecdhes: key derive operation is not allowed")
	}
	epkGetter, ok := opts.(ephemeralPublicKeyGetter)
	if !ok {
		return nil, errors.New("ecdhes: EphemeralPublicKey not found")
	}
	epk := epkGetter.EphemeralPublicKey()
	if epk == nil {
		return nil, errors.New("ecdhes: the epk header parameter is missing")
	}

	var algID []byte
	var size int
	if w.alg.size == 0 {
		encGetter, ok := opts.(encryptionGetter)
		if !ok {
			return nil, errors.New("ecdhes: EncryptionAlgorithm not found")
		}
		sizer, ok := opts.(contentEncryptionKeySizer)
		if !ok {
			return nil, errors.New("ecdhes: ContentEncryptionKeySize not found")
		}
		algID = []byte(encGetter.EncryptionAlgorithm().String())
		size = sizer.ContentEncryptionKeySize()
	} else {
		algID = []byte(w.alg.name)
		size = w.alg.size
	}

	z, err := deriveZ(w.priv, epk.PublicKey())
	if err != nil {
		return nil, err
	}
	apu, apv := partyInfo(opts)
	key := make([]byte, size)
	if _, err := io.ReadFull(newKDF(crypto.SHA256, z, algID, apu, apv, size), key); err != nil {
		return nil, err
	}

	if w.alg.size == 0 {
		if len(data) != 0 {
			return nil, errors.New("ecdhes: encrypted key must be empty")
		}
		return key, nil
	}
	cek, err := akw.NewKeyWrapper(key).UnwrapKey(data, opts)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to unwrap key: %w", err)
	}
	return cek, nil
}

func partyInfo(opts any) (apu, apv []byte) {
	if getter, ok := opts.(agreementPartyInfoGetter); ok {
		apu = getter.AgreementPartyUInfo()
		apv = getter.AgreementPartyVInfo()
	}
	return
}

// agreeEphemeral generates an ephemeral key on the curve of the static
// public key, publishes it as the epk header parameter, and derives
// size octets from the shared secret.
func (w *keyWrapper) agreeEphemeral(algID []byte, size int, opts any) ([]byte, error) {
	setter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, errors.New("ecdhes: SetEphemeralPublicKey not found")
	}
	pub := w.pub
	if pub == nil {
		if getter, ok := w.priv.(interface{ Public() crypto.PublicKey }); ok {
			pub = getter.Public()
		}
	}

	var z []byte
	var ephPub crypto.PublicKey
	switch pub := pub.(type) {
	case *ecdsa.PublicKey:
		eph, err := ecdsa.GenerateKey(pub.Curve, rand.Reader)
		if err != nil {
			return nil, err
		}
		ephPub = &eph.PublicKey
		z, err = deriveZ(eph, pub)
		if err != nil {
			return nil, err
		}
	case *ecdh.PublicKey:
		eph, err := pub.Curve().GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		ephPub = eph.PublicKey()
		z, err = eph.ECDH(pub)
		if err != nil {
			return nil, err
		}
	case x448.PublicKey:
		ephPubKey, ephPriv, err := x448.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		ephPub = ephPubKey
		z, err = x448.SharedSecret(ephPriv, pub)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ecdhes: unknown public key type: %T", pub)
	}

	epk, err := jwk.NewPublicKey(ephPub)
	if err != nil {
		return nil, err
	}
	setter.SetEphemeralPublicKey(epk)

	apu, apv := partyInfo(opts)
	key := make([]byte, size)
	if _, err := io.ReadFull(newKDF(crypto.SHA256, z, algID, apu, apv, size), key); err != nil {
		return nil, err
	}
	return key, nil
}

// deriveZ computes the ECDH shared secret between the static private
// key and the ephemeral public key.
func deriveZ(priv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error) {
	switch priv := priv.(type) {
	case *ecdsa.PrivateKey:
		pubkey, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want *ecdsa.PublicKey but got %T", pub)
		}
		if pubkey.Curve != priv.Curve {
			return nil, errors.New("ecdhes: public key must be on the same curve as the private key")
		}
		ecdhPriv, err := priv.ECDH()
		if err != nil {
			return nil, fmt.Errorf("ecdhes: unsupported curve: %w", err)
		}
		ecdhPub, err := pubkey.ECDH()
		if err != nil {
			return nil, fmt.Errorf("ecdhes: unsupported curve: %w", err)
		}
		return ecdhPriv.ECDH(ecdhPub)
	case *ecdh.PrivateKey:
		pubkey, ok := pub.(*ecdh.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want *ecdh.PublicKey but got %T", pub)
		}
		return priv.ECDH(pubkey)
	case x448.PrivateKey:
		pubkey, ok := pub.(x448.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want x448.PublicKey but got %T", pub)
		}
		return x448.SharedSecret(priv, pubkey)
	default:
		return nil, fmt.Errorf("ecdhes: unknown private key type: %T", priv)
	}
}

// kdf is the Concat KDF defined in NIST SP 800-56A Section 5.8.1 with
// SHA-256, as RFC 7518 Section 4.6.2 applies it: AlgorithmID, apu, and
// apv are length-prefixed, SuppPubInfo is the key bit length.
type kdf struct {
	hash hash.Hash

	z []byte

	// AlgorithmID
	alg []byte

	// PartyUInfo, PartyVInfo
	apu, apv []byte

	// SuppPubInfo
	pub [4]byte

	round uint32
	n     int
	buf   []byte
}

func newKDF(h crypto.Hash, z, alg, apu, apv []byte, keySize int) *kdf {
	hh := h.New()
	size := hh.Size()
	if size < 4 {
		size = 4
	}
	r := &kdf{
		hash: hh,
		z:    z,
		alg:  alg,
		apu:  apu,
		apv:  apv,
		buf:  make([]byte, size),
	}
	bits := keySize * 8
	r.pub[0] = byte(bits >> 24)
	r.pub[1] = byte(bits >> 16)
	r.pub[2] = byte(bits >> 8)
	r.pub[3] = byte(bits)
	return r
}

func (r *kdf) Read(data []byte) (n int, err error) {
	if r.n == 0 {
		r.round++
		r.hash.Reset()

		r.putUint32(r.round)
		r.hash.Write(r.z)
		r.putUint32(uint32(len(r.alg)))
		r.hash.Write(r.alg)
		r.putUint32(uint32(len(r.apu)))
		r.hash.Write(r.apu)
		r.putUint32(uint32(len(r.apv)))
		r.hash.Write(r.apv)
		r.hash.Write(r.pub[:])

		r.buf = r.hash.Sum(r.buf[:0])
		r.n = len(r.buf)
	}
	n = copy(data, r.buf[len(r.buf)-r.n:])
	r.n -= n
	return
}

func (r *kdf) putUint32(v uint32) {
	var buf [4]byte
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	r.hash.Write(buf[:])
}
