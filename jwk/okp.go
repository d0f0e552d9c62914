package jwk

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/x448"
)

// RFC 8037 2. Key Type "OKP"
func parseOKPKey(d *jsonutils.Decoder, key *Key) {
	crv := jwa.EllipticCurve(d.MustString("crv"))
	x := d.MustBytes("x")
	var priv []byte
	hasPriv := d.Has("d")
	if hasPriv {
		priv = d.MustBytes("d")
	}
	if d.Err() != nil {
		return
	}

	switch crv {
	case jwa.Ed25519:
		if len(x) != ed25519.PublicKeySize {
			d.SaveError(errors.New("jwk: invalid parameter x"))
			return
		}
		pub := ed25519.PublicKey(append([]byte(nil), x...))
		key.pub = pub
		if hasPriv {
			if len(priv) != ed25519.SeedSize {
				d.SaveError(errors.New("jwk: invalid parameter d"))
				return
			}
			sk := ed25519.NewKeyFromSeed(priv)
			if subtle.ConstantTimeCompare(sk.Public().(ed25519.PublicKey), pub) == 0 {
				d.SaveError(errors.New("jwk: private key doesn't match the public key"))
				return
			}
			key.priv = sk
		}
	case jwa.Ed448:
		if len(x) != ed448.PublicKeySize {
			d.SaveError(errors.New("jwk: invalid parameter x"))
			return
		}
		pub := ed448.PublicKey(append([]byte(nil), x...))
		key.pub = pub
		if hasPriv {
			if len(priv) != ed448.SeedSize {
				d.SaveError(errors.New("jwk: invalid parameter d"))
				return
			}
			sk := ed448.NewKeyFromSeed(priv)
			if subtle.ConstantTimeCompare(sk.Public().(ed448.PublicKey), pub) == 0 {
				d.SaveError(errors.New("jwk: private key doesn't match the public key"))
				return
			}
			key.priv = sk
		}
	case jwa.X25519:
		pub, err := ecdh.X25519().NewPublicKey(x)
		if err != nil {
			d.SaveError(fmt.Errorf("jwk: invalid parameter x: %w", err))
			return
		}
		key.pub = pub
		if hasPriv {
			sk, err := ecdh.X25519().NewPrivateKey(priv)
			if err != nil {
				d.SaveError(fmt.Errorf("jwk: invalid parameter d: %w", err))
				return
			}
			if !sk.PublicKey().Equal(pub) {
				d.SaveError(errors.New("jwk: private key doesn't match the public key"))
				return
			}
			key.priv = sk
		}
	case jwa.X448:
		if len(x) != x448.PublicKeySize {
			d.SaveError(errors.New("jwk: invalid parameter x"))
			return
		}
		pub := x448.PublicKey(append([]byte(nil), x...))
		key.pub = pub
		if hasPriv {
			if len(priv) != x448.SeedSize {
				d.SaveError(errors.New("jwk: invalid parameter d"))
				return
			}
			sk := x448.PrivateKey(append([]byte(nil), priv...))
			if !sk.Public().(x448.PublicKey).Equal(pub) {
				d.SaveError(errors.New("jwk: private key doesn't match the public key"))
				return
			}
			key.priv = sk
		}
	case "":
		d.SaveError(errors.New("jwk: the crv parameter is missing"))
	default:
		d.SaveError(fmt.Errorf("jwk: unknown crv: %q", crv))
	}
}

func encodeOKPKey(e *jsonutils.Encoder, crv jwa.EllipticCurve, x, priv []byte) {
	e.Set("crv", crv.String())
	e.SetBytes("x", x)
	if priv != nil {
		e.SetBytes("d", priv)
	}
}

// okpPublicParameters returns the curve name and the public key octets
// of an OKP key.
func okpPublicParameters(key *Key) (jwa.EllipticCurve, []byte, error) {
	switch pub := key.pub.(type) {
	case ed25519.PublicKey:
		return jwa.Ed25519, pub, nil
	case ed448.PublicKey:
		return jwa.Ed448, pub, nil
	case *ecdh.PublicKey:
		return jwa.X25519, pub.Bytes(), nil
	case x448.PublicKey:
		return jwa.X448, pub, nil
	}
	return "", nil, newUnknownKeyTypeError(key)
}
