package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
)

func curveOf(crv jwa.EllipticCurve) (elliptic.Curve, bool) {
	switch crv {
	case jwa.P256:
		return elliptic.P256(), true
	case jwa.P384:
		return elliptic.P384(), true
	case jwa.P521:
		return elliptic.P521(), true
	}
	return nil, false
}

func curveName(crv elliptic.Curve) jwa.EllipticCurve {
	switch crv {
	case elliptic.P256():
		return jwa.P256
	case elliptic.P384():
		return jwa.P384
	case elliptic.P521():
		return jwa.P521
	}
	return ""
}

// RFC 7518 6.2. Parameters for Elliptic Curve Keys
func parseEcdsaKey(d *jsonutils.Decoder, key *Key) {
	var privateKey ecdsa.PrivateKey
	crv := jwa.EllipticCurve(d.MustString("crv"))
	curve, ok := curveOf(crv)
	if !ok {
		d.SaveError(fmt.Errorf("jwk: unknown crv: %q", crv))
		return
	}
	privateKey.Curve = curve

	// parameters for the public key
	privateKey.X = d.MustBigInt("x")
	privateKey.Y = d.MustBigInt("y")
	if d.Err() != nil {
		return
	}
	if !curve.IsOnCurve(privateKey.X, privateKey.Y) {
		d.SaveError(errors.New("jwk: point is not on the curve"))
		return
	}
	key.pub = &privateKey.PublicKey

	// parameters for the private key
	if d.Has("d") {
		privateKey.D = d.MustBigInt("d")
		if d.Err() != nil {
			return
		}
		if privateKey.D.Sign() <= 0 || privateKey.D.Cmp(curve.Params().N) >= 0 {
			d.SaveError(errors.New("jwk: parameter d is out of range"))
			return
		}
		x, y := curve.ScalarBaseMult(privateKey.D.Bytes())
		if x.Cmp(privateKey.X) != 0 || y.Cmp(privateKey.Y) != 0 {
			d.SaveError(errors.New("jwk: private key doesn't match the public key"))
			return
		}
		key.priv = &privateKey
	}

	// sanity check of the certificate
	if certs := key.x5c; len(certs) > 0 {
		cert, ok := certs[0].PublicKey.(*ecdsa.PublicKey)
		if !ok || !privateKey.PublicKey.Equal(cert) {
			d.SaveError(errors.New("jwk: public keys are mismatch"))
		}
	}
}

func encodeEcdsaKey(e *jsonutils.Encoder, priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) {
	crv := curveName(pub.Curve)
	if crv == "" {
		e.SaveError(fmt.Errorf("jwk: unknown elliptic curve: %v", pub.Curve))
		return
	}
	size := (pub.Curve.Params().BitSize + 7) / 8
	e.Set("crv", crv.String())
	e.SetFixedBigInt("x", pub.X, size)
	e.SetFixedBigInt("y", pub.Y, size)
	if priv != nil {
		e.SetFixedBigInt("d", priv.D, size)
	}
}

func validateEcdsaPrivateKey(key *ecdsa.PrivateKey) error {
	if err := validateEcdsaPublicKey(&key.PublicKey); err != nil {
		return err
	}
	if key.D == nil || key.D.Sign() <= 0 || key.D.Cmp(key.Curve.Params().N) >= 0 {
		return errors.New("jwk: parameter d is out of range")
	}
	return nil
}

func validateEcdsaPublicKey(key *ecdsa.PublicKey) error {
	if curveName(key.Curve) == "" {
		return fmt.Errorf("jwk: unknown elliptic curve: %v", key.Curve)
	}
	if key.X == nil || key.Y == nil || !key.Curve.IsOnCurve(key.X, key.Y) {
		return errors.New("jwk: point is not on the curve")
	}
	return nil
}
