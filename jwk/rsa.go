package jwk

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/josekit/jose/internal/jsonutils"
)

// RFC 7518 6.3. Parameters for RSA Keys
func parseRSAKey(d *jsonutils.Decoder, key *Key) {
	// parameters for the public key
	e := d.MustBigInt("e")
	n := d.MustBigInt("n")
	if d.Err() != nil {
		return
	}
	if !e.IsInt64() || e.Int64() > math.MaxInt || e.Int64() <= 0 {
		d.SaveError(fmt.Errorf("jwk: parameter e is out of range"))
		return
	}
	pub := rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}
	key.pub = &pub

	// parameters for the private key
	if d.Has("d") {
		priv := rsa.PrivateKey{
			PublicKey: pub,
			D:         d.MustBigInt("d"),
			Primes: []*big.Int{
				d.MustBigInt("p"),
				d.MustBigInt("q"),
			},
		}

		// precomputed CRT values
		crtValues := []rsa.CRTValue{}
		if oth, ok := d.GetArray("oth"); ok {
			crtValues = make([]rsa.CRTValue, 0, len(oth))
			for i, v := range oth {
				u, ok := v.(map[string]any)
				if !ok {
					d.SaveError(fmt.Errorf("jwk: want map[string]any for the parameter oth[%d] but got %T", i, v))
					return
				}
				r := parseRSAOthParam(d, i, u, "r")
				priv.Primes = append(priv.Primes, r)
				crtValues = append(crtValues, rsa.CRTValue{
					Exp:   parseRSAOthParam(d, i, u, "d"),
					Coeff: parseRSAOthParam(d, i, u, "t"),
					R:     r,
				})
			}
		}
		if d.Has("dp") && d.Has("dq") && d.Has("qi") {
			priv.Precomputed = rsa.PrecomputedValues{
				Dp:        d.MustBigInt("dp"),
				Dq:        d.MustBigInt("dq"),
				Qinv:      d.MustBigInt("qi"),
				CRTValues: crtValues,
			}
		}
		if d.Err() != nil {
			return
		}
		// Validate checks the primes against n and the CRT components
		// against each other.
		if err := priv.Validate(); err != nil {
			d.SaveError(fmt.Errorf("jwk: invalid rsa private key: %w", err))
			return
		}
		priv.Precompute()
		key.priv = &priv
	}

	// sanity check of the certificate
	if certs := key.x5c; len(certs) > 0 {
		if !pub.Equal(certs[0].PublicKey) {
			d.SaveError(errors.New("jwk: public keys are mismatch"))
		}
	}
}

func parseRSAOthParam(d *jsonutils.Decoder, i int, v map[string]any, name string) *big.Int {
	u, ok := v[name]
	if !ok {
		return nil
	}
	w, ok := u.(string)
	if !ok {
		return nil
	}
	return new(big.Int).SetBytes(d.Decode(w, fmt.Sprintf("oth[%d].%s", i, name)))
}

// encodeRSAExponent returns the minimal big-endian octets of the public
// exponent.
func encodeRSAExponent(e int) []byte {
	var buf [8]byte
	i := len(buf)
	for v := e; v != 0; v >>= 8 {
		i--
		buf[i] = byte(v)
	}
	return buf[i:]
}

func encodeRSAKey(e *jsonutils.Encoder, priv *rsa.PrivateKey, pub *rsa.PublicKey) {
	if pub.E <= 0 {
		e.SaveError(fmt.Errorf("jwk: parameter e is out of range: %d", pub.E))
		return
	}
	e.SetBigInt("n", pub.N)
	e.SetBytes("e", encodeRSAExponent(pub.E))

	if priv != nil {
		e.SetBigInt("d", priv.D)
		e.SetBigInt("p", priv.Primes[0])
		e.SetBigInt("q", priv.Primes[1])
		if priv.Precomputed.Dp != nil {
			e.SetBigInt("dp", priv.Precomputed.Dp)
			e.SetBigInt("dq", priv.Precomputed.Dq)
			e.SetBigInt("qi", priv.Precomputed.Qinv)
			oth := make([]map[string]string, 0, len(priv.Precomputed.CRTValues))
			for _, v := range priv.Precomputed.CRTValues {
				oth = append(oth, map[string]string{
					"r": e.Encode(v.R.Bytes()),
					"d": e.Encode(v.Exp.Bytes()),
					"t": e.Encode(v.Coeff.Bytes()),
				})
			}
			if len(oth) > 0 {
				e.Set("oth", oth)
			}
		}
	}
}
