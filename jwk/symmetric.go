package jwk

import (
	"fmt"

	"github.com/josekit/jose/internal/jsonutils"
	"github.com/josekit/jose/jwa"
)

// exact key sizes required by algorithms that fix them.
var octKeySizes = map[jwa.KeyAlgorithm]int{
	jwa.A128KW.KeyAlgorithm():    16,
	jwa.A192KW.KeyAlgorithm():    24,
	jwa.A256KW.KeyAlgorithm():    32,
	jwa.A128GCMKW.KeyAlgorithm(): 16,
	jwa.A192GCMKW.KeyAlgorithm(): 24,
	jwa.A256GCMKW.KeyAlgorithm(): 32,
}

// minimum key sizes required by the HMAC algorithms.
var octMinKeySizes = map[jwa.KeyAlgorithm]int{
	jwa.HS256.KeyAlgorithm(): 32,
	jwa.HS384.KeyAlgorithm(): 48,
	jwa.HS512.KeyAlgorithm(): 64,
}

// RFC 7518 6.4. Parameters for Symmetric Keys
func parseSymmetricKey(d *jsonutils.Decoder, key *Key) {
	k := d.MustBytes("k")
	if d.Err() != nil {
		return
	}
	if size, ok := octKeySizes[key.alg]; ok && len(k) != size {
		d.SaveError(fmt.Errorf("jwk: parameter k has %d octets, but the algorithm %s requires %d", len(k), key.alg.String(), size))
		return
	}
	if size, ok := octMinKeySizes[key.alg]; ok && len(k) < size {
		d.SaveError(fmt.Errorf("jwk: parameter k has %d octets, but the algorithm %s requires at least %d", len(k), key.alg.String(), size))
		return
	}
	key.priv = append([]byte(nil), k...)
}

func encodeSymmetricKey(e *jsonutils.Encoder, priv []byte) {
	e.SetBytes("k", priv)
}
