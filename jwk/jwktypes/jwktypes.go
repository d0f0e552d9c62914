// Package jwktypes contains types used by the package jwk.
package jwktypes

// KeyUse is the type of the "use" JWK parameter
// defined in RFC 7517 Section 4.2.
type KeyUse string

const (
	KeyUseUnknown KeyUse = ""

	// KeyUseSig indicates that the key should be used for signatures.
	KeyUseSig KeyUse = "sig"

	// KeyUseEnc indicates that the key should be used for encryption.
	KeyUseEnc KeyUse = "enc"
)

func (use KeyUse) String() string {
	return string(use)
}

// KeyOp is the type of the "key_ops" JWK parameter
// defined in RFC 7517 Section 4.3.
type KeyOp string

const (
	// KeyOpSign is used for computing digital signatures or MACs.
	KeyOpSign KeyOp = "sign"

	// KeyOpVerify is used for verifying digital signatures or MACs.
	KeyOpVerify KeyOp = "verify"

	// KeyOpEncrypt is used for encrypting content.
	KeyOpEncrypt KeyOp = "encrypt"

	// KeyOpDecrypt is used for decrypting content.
	KeyOpDecrypt KeyOp = "decrypt"

	// KeyOpWrapKey is used for encrypting a key.
	KeyOpWrapKey KeyOp = "wrapKey"

	// KeyOpUnwrapKey is used for decrypting a key.
	KeyOpUnwrapKey KeyOp = "unwrapKey"

	// KeyOpDeriveKey is used for deriving a key.
	KeyOpDeriveKey KeyOp = "deriveKey"

	// KeyOpDeriveBits is used for deriving bits not to be used as a key.
	KeyOpDeriveBits KeyOp = "deriveBits"
)

func (op KeyOp) String() string {
	return string(op)
}

type keyUse interface {
	PublicKeyUse() KeyUse
}

type keyOps interface {
	KeyOperations() []KeyOp
}

// CanUseFor reports whether the key's "use" and "key_ops" parameters
// permit the operation op. Keys that expose neither parameter permit
// everything.
func CanUseFor(key any, op KeyOp) bool {
	return checkKeyOps(key, op) && checkKeyUse(key, op)
}

func checkKeyOps(key any, op KeyOp) bool {
	getter, ok := key.(keyOps)
	if !ok {
		return true
	}

	ops := getter.KeyOperations()
	if ops == nil {
		return true
	}

	for _, v := range ops {
		if v == op {
			return true
		}
	}
	return false
}

func checkKeyUse(key any, op KeyOp) bool {
	getter, ok := key.(keyUse)
	if !ok {
		return true
	}

	switch getter.PublicKeyUse() {
	case KeyUseUnknown:
		return true
	case KeyUseSig:
		return op == KeyOpSign || op == KeyOpVerify
	case KeyUseEnc:
		return op == KeyOpEncrypt || op == KeyOpDecrypt ||
			op == KeyOpWrapKey || op == KeyOpUnwrapKey || op == KeyOpDeriveKey
	default:
		return false
	}
}
