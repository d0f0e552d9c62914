package jwk

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
)

// DecodePEM decodes the first PEM block in data into a Key.
// It understands PKCS#1, PKCS#8, PKIX, and certificate blocks.
func DecodePEM(data []byte) (key *Key, rest []byte, err error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return nil, nil, errors.New("jwk: decoding PEM failed")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPrivateKey(priv)
		if err != nil {
			return nil, nil, err
		}
		return key, rest, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPublicKey(pub)
		if err != nil {
			return nil, nil, err
		}
		return key, rest, nil
	case "EC PRIVATE KEY":
		priv, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPrivateKey(priv)
		if err != nil {
			return nil, nil, err
		}
		return key, rest, nil
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPrivateKey(priv)
		if err != nil {
			return nil, nil, err
		}
		return key, rest, nil
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPublicKey(pub)
		if err != nil {
			return nil, nil, err
		}
		return key, rest, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, err
		}
		key, err := NewPublicKey(cert.PublicKey)
		if err != nil {
			return nil, nil, err
		}
		key.x5c = []*x509.Certificate{cert}
		return key, rest, nil
	default:
		return nil, nil, fmt.Errorf("jwk: unknown PEM block type: %q", block.Type)
	}
}

// EncodePEM encodes the key into a PEM block: PKCS#8 for private keys
// and PKIX for public keys. Symmetric keys have no PEM form.
func EncodePEM(key *Key) ([]byte, error) {
	if key.kty == jwa.Oct {
		return nil, errors.New("jwk: symmetric keys have no PEM form")
	}
	if priv := key.priv; priv != nil {
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("jwk: failed to encode private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: der,
		}), nil
	}
	if pub := key.pub; pub != nil {
		der, err := x509.MarshalPKIXPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("jwk: failed to encode public key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: der,
		}), nil
	}
	return nil, errors.New("jwk: no key material")
}
