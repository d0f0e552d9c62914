package jwe

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/keymanage"
)

// Encrypter produces JWE messages.
//
// The producer sequence is fixed: the content encryption algorithm
// yields the CEK contract, the key management step produces the CEK
// (or wraps a generated one) and patches the protected header, the
// patched header is encoded and becomes the AAD, and only then is the
// plaintext encrypted.
type Encrypter struct {
	_NamedFieldsRequired struct{}

	// Encryption is the content encryption algorithm ("enc").
	Encryption jwa.EncryptionAlgorithm

	// Registry resolves the algorithm; nil means [jwa.Default].
	Registry *jwa.Registry

	// ContentEncryptionKey overrides the generated CEK. It is ignored
	// for key management algorithms that derive the CEK themselves.
	// Reusing a CEK across messages is the caller's responsibility to
	// avoid; leave it nil outside deterministic tests.
	ContentEncryptionKey []byte

	// InitializationVector overrides the generated IV. IV reuse with
	// the same key is a fatal caller error; leave it nil outside
	// deterministic tests.
	InitializationVector []byte
}

// Encrypt encrypts plaintext for the recipient represented by kw and
// returns the complete message.
func (e *Encrypter) Encrypt(kw keymanage.KeyWrapper, protected *Header, plaintext []byte) (*Message, error) {
	_ = e._NamedFieldsRequired
	if kw == nil {
		return nil, errors.New("jwe: key wrapper is not set")
	}
	registry := e.Registry
	if registry == nil {
		registry = jwa.Default
	}
	encAlg, err := registry.EncryptionAlgorithm(e.Encryption)
	if err != nil {
		return nil, err
	}

	header := protected.Clone()
	if header.Algorithm() == "" {
		return nil, errors.New("jwe: algorithm is not set")
	}

	// compress before encryption
	if header.CompressionAlgorithm() != "" {
		if header.CompressionAlgorithm() != jwa.DEF {
			return nil, fmt.Errorf("jwe: unsupported compression algorithm: %q", header.CompressionAlgorithm())
		}
		plaintext, err = deflate(plaintext)
		if err != nil {
			return nil, err
		}
	}

	// the key management step; header patches (epk, iv, tag, p2s, p2c)
	// land in header before it is encoded. enc is readable during this
	// step (direct ECDH-ES uses it as the KDF AlgorithmID); its position
	// in the serialized header is fixed by SetEncryptionAlgorithm below.
	header.enc = e.Encryption
	var cek, encryptedKey []byte
	if deriver, ok := kw.(keymanage.KeyDeriver); ok {
		cek, encryptedKey, err = deriver.DeriveKey(encAlg.CEKSize(), header)
		if err != nil {
			return nil, fmt.Errorf("jwe: failed to derive key: %w", err)
		}
	} else {
		cek = e.ContentEncryptionKey
		if cek == nil {
			cek, err = encAlg.GenerateCEK()
			if err != nil {
				return nil, fmt.Errorf("jwe: failed to generate content encryption key: %w", err)
			}
		}
		encryptedKey, err = kw.WrapKey(cek, header)
		if err != nil {
			return nil, fmt.Errorf("jwe: failed to encrypt key: %w", err)
		}
	}
	if len(cek) != encAlg.CEKSize() {
		return nil, fmt.Errorf("jwe: the CEK has %d octets, but the algorithm %s requires %d", len(cek), e.Encryption.String(), encAlg.CEKSize())
	}

	// the header is final now; encode it and form the AAD.
	header.SetEncryptionAlgorithm(e.Encryption)
	rawHeader, err := header.MarshalJSON()
	if err != nil {
		return nil, err
	}
	b64header := b64Encode(rawHeader)

	iv := e.InitializationVector
	if iv == nil {
		iv, err = encAlg.GenerateIV()
		if err != nil {
			return nil, fmt.Errorf("jwe: failed to generate initialization vector: %w", err)
		}
	}

	ciphertext, authTag, err := encAlg.Encrypt(cek, iv, b64header, plaintext)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to encrypt: %w", err)
	}

	return &Message{
		protected:       header,
		rawProtected:    rawHeader,
		b64protected:    b64header,
		encryptedKey:    encryptedKey,
		b64encryptedKey: b64Encode(encryptedKey),
		iv:              iv,
		b64iv:           b64Encode(iv),
		ciphertext:      ciphertext,
		b64ciphertext:   b64Encode(ciphertext),
		tag:             authTag,
		b64tag:          b64Encode(authTag),
	}, nil
}

func deflate(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)))
	w, err := flate.NewWriter(buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("jwe: failed to compress content: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("jwe: failed to compress content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("jwe: failed to compress content: %w", err)
	}
	return buf.Bytes(), nil
}
