// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package sealer encrypts secret passwords at rest with XChaCha20-Poly1305.
//
// A sealed value is the URL-safe base64 encoding of
//
//	version (1 byte) | nonce (24 bytes) | ciphertext+tag
//
// The secret id is bound as additional data, so a sealed password copied
// onto another row fails to open.
package sealer

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

const version byte = 1

// Sealer seals and opens password values.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a sealer from a base64 encoded 32-byte key (standard or URL
// alphabet, padded or not).
func New(encodedKey string) (*Sealer, error) {
	key, err := decodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, coffererr.Wrap(err, coffererr.CodeCryptoKeyInvalid, "creating cipher")
	}
	return &Sealer{aead: aead}, nil
}

// GenerateKey returns a fresh random key in the encoding New accepts.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeCryptoKeyInvalid, "generating key")
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// Seal encrypts plaintext for the row identified by id.
func (s *Sealer) Seal(id, plaintext string) (string, error) {
	ns := s.aead.NonceSize()
	out := make([]byte, 1+ns, 1+ns+len(plaintext)+s.aead.Overhead())
	out[0] = version
	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeCryptoSealFailure, "generating nonce")
	}

	out = s.aead.Seal(out, nonce, []byte(plaintext), []byte(id))
	return base64.URLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal for the same id.
func (s *Sealer) Open(id, sealed string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeCryptoOpenFailure, "decoding sealed value")
	}

	ns := s.aead.NonceSize()
	if len(raw) < 1+ns+s.aead.Overhead() {
		return "", coffererr.New(coffererr.CodeCryptoOpenFailure, "sealed value too short")
	}
	if raw[0] != version {
		return "", coffererr.Errorf(coffererr.CodeCryptoOpenFailure, "unsupported sealed value version %d", raw[0])
	}

	plain, err := s.aead.Open(nil, raw[1:1+ns], raw[1+ns:], []byte(id))
	if err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeCryptoOpenFailure, "decrypting sealed value")
	}
	return string(plain), nil
}

func decodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, coffererr.New(coffererr.CodeCryptoKeyInvalid, "encryption key must not be empty")
	}

	for _, enc := range []*base64.Encoding{
		base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding,
	} {
		key, err := enc.DecodeString(encoded)
		if err != nil {
			continue
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, coffererr.Errorf(coffererr.CodeCryptoKeyInvalid,
				"encryption key must decode to %d bytes, got %d", chacha20poly1305.KeySize, len(key))
		}
		return key, nil
	}
	return nil, coffererr.New(coffererr.CodeCryptoKeyInvalid, "encryption key is not valid base64")
}
