// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package sealer_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/coffer-dev/coffer/internal/sealer"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T) *sealer.Sealer {
	t.Helper()
	key, err := sealer.GenerateKey()
	require.NoError(t, err)
	s, err := sealer.New(key)
	require.NoError(t, err)
	return s
}

func TestSealOpen(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	for _, plain := range []string{"hunter2", "", "pässwörd 🔑", strings.Repeat("x", 4096)} {
		sealed, err := s.Seal("id-1", plain)
		require.NoError(t, err)
		if plain != "" {
			assert.NotContains(t, sealed, plain)
		}

		got, err := s.Open("id-1", sealed)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	a, err := s.Seal("id", "same")
	require.NoError(t, err)
	b, err := s.Seal("id", "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_BoundToID(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	sealed, err := s.Seal("id-1", "secret")
	require.NoError(t, err)

	_, err = s.Open("id-2", sealed)
	require.Error(t, err)
	assert.True(t, coffererr.HasCode(err, coffererr.CodeCryptoOpenFailure))
}

func TestOpen_WrongKey(t *testing.T) {
	t.Parallel()

	sealed, err := newSealer(t).Seal("id", "secret")
	require.NoError(t, err)

	_, err = newSealer(t).Open("id", sealed)
	assert.Error(t, err)
}

func TestOpen_Malformed(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	sealed, err := s.Seal("id", "secret")
	require.NoError(t, err)
	raw, err := base64.URLEncoding.DecodeString(sealed)
	require.NoError(t, err)

	tampered := append([]byte{}, raw...)
	tampered[len(tampered)-1] ^= 0xff
	badVersion := append([]byte{}, raw...)
	badVersion[0] = 9

	for name, value := range map[string]string{
		"not base64":  "%%%",
		"too short":   base64.URLEncoding.EncodeToString([]byte{1, 2, 3}),
		"tampered":    base64.URLEncoding.EncodeToString(tampered),
		"bad version": base64.URLEncoding.EncodeToString(badVersion),
	} {
		_, err := s.Open("id", value)
		assert.Error(t, err, name)
	}
}

func TestNew_KeyEncodings(t *testing.T) {
	t.Parallel()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 7)
	}

	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		_, err := sealer.New(enc.EncodeToString(key))
		assert.NoError(t, err)
	}
}

func TestNew_InvalidKeys(t *testing.T) {
	t.Parallel()

	for name, key := range map[string]string{
		"empty":      "",
		"short":      base64.StdEncoding.EncodeToString([]byte("short")),
		"not base64": "!!not-base64!!",
	} {
		_, err := sealer.New(key)
		require.Error(t, err, name)
		assert.True(t, coffererr.HasCode(err, coffererr.CodeCryptoKeyInvalid), name)
	}
}
