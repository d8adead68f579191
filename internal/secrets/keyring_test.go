// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package secrets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coffer-dev/coffer/internal/secrets"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	// Use the mock keyring for all tests so they don't touch the real OS keyring.
	keyring.MockInit()
}

// storeCases runs the shared Store contract against every backend.
func storeCases(t *testing.T) map[string]secrets.Store {
	t.Helper()
	return map[string]secrets.Store{
		"keyring": secrets.NewKeyringStore(),
		"file":    secrets.NewFileStore(t.TempDir()),
	}
}

func TestStore_StoreAndRetrieve(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			svc := "test-store-retrieve-" + name
			require.NoError(t, s.Store(svc, "session-token", "tok-123"))

			val, err := s.Retrieve(svc, "session-token")
			require.NoError(t, err)
			assert.Equal(t, "tok-123", val)
		})
	}
}

func TestStore_RetrieveNotFound(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Retrieve("no-such-service", "no-key")
			require.Error(t, err)
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringNotFound), "got: %v", err)
			assert.True(t, coffererr.IsNotFound(err))
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			svc := "test-delete-" + name
			require.NoError(t, s.Store(svc, "temp-key", "temp-value"))
			require.NoError(t, s.Delete(svc, "temp-key"))

			_, err := s.Retrieve(svc, "temp-key")
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringNotFound))

			err = s.Delete(svc, "temp-key")
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringNotFound))
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			svc := "test-overwrite-" + name
			require.NoError(t, s.Store(svc, "key", "old-value"))
			require.NoError(t, s.Store(svc, "key", "new-value"))

			val, err := s.Retrieve(svc, "key")
			require.NoError(t, err)
			assert.Equal(t, "new-value", val)
		})
	}
}

func TestStore_EmptyInputs(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Store("", "key", "val")
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringInvalidInput))
			_, err = s.Retrieve("svc", "")
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringInvalidInput))
			err = s.Delete("", "")
			assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringInvalidInput))

			// Empty value is allowed.
			assert.NoError(t, s.Store("svc-empty-"+name, "key", ""))
		})
	}
}

func TestStore_IsolatedServices(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Store("svc-a-"+name, "shared-key", "value-a"))
			require.NoError(t, s.Store("svc-b-"+name, "shared-key", "value-b"))

			valA, err := s.Retrieve("svc-a-"+name, "shared-key")
			require.NoError(t, err)
			assert.Equal(t, "value-a", valA)

			valB, err := s.Retrieve("svc-b-"+name, "shared-key")
			require.NoError(t, err)
			assert.Equal(t, "value-b", valB)
		})
	}
}

func TestFileStore_PermissionsAndTraversal(t *testing.T) {
	dir := t.TempDir()
	s := secrets.NewFileStore(dir)

	require.NoError(t, s.Store("coffer", "session-token", "tok"))
	info, err := os.Stat(filepath.Join(dir, "coffer", "session-token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = s.Store("coffer", "../escape", "x")
	assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringInvalidInput))
	err = s.Store("..", "key", "x")
	assert.True(t, coffererr.HasCode(err, coffererr.CodeKeyringInvalidInput))
}

func TestOpen(t *testing.T) {
	s, err := secrets.Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &secrets.KeyringStore{}, s)

	s, err = secrets.Open("FILE", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &secrets.FileStore{}, s)

	_, err = secrets.Open("vault", "")
	require.Error(t, err)
	assert.True(t, coffererr.IsInvalidInput(err))
}
