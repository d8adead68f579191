// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coffer-dev/coffer/internal/store"
	"github.com/coffer-dev/coffer/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "coffer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st *sqlite.Store, id, email string) *store.User {
	t.Helper()
	u := &store.User{ID: id, Email: email, PasswordHash: "hash", CreatedAt: time.Now()}
	require.NoError(t, st.Users().Create(context.Background(), u))
	return u
}
