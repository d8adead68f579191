// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffer-dev/coffer/internal/api"
	"github.com/coffer-dev/coffer/internal/secrets"
	"github.com/coffer-dev/coffer/internal/session"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

func TestClient_AgainstServer(t *testing.T) {
	ts := httptest.NewServer(newAPIServer(t).Handler())
	defer ts.Close()
	ctx := context.Background()

	sess := session.New(secrets.NewFileStore(t.TempDir()))
	c, err := api.New(ts.URL, sess)
	require.NoError(t, err)

	require.NoError(t, c.Health(ctx))

	_, err = c.Register(ctx, "bob@example.com", "hunter2")
	require.NoError(t, err)

	_, err = c.Login(ctx, "bob@example.com", "wrong")
	require.Error(t, err)
	assert.False(t, coffererr.IsSessionExpired(err), "bad credentials are not an expired session")
	assert.Contains(t, err.Error(), "Invalid credentials")

	tok, err := c.Login(ctx, "bob@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, sess.Save(tok.AccessToken))

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", me.Email)

	created, err := c.CreateSecret(ctx, types.CreateRequest{Title: "mail", Username: "bob", Password: "pw"})
	require.NoError(t, err)

	list, err := c.ListSecrets(ctx, types.ListParams{Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	updated, err := c.UpdateSecret(ctx, created.ID, types.UpdateRequest{Password: types.Ptr("pw2")})
	require.NoError(t, err)
	assert.Equal(t, "pw2", updated.Password)

	_, err = c.UpdateSecret(ctx, created.ID, types.UpdateRequest{})
	require.Error(t, err)
	assert.Equal(t, 400, coffererr.FieldsOf(err)["status"])

	require.NoError(t, c.DeleteSecret(ctx, created.ID))
	_, err = c.GetSecret(ctx, created.ID)
	assert.True(t, coffererr.IsNotFound(err))
}

func TestClient_RejectedTokenEndsSession(t *testing.T) {
	ts := httptest.NewServer(newAPIServer(t).Handler())
	defer ts.Close()

	sess := session.New(secrets.NewFileStore(t.TempDir()))
	require.NoError(t, sess.Save("not-a-real-token"))
	ended := false
	sess.OnLogout(func() { ended = true })

	c, err := api.New(ts.URL, sess)
	require.NoError(t, err)

	_, err = c.ListSecrets(context.Background(), types.ListParams{Limit: 5})
	require.Error(t, err)
	assert.True(t, coffererr.IsSessionExpired(err))
	assert.True(t, ended)
	_, ok := sess.Token()
	assert.False(t, ok)
}
