// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffer-dev/coffer/pkg/types"
)

func TestRoutes_Register(t *testing.T) {
	h := newAPIServer(t).Handler()

	w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "bob@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u := decode[types.User](t, w)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "BOB@example.com", "password": "pw"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode[problemBody](t, w).Detail)
}

func TestRoutes_RegisterRejectsMalformedEmail(t *testing.T) {
	h := newAPIServer(t).Handler()
	w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRoutes_Login(t *testing.T) {
	h := newAPIServer(t).Handler()
	signUp(t, h, "bob@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"ok", "bob@example.com", "hunter2", http.StatusOK},
		{"wrong password", "bob@example.com", "nope", http.StatusUnauthorized},
		{"unknown user", "eve@example.com", "hunter2", http.StatusUnauthorized},
		{"missing password", "bob@example.com", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLogin(t, h, tt.email, tt.password)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			switch tt.status {
			case http.StatusOK:
				tok := decode[types.AccessToken](t, w)
				assert.Equal(t, "bearer", tok.TokenType)
				assert.NotEmpty(t, tok.AccessToken)
			case http.StatusUnauthorized:
				assert.Equal(t, "Invalid credentials", decode[problemBody](t, w).Detail)
			}
		})
	}
}

func TestRoutes_Me(t *testing.T) {
	h := newAPIServer(t).Handler()
	tok := signUp(t, h, "bob@example.com")

	w := doJSON(t, h, http.MethodGet, "/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob@example.com", decode[types.User](t, w).Email)

	w = doJSON(t, h, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = doJSON(t, h, http.MethodGet, "/auth/me", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Could not validate credentials", decode[problemBody](t, w).Detail)
}

func TestRoutes_SecretsRequireAuth(t *testing.T) {
	h := newAPIServer(t).Handler()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/secrets"},
		{http.MethodGet, "/secrets/"},
		{http.MethodPost, "/secrets/"},
		{http.MethodGet, "/secrets/abc"},
		{http.MethodPatch, "/secrets/abc"},
		{http.MethodDelete, "/secrets/abc"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := doJSON(t, h, tc.method, tc.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoutes_SecretLifecycle(t *testing.T) {
	h := newAPIServer(t).Handler()
	tok := signUp(t, h, "bob@example.com")

	w := doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{
		"title": "mail", "username": "bob", "password": "s3cret", "url": "https://mail.example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.SecretDetail](t, w)
	assert.Equal(t, "s3cret", created.Password)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, h, http.MethodGet, "/secrets/"+created.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[types.SecretDetail](t, w).ID)

	w = doJSON(t, h, http.MethodGet, "/secrets?limit=10", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]types.SecretSummary](t, w)
	require.Len(t, list, 1)
	assert.NotContains(t, w.Body.String(), "s3cret", "listings never carry passwords")

	w = doJSON(t, h, http.MethodPatch, "/secrets/"+created.ID, tok, map[string]any{"title": "webmail", "url": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[types.SecretDetail](t, w)
	assert.Equal(t, "webmail", updated.Title)
	assert.Equal(t, "s3cret", updated.Password)
	assert.Empty(t, updated.URL)

	w = doJSON(t, h, http.MethodDelete, "/secrets/"+created.ID, tok, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doJSON(t, h, http.MethodGet, "/secrets/"+created.ID, tok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Secret not found", decode[problemBody](t, w).Detail)
}

func TestRoutes_CreateValidation(t *testing.T) {
	h := newAPIServer(t).Handler()
	tok := signUp(t, h, "bob@example.com")

	w := doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{"title": "mail"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{"title": "", "username": "u", "password": "p"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{"title": " ", "username": "u", "password": "p"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_EmptyPatchIsBadRequest(t *testing.T) {
	h := newAPIServer(t).Handler()
	tok := signUp(t, h, "bob@example.com")

	w := doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{"title": "t", "username": "u", "password": "p"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[types.SecretDetail](t, w).ID

	w = doJSON(t, h, http.MethodPatch, "/secrets/"+id, tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_ForeignSecretIsNotFound(t *testing.T) {
	h := newAPIServer(t).Handler()
	bob := signUp(t, h, "bob@example.com")
	eve := signUp(t, h, "eve@example.com")

	w := doJSON(t, h, http.MethodPost, "/secrets/", bob, map[string]any{"title": "t", "username": "u", "password": "p"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[types.SecretDetail](t, w).ID

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/secrets/"+id, eve, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPatch, "/secrets/"+id, eve, map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodDelete, "/secrets/"+id, eve, nil).Code)

	w = doJSON(t, h, http.MethodGet, "/secrets", eve, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRoutes_ListPagingAndSearch(t *testing.T) {
	h := newAPIServer(t).Handler()
	tok := signUp(t, h, "bob@example.com")

	for i := 0; i < 7; i++ {
		title := fmt.Sprintf("entry-%d", i)
		if i%3 == 0 {
			title = fmt.Sprintf("GitHub-%d", i)
		}
		w := doJSON(t, h, http.MethodPost, "/secrets/", tok, map[string]any{"title": title, "username": "u", "password": "p"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, h, http.MethodGet, "/secrets?skip=0&limit=5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[[]types.SecretSummary](t, w)
	require.Len(t, page, 5)
	assert.Equal(t, "entry-5", page[0].Title, "newest first")

	w = doJSON(t, h, http.MethodGet, "/secrets/?skip=5&limit=5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]types.SecretSummary](t, w), 2)

	w = doJSON(t, h, http.MethodGet, "/secrets?limit=1000", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]types.SecretSummary](t, w), 7, "limit is clamped, not rejected")

	w = doJSON(t, h, http.MethodGet, "/secrets?search=github", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]types.SecretSummary](t, w)
	require.Len(t, found, 3)
	assert.Equal(t, "GitHub-6", found[0].Title)
}
