// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coffer-dev/coffer/internal/auth"
	"github.com/coffer-dev/coffer/internal/sealer"
	"github.com/coffer-dev/coffer/internal/server"
	"github.com/coffer-dev/coffer/internal/store/sqlite"
	"github.com/coffer-dev/coffer/internal/vault"
)

// newAPIServer returns a fully wired server over a temporary database.
func newAPIServer(t *testing.T) *server.Server {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "coffer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	issuer, err := auth.NewIssuer("server-test-secret", time.Hour)
	require.NoError(t, err)
	key, err := sealer.GenerateKey()
	require.NoError(t, err)
	s, err := sealer.New(key)
	require.NoError(t, err)

	accounts := vault.NewAccounts(st, issuer)
	services, err := server.NewServices(accounts, vault.NewSecrets(st, s))
	require.NoError(t, err)

	srv, err := server.New(server.Config{
		ListenAddr:     "127.0.0.1:0",
		CORSOrigins:    []string{"http://localhost:5173"},
		TokenValidator: accounts,
		Services:       services,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postLogin(t *testing.T, h http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// signUp registers email and returns a bearer token for it.
func signUp(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "hunter2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postLogin(t, h, email, "hunter2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type problemBody struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
