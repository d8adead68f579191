// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coffer-dev/coffer/internal/config"
	"github.com/coffer-dev/coffer/internal/sealer"
	"github.com/coffer-dev/coffer/internal/secrets"
	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// memStore is an in-memory secrets.Store.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: map[string]string{}}
}

func (s *memStore) Store(service, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[service+"/"+key] = value
	return nil
}

func (s *memStore) Retrieve(service, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
	}
	return v, nil
}

func (s *memStore) Delete(service, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[service+"/"+key]; !ok {
		return coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
	}
	delete(s.m, service+"/"+key)
	return nil
}

func (s *memStore) get(service, key string) (string, bool) {
	v, err := s.Retrieve(service, key)
	return v, err == nil
}

// useStores routes the token and key stores to fresh in-memory stores.
func useStores(t *testing.T) (tokens, keys *memStore) {
	t.Helper()
	tokens, keys = newMemStore(), newMemStore()

	oldTokens, oldKeys := tokenStoreFactory, keyStoreFactory
	tokenStoreFactory = func(string, string) (secrets.Store, error) { return tokens, nil }
	keyStoreFactory = func() secrets.Store { return keys }
	t.Cleanup(func() {
		tokenStoreFactory, keyStoreFactory = oldTokens, oldKeys
	})
	return tokens, keys
}

// newTestServer serves a real vault over a temporary database.
func newTestServer(t *testing.T) string {
	t.Helper()

	key, err := sealer.GenerateKey()
	require.NoError(t, err)
	cfg := &config.Config{Server: config.ServerConfig{
		Listen:        "127.0.0.1:0",
		JWTSecret:     "cli-test-secret",
		EncryptionKey: key,
		TokenTTL:      time.Hour,
	}}

	st, err := store.Open(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv, err := newServer(cfg, st)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

// writeConfig writes a config pointing at serverURL plus any extra YAML.
func writeConfig(t *testing.T, serverURL string, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	body := "client:\n" +
		"  server_url: " + serverURL + "\n" +
		"log:\n" +
		"  level: error\n" +
		"  file: " + filepath.Join(dir, "coffer.log") + "\n" +
		strings.Join(extra, "\n")
	path := filepath.Join(dir, "coffer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type result struct {
	out string
	err error
}

// run executes the root command against cfgPath with stdin as input.
func run(t *testing.T, cfgPath, stdin string, args ...string) result {
	t.Helper()
	return runContext(context.Background(), t, cfgPath, stdin, args...)
}

func runContext(ctx context.Context, t *testing.T, cfgPath, stdin string, args ...string) result {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(ctx)
	return result{out: out.String(), err: err}
}

// loggedIn registers an account against a fresh server and returns the config
// path and token store.
func loggedIn(t *testing.T, extra ...string) (string, *memStore) {
	t.Helper()
	tokens, _ := useStores(t)
	cfg := writeConfig(t, newTestServer(t), extra...)
	r := run(t, cfg, "correct horse\n", "register", "--email", "ada@example.com")
	require.NoError(t, r.err)
	return cfg, tokens
}
