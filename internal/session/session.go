// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package session keeps the bearer token of the logged-in user and tells
// listeners when the server stops accepting it.
package session

import (
	"log/slog"
	"sync"

	"github.com/coffer-dev/coffer/internal/secrets"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

const (
	// Service is the keyring service holding coffer's client credentials.
	Service = "coffer"
	// TokenKey is the keyring key of the bearer token.
	TokenKey = "session-token"
)

// Session implements api.Credentials on top of a secrets.Store. The token is
// read once and cached in memory; Unauthorized clears both copies.
type Session struct {
	store secrets.Store

	mu        sync.Mutex
	token     string
	loaded    bool
	listeners []func()
}

// New returns a session backed by store.
func New(store secrets.Store) *Session {
	return &Session{store: store}
}

// Token returns the current bearer token.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		tok, err := s.store.Retrieve(Service, TokenKey)
		if err != nil && !coffererr.IsNotFound(err) {
			slog.Warn("reading session token", "error", err)
		}
		s.token = tok
		s.loaded = true
	}
	return s.token, s.token != ""
}

// Require returns the token or a session error telling the user to log in.
func (s *Session) Require() (string, error) {
	tok, ok := s.Token()
	if !ok {
		return "", coffererr.New(coffererr.CodeSessionTokenMissing, "not logged in, run `coffer login`")
	}
	return tok, nil
}

// Save stores a freshly issued token.
func (s *Session) Save(token string) error {
	if err := s.store.Store(Service, TokenKey, token); err != nil {
		return coffererr.Wrap(err, coffererr.CodeSessionStoreFailure, "saving session token")
	}
	s.mu.Lock()
	s.token = token
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Clear forgets the token. A missing token is not an error.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.loaded = true
	s.mu.Unlock()

	if err := s.store.Delete(Service, TokenKey); err != nil && !coffererr.IsNotFound(err) {
		return coffererr.Wrap(err, coffererr.CodeSessionStoreFailure, "clearing session token")
	}
	return nil
}

// OnLogout registers fn to run whenever the server rejects the token.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Unauthorized clears the session and runs every OnLogout listener.
func (s *Session) Unauthorized() {
	if err := s.Clear(); err != nil {
		slog.Warn("clearing rejected session", "error", err)
	}

	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	slog.Info("session expired")
	for _, fn := range listeners {
		fn()
	}
}
