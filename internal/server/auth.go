// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// AuthenticatedUser is the caller resolved from a bearer token.
type AuthenticatedUser struct {
	ID    string
	Email string
}

// TokenValidator resolves a bearer token to a user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*AuthenticatedUser, error)
}

type authUserKeyType struct{}

var authUserKey = authUserKeyType{}

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	u, ok := ctx.Value(authUserKey).(*AuthenticatedUser)
	return u, ok && u != nil
}

// isPublicPath reports whether path is reachable without a token.
func isPublicPath(path string) bool {
	switch path {
	case "/health", "/auth/register", "/auth/login", "/openapi.json", "/openapi.yaml", "/docs":
		return true
	}
	return strings.HasPrefix(path, "/schemas/") || strings.HasPrefix(path, "/openapi")
}

// authMiddleware requires a valid bearer token on every non-public path.
// A nil validator disables the check, which only the health-only server uses.
func authMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "Not authenticated")
				return
			}

			user, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				slog.Debug("rejected bearer token",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
					"error", err,
				)
				writeUnauthorized(w, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authUserKey, user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// problem mirrors huma's error body so every error response has one shape.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Title: http.StatusText(status), Status: status, Detail: detail}); err != nil {
		slog.Warn("failed to write error response", "status", status, "error", err)
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeProblem(w, http.StatusUnauthorized, detail)
}

// requireUser returns the caller or a 401 error for huma handlers.
func requireUser(ctx context.Context) (*AuthenticatedUser, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil, coffererr.New(coffererr.CodeServerAuthUnauthorized, "Not authenticated")
	}
	return u, nil
}
