// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package vault

import (
	"context"
	"strings"
	"sync"

	"github.com/coffer-dev/coffer/internal/auth"
	"github.com/coffer-dev/coffer/internal/server"
	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

var (
	_ server.AccountService = (*Accounts)(nil)
	_ server.TokenValidator = (*Accounts)(nil)
)

// dummyHash is compared against when the email is unknown, so a failed
// login costs one bcrypt check either way.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("coffer-unknown-user")
	return h
})

// Accounts registers users, issues tokens and validates them.
type Accounts struct {
	deps
	users  store.UserStore
	issuer *auth.Issuer
}

// NewAccounts returns the account service over st.
func NewAccounts(st store.Store, issuer *auth.Issuer, opts ...Option) *Accounts {
	return &Accounts{
		deps:   newDeps(st.AuditLog(), opts),
		users:  st.Users(),
		issuer: issuer,
	}
}

// Register creates an account. A taken email is a conflict error.
func (a *Accounts) Register(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, coffererr.New(coffererr.CodeServerRequestInvalid, "email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	u := &store.User{ID: a.newID(), Email: email, PasswordHash: hash, CreatedAt: a.now()}
	if err := a.users.Create(ctx, u); err != nil {
		if coffererr.IsConflict(err) {
			a.record(ctx, store.AuditUserRegistered, email, "", "conflict", nil)
		}
		return types.User{}, err
	}

	a.record(ctx, store.AuditUserRegistered, u.ID, u.ID, "ok", nil)
	return toUser(u), nil
}

// Login checks the credentials and issues an access token.
func (a *Accounts) Login(ctx context.Context, email, password string) (types.AccessToken, error) {
	u, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	switch {
	case coffererr.IsNotFound(err):
		auth.CheckPassword(dummyHash(), password)
		a.record(ctx, store.AuditUserLogin, email, "", "denied", nil)
		return types.AccessToken{}, coffererr.New(coffererr.CodeAuthCredentialsInvalid, "Invalid credentials")
	case err != nil:
		return types.AccessToken{}, err
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		a.record(ctx, store.AuditUserLogin, u.ID, u.ID, "denied", nil)
		return types.AccessToken{}, coffererr.New(coffererr.CodeAuthCredentialsInvalid, "Invalid credentials")
	}

	tok, err := a.issuer.Issue(u.ID)
	if err != nil {
		return types.AccessToken{}, err
	}
	a.record(ctx, store.AuditUserLogin, u.ID, u.ID, "ok", nil)
	return types.AccessToken{AccessToken: tok, TokenType: types.TokenType}, nil
}

// Me returns the public view of the user.
func (a *Accounts) Me(ctx context.Context, userID string) (types.User, error) {
	u, err := a.users.Get(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	return toUser(u), nil
}

// ValidateToken verifies the token and that its user still exists.
func (a *Accounts) ValidateToken(ctx context.Context, token string) (*server.AuthenticatedUser, error) {
	userID, err := a.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := a.users.Get(ctx, userID)
	if coffererr.IsNotFound(err) {
		return nil, coffererr.New(coffererr.CodeAuthTokenInvalid, "token user no longer exists",
			coffererr.FieldUserID(userID))
	}
	if err != nil {
		return nil, err
	}
	return &server.AuthenticatedUser{ID: u.ID, Email: u.Email}, nil
}

func toUser(u *store.User) types.User {
	return types.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
