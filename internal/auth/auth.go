// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package auth issues and verifies the server's bearer tokens and hashes
// account passwords.
package auth

import (
	"errors"
	"time"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is the lifetime of an access token.
const DefaultTTL = 30 * time.Minute

// Issuer signs HS256 access tokens whose subject is the user id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer returns an issuer for secret. A non-positive ttl means DefaultTTL.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if secret == "" {
		return nil, coffererr.New(coffererr.CodeServerConfigInvalid, "jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeAuthTokenIssueFailure, "signing access token")
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the user id.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", coffererr.Wrap(err, coffererr.CodeAuthTokenInvalid, "token expired")
	case err != nil:
		return "", coffererr.Wrap(err, coffererr.CodeAuthTokenInvalid, "invalid token")
	}

	if claims.Subject == "" {
		return "", coffererr.New(coffererr.CodeAuthTokenInvalid, "token has no subject")
	}
	return claims.Subject, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", coffererr.Wrap(err, coffererr.CodeAuthHashFailure, "hashing password")
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
