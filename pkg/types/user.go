// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package types

import "time"

// User is the public view of an account. The password hash never leaves the
// server.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Credentials are the register payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenType is the only token type the server issues.
const TokenType = "bearer"

// AccessToken is the login response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
