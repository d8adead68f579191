// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package store

import "time"

// User is an account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Secret is a stored credential. Password holds the sealed value, never the
// plaintext.
type Secret struct {
	ID        string
	UserID    string
	Title     string
	Username  string
	Password  string
	URL       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	// MaxListLimit caps the page size of a secret listing.
	MaxListLimit = 100
	// DefaultListLimit applies when the caller gives no limit.
	DefaultListLimit = 100
)

// ListOpts selects a page of secrets, newest first.
type ListOpts struct {
	Skip   int
	Limit  int
	Search string
}

// Normalize clamps Limit to 1..MaxListLimit and floors Skip at 0.
func (o ListOpts) Normalize() ListOpts {
	switch {
	case o.Limit > MaxListLimit:
		o.Limit = MaxListLimit
	case o.Limit < 1:
		o.Limit = 1
	}
	if o.Skip < 0 {
		o.Skip = 0
	}
	return o
}

// Audit actions recorded by the server.
const (
	AuditUserRegistered = "user.register"
	AuditUserLogin      = "user.login"
	AuditSecretCreated  = "secret.create"
	AuditSecretUpdated  = "secret.update"
	AuditSecretDeleted  = "secret.delete"
)

// AuditEntry records a security-relevant action.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Action    string
	Actor     string
	Target    string
	Details   map[string]any
	Result    string
}

// AuditFilter specifies criteria for querying audit entries.
type AuditFilter struct {
	Action string
	Actor  string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
