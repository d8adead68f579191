// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package store defines the server's persistence interfaces. Backends
// register themselves with RegisterBackend; sqlite is the default.
package store

import "context"

// Store groups the server's persistent state.
type Store interface {
	Users() UserStore
	Secrets() SecretStore
	AuditLog() AuditStore
	Ping(ctx context.Context) error
	Close() error
}

// UserStore manages accounts. Emails are unique, compared case-insensitively.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// SecretStore manages secrets. Every call is scoped to the owning user; a
// secret owned by someone else reads as not found.
type SecretStore interface {
	Create(ctx context.Context, secret *Secret) error
	Get(ctx context.Context, userID, id string) (*Secret, error)
	List(ctx context.Context, userID string, opts ListOpts) ([]*Secret, error)
	Update(ctx context.Context, secret *Secret) error
	Delete(ctx context.Context, userID, id string) error
}

// AuditStore manages the audit log.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}
