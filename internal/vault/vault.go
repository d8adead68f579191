// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package vault is the server's business logic: accounts, token checks and
// per-user secrets sealed at rest.
package vault

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coffer-dev/coffer/internal/store"
)

// Option configures Accounts and Secrets.
type Option func(*deps)

type deps struct {
	audit store.AuditStore
	now   func() time.Time
	newID func() string
}

func newDeps(audit store.AuditStore, opts []Option) deps {
	d := deps{
		audit: audit,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDs overrides id generation (random UUIDs by default).
func WithIDs(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

// record appends an audit entry. Failures are logged, never returned.
func (d deps) record(ctx context.Context, action, actor, target, result string, details map[string]any) {
	if d.audit == nil {
		return
	}
	err := d.audit.Append(ctx, &store.AuditEntry{
		ID:        d.newID(),
		Timestamp: d.now(),
		Action:    action,
		Actor:     actor,
		Target:    target,
		Details:   details,
		Result:    result,
	})
	if err != nil {
		slog.Warn("appending audit entry", "action", action, "actor", actor, "error", err)
	}
}
