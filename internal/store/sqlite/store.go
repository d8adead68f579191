// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package sqlite implements the store interfaces on a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// Compile-time interface checks.
var (
	_ store.Store       = (*Store)(nil)
	_ store.UserStore   = (*userStore)(nil)
	_ store.SecretStore = (*secretStore)(nil)
	_ store.AuditStore  = (*auditStore)(nil)
)

// Store implements store.Store backed by one SQLite file.
type Store struct {
	db      *sql.DB
	users   *userStore
	secrets *secretStore
	audit   *auditStore
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "opening database",
			coffererr.FieldPath(dbPath))
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "pinging database",
			coffererr.FieldPath(dbPath))
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "migrating database",
			coffererr.FieldPath(dbPath))
	}

	// Restrict the database to the server's user; it holds password hashes.
	if err := os.Chmod(dbPath, 0o600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "securing database file",
			coffererr.FieldPath(dbPath))
	}

	return &Store{
		db:      db,
		users:   &userStore{db: db},
		secrets: &secretStore{db: db},
		audit:   &auditStore{db: db},
	}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS secrets (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	username   TEXT NOT NULL,
	password   TEXT NOT NULL,
	url        TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_secrets_user_created
	ON secrets(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS audit_log (
	id        TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	action    TEXT NOT NULL DEFAULT '',
	actor     TEXT NOT NULL DEFAULT '',
	target    TEXT NOT NULL DEFAULT '',
	details   TEXT NOT NULL DEFAULT '{}',
	result    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_log_action    ON audit_log(action);
CREATE INDEX IF NOT EXISTS idx_audit_log_actor     ON audit_log(actor);
`
	_, err := db.Exec(ddl)
	return err
}

// Users returns the UserStore sub-store.
func (s *Store) Users() store.UserStore { return s.users }

// Secrets returns the SecretStore sub-store.
func (s *Store) Secrets() store.SecretStore { return s.secrets }

// AuditLog returns the AuditStore sub-store.
func (s *Store) AuditLog() store.AuditStore { return s.audit }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "pinging database")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a timestamp stored by this package.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func dbFailure(err error, format string, args ...any) error {
	return coffererr.Wrapf(err, coffererr.CodeStoreDatabaseFailure, format, args...)
}
