// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

type userStore struct {
	db *sql.DB
}

func (s *userStore) Create(ctx context.Context, user *store.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" || user.PasswordHash == "" {
		return coffererr.New(coffererr.CodeStoreInvalidInput, "user id, email and password hash are required")
	}

	const q = `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, formatTime(user.CreatedAt))
	if isUniqueViolation(err) {
		return coffererr.Wrap(err, coffererr.CodeStoreUserConflict, "email already registered")
	}
	if err != nil {
		return dbFailure(err, "inserting user %s", user.ID)
	}
	return nil
}

func (s *userStore) Get(ctx context.Context, id string) (*store.User, error) {
	const q = `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id), id)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	const q = `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, q, email), email)
}

func (s *userStore) scanOne(row *sql.Row, lookup string) (*store.User, error) {
	var u store.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coffererr.Errorf(coffererr.CodeStoreUserNotFound, "user %s not found", lookup)
	}
	if err != nil {
		return nil, dbFailure(err, "getting user %s", lookup)
	}
	if u.CreatedAt, err = ParseTime(createdAt); err != nil {
		return nil, dbFailure(err, "parsing user %s created_at", u.ID)
	}
	return &u, nil
}
