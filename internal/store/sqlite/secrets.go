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

type secretStore struct {
	db *sql.DB
}

const secretColumns = `id, user_id, title, username, password, url, created_at, updated_at`

func (s *secretStore) Create(ctx context.Context, secret *store.Secret) error {
	if secret.ID == "" || secret.UserID == "" {
		return coffererr.New(coffererr.CodeStoreInvalidInput, "secret id and owner are required")
	}

	const q = `INSERT INTO secrets (` + secretColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		secret.ID, secret.UserID, secret.Title, secret.Username, secret.Password,
		nullString(secret.URL), formatTime(secret.CreatedAt), formatTime(secret.UpdatedAt),
	)
	if err != nil {
		return dbFailure(err, "inserting secret %s", secret.ID)
	}
	return nil
}

func (s *secretStore) Get(ctx context.Context, userID, id string) (*store.Secret, error) {
	const q = `SELECT ` + secretColumns + ` FROM secrets WHERE id = ? AND user_id = ?`

	sec, err := scanSecret(s.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coffererr.New(coffererr.CodeStoreSecretNotFound, "secret not found",
			coffererr.FieldSecretID(id))
	}
	if err != nil {
		return nil, dbFailure(err, "getting secret %s", id)
	}
	return sec, nil
}

// List returns the user's secrets newest first. Search is a case-insensitive
// substring match on title or username.
func (s *secretStore) List(ctx context.Context, userID string, opts store.ListOpts) ([]*store.Secret, error) {
	opts = opts.Normalize()

	var qb strings.Builder
	qb.WriteString(`SELECT ` + secretColumns + ` FROM secrets WHERE user_id = ?`)
	args := []any{userID}

	if opts.Search != "" {
		pattern := "%" + escapeLike(opts.Search) + "%"
		qb.WriteString(` AND (title LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	qb.WriteString(` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`)
	args = append(args, opts.Limit, opts.Skip)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, dbFailure(err, "listing secrets")
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	secrets := make([]*store.Secret, 0, opts.Limit)
	for rows.Next() {
		sec, err := scanSecret(rows)
		if err != nil {
			return nil, dbFailure(err, "scanning secret row")
		}
		secrets = append(secrets, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbFailure(err, "iterating secret rows")
	}
	return secrets, nil
}

func (s *secretStore) Update(ctx context.Context, secret *store.Secret) error {
	const q = `UPDATE secrets SET title = ?, username = ?, password = ?, url = ?, updated_at = ?
WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, q,
		secret.Title, secret.Username, secret.Password, nullString(secret.URL),
		formatTime(secret.UpdatedAt), secret.ID, secret.UserID,
	)
	if err != nil {
		return dbFailure(err, "updating secret %s", secret.ID)
	}
	return requireRow(result, secret.ID)
}

func (s *secretStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return dbFailure(err, "deleting secret %s", id)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return dbFailure(err, "checking rows for secret %s", id)
	}
	if rows == 0 {
		return coffererr.New(coffererr.CodeStoreSecretNotFound, "secret not found",
			coffererr.FieldSecretID(id))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSecret(row scanner) (*store.Secret, error) {
	var sec store.Secret
	var url sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&sec.ID, &sec.UserID, &sec.Title, &sec.Username, &sec.Password,
		&url, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if url.Valid {
		sec.URL = &url.String
	}

	var err error
	if sec.CreatedAt, err = ParseTime(createdAt); err != nil {
		return nil, err
	}
	if sec.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &sec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
