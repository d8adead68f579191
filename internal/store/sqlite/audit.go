// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/coffer-dev/coffer/internal/store"
)

type auditStore struct {
	db *sql.DB
}

func (s *auditStore) Append(ctx context.Context, entry *store.AuditEntry) error {
	details := "{}"
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return dbFailure(err, "marshalling audit details")
		}
		details = string(b)
	}

	const q = `INSERT INTO audit_log (id, timestamp, action, actor, target, details, result)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		entry.ID, formatTime(entry.Timestamp), entry.Action, entry.Actor,
		entry.Target, details, entry.Result,
	)
	if err != nil {
		return dbFailure(err, "appending audit entry %s", entry.ID)
	}
	return nil
}

func (s *auditStore) Query(ctx context.Context, filter store.AuditFilter) ([]*store.AuditEntry, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT id, timestamp, action, actor, target, details, result FROM audit_log`)

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, filter.Actor)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, formatTime(filter.To))
	}

	if len(conditions) > 0 {
		qb.WriteString(" WHERE ")
		qb.WriteString(strings.Join(conditions, " AND "))
	}

	qb.WriteString(" ORDER BY timestamp ASC, rowid ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	qb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, dbFailure(err, "querying audit log")
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var entries []*store.AuditEntry
	for rows.Next() {
		var e store.AuditEntry
		var ts, detailsJSON string
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.Actor, &e.Target, &detailsJSON, &e.Result); err != nil {
			return nil, dbFailure(err, "scanning audit row")
		}
		var err error
		if e.Timestamp, err = ParseTime(ts); err != nil {
			return nil, dbFailure(err, "parsing audit entry %s timestamp", e.ID)
		}
		if detailsJSON != "" && detailsJSON != "{}" {
			if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
				return nil, dbFailure(err, "unmarshalling audit details")
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbFailure(err, "iterating audit entries")
	}
	return entries, nil
}
