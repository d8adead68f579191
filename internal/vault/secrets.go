// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package vault

import (
	"context"

	"github.com/coffer-dev/coffer/internal/sealer"
	"github.com/coffer-dev/coffer/internal/server"
	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

var _ server.SecretService = (*Secrets)(nil)

// Secrets stores each user's secrets with the password sealed.
type Secrets struct {
	deps
	secrets store.SecretStore
	sealer  *sealer.Sealer
}

// NewSecrets returns the secret service over st.
func NewSecrets(st store.Store, s *sealer.Sealer, opts ...Option) *Secrets {
	return &Secrets{
		deps:    newDeps(st.AuditLog(), opts),
		secrets: st.Secrets(),
		sealer:  s,
	}
}

// List returns a page of summaries. Passwords are not opened.
func (s *Secrets) List(ctx context.Context, userID string, p types.ListParams) ([]types.SecretSummary, error) {
	rows, err := s.secrets.List(ctx, userID, store.ListOpts{Skip: p.Skip, Limit: p.Limit, Search: p.Search})
	if err != nil {
		return nil, err
	}
	out := make([]types.SecretSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSummary(row))
	}
	return out, nil
}

// Get returns the secret with its password opened.
func (s *Secrets) Get(ctx context.Context, userID, id string) (types.SecretDetail, error) {
	row, err := s.secrets.Get(ctx, userID, id)
	if err != nil {
		return types.SecretDetail{}, err
	}
	return s.toDetail(row)
}

// Create validates, seals and stores a new secret.
func (s *Secrets) Create(ctx context.Context, userID string, req types.CreateRequest) (types.SecretDetail, error) {
	if err := req.Validate(); err != nil {
		return types.SecretDetail{}, err
	}

	id := s.newID()
	sealed, err := s.sealer.Seal(id, req.Password)
	if err != nil {
		return types.SecretDetail{}, err
	}

	now := s.now()
	row := &store.Secret{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Username:  req.Username,
		Password:  sealed,
		URL:       normalizeURL(req.URL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.secrets.Create(ctx, row); err != nil {
		return types.SecretDetail{}, err
	}

	s.record(ctx, store.AuditSecretCreated, userID, id, "ok", map[string]any{"title": row.Title})
	return detailOf(row, req.Password), nil
}

// Update applies a partial patch. An empty patch is rejected; an empty URL
// clears the stored one.
func (s *Secrets) Update(ctx context.Context, userID, id string, req types.UpdateRequest) (types.SecretDetail, error) {
	if err := req.Validate(); err != nil {
		return types.SecretDetail{}, err
	}

	row, err := s.secrets.Get(ctx, userID, id)
	if err != nil {
		return types.SecretDetail{}, err
	}

	// The stored password is only opened when the patch keeps it.
	current := detailOf(row, "")
	if req.Password == nil {
		if current, err = s.toDetail(row); err != nil {
			return types.SecretDetail{}, err
		}
	}
	next := req.Apply(current)

	if req.Password != nil {
		if row.Password, err = s.sealer.Seal(id, next.Password); err != nil {
			return types.SecretDetail{}, err
		}
	}
	row.Title = next.Title
	row.Username = next.Username
	row.URL = normalizeURL(&next.URL)
	row.UpdatedAt = s.now()

	if err := s.secrets.Update(ctx, row); err != nil {
		return types.SecretDetail{}, err
	}

	s.record(ctx, store.AuditSecretUpdated, userID, id, "ok", map[string]any{"fields": changedFields(req)})
	return detailOf(row, next.Password), nil
}

// Delete removes the secret.
func (s *Secrets) Delete(ctx context.Context, userID, id string) error {
	if err := s.secrets.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.record(ctx, store.AuditSecretDeleted, userID, id, "ok", nil)
	return nil
}

func (s *Secrets) toDetail(row *store.Secret) (types.SecretDetail, error) {
	password, err := s.sealer.Open(row.ID, row.Password)
	if err != nil {
		return types.SecretDetail{}, coffererr.With(err, coffererr.FieldSecretID(row.ID))
	}
	return detailOf(row, password), nil
}

func detailOf(row *store.Secret, password string) types.SecretDetail {
	return types.SecretDetail{SecretSummary: toSummary(row), Password: password}
}

func toSummary(row *store.Secret) types.SecretSummary {
	sum := types.SecretSummary{
		ID:        row.ID,
		Title:     row.Title,
		Username:  row.Username,
		CreatedAt: row.CreatedAt,
	}
	if row.URL != nil {
		sum.URL = *row.URL
	}
	if !row.UpdatedAt.IsZero() {
		updated := row.UpdatedAt
		sum.UpdatedAt = &updated
	}
	return sum
}

func normalizeURL(u *string) *string {
	if u == nil || *u == "" {
		return nil
	}
	v := *u
	return &v
}

func changedFields(req types.UpdateRequest) []string {
	var fields []string
	if req.Title != nil {
		fields = append(fields, "title")
	}
	if req.Username != nil {
		fields = append(fields, "username")
	}
	if req.Password != nil {
		fields = append(fields, "password")
	}
	if req.URL != nil {
		fields = append(fields, "url")
	}
	return fields
}
