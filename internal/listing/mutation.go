// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coffer-dev/coffer/internal/query"
	"github.com/coffer-dev/coffer/pkg/types"
)

// MutationKind names a write operation.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Writer performs secret writes against the server.
type Writer interface {
	CreateSecret(ctx context.Context, req types.CreateRequest) (types.SecretDetail, error)
	UpdateSecret(ctx context.Context, id string, req types.UpdateRequest) (types.SecretDetail, error)
	DeleteSecret(ctx context.Context, id string) error
}

// Invalidator is the part of a query cache a mutation needs.
type Invalidator interface {
	Invalidate(prefix query.Key)
}

// Mutations runs writes and invalidates the cache keys they affect. Cached
// rows are never edited in place; a successful write only invalidates and the
// observed views refetch. Failed writes touch nothing.
type Mutations struct {
	w      Writer
	caches []Invalidator

	mu       sync.Mutex
	inFlight map[MutationKind]int
}

// NewMutations wires the writer to every cache holding secret data.
func NewMutations(w Writer, caches ...Invalidator) *Mutations {
	return &Mutations{
		w:        w,
		caches:   caches,
		inFlight: make(map[MutationKind]int),
	}
}

// Create validates req, then creates the secret and invalidates the list.
// An invalid request never reaches the server.
func (m *Mutations) Create(ctx context.Context, req types.CreateRequest) (types.SecretDetail, error) {
	if err := req.Validate(); err != nil {
		return types.SecretDetail{}, err
	}

	done := m.begin(MutationCreate)
	defer done()

	d, err := m.w.CreateSecret(ctx, req)
	if err != nil {
		return types.SecretDetail{}, err
	}
	slog.Debug("secret created", "secret_id", d.ID)
	m.invalidate(ListFamily())
	return d, nil
}

// Update patches the secret and invalidates the list and its detail entry.
func (m *Mutations) Update(ctx context.Context, id string, req types.UpdateRequest) (types.SecretDetail, error) {
	if err := req.Validate(); err != nil {
		return types.SecretDetail{}, err
	}

	done := m.begin(MutationUpdate)
	defer done()

	d, err := m.w.UpdateSecret(ctx, id, req)
	if err != nil {
		return types.SecretDetail{}, err
	}
	slog.Debug("secret updated", "secret_id", id)
	m.invalidate(ListFamily(), DetailKey(id))
	return d, nil
}

// Delete removes the secret. The caller confirms before calling.
func (m *Mutations) Delete(ctx context.Context, id string) error {
	done := m.begin(MutationDelete)
	defer done()

	if err := m.w.DeleteSecret(ctx, id); err != nil {
		return err
	}
	slog.Debug("secret deleted", "secret_id", id)
	m.invalidate(ListFamily(), DetailKey(id))
	return nil
}

// InFlight reports whether a write of kind is running.
func (m *Mutations) InFlight(kind MutationKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight[kind] > 0
}

// Pending is the number of running writes.
func (m *Mutations) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.inFlight {
		n += c
	}
	return n
}

func (m *Mutations) begin(kind MutationKind) func() {
	m.mu.Lock()
	m.inFlight[kind]++
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.inFlight[kind]--
		m.mu.Unlock()
	}
}

func (m *Mutations) invalidate(keys ...query.Key) {
	for _, c := range m.caches {
		for _, k := range keys {
			c.Invalidate(k)
		}
	}
}
