// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing_test

import (
	"testing"

	"github.com/coffer-dev/coffer/internal/listing"
	"github.com/stretchr/testify/assert"
)

func TestModal_ZeroValueIsClosed(t *testing.T) {
	var m listing.Modal
	assert.False(t, m.Open())
	assert.Equal(t, "closed", m.State().String())
}

func TestModal_OnlyOneStateActive(t *testing.T) {
	var m listing.Modal
	m.New()
	m.Edit("id-1")

	assert.Equal(t, listing.ModalState{Kind: listing.ModalEditing, ID: "id-1"}, m.State())
	assert.False(t, m.Is(listing.ModalCreating, ""))
	assert.Equal(t, "editing(id-1)", m.State().String())

	m.View("id-2")
	assert.True(t, m.Is(listing.ModalViewing, "id-2"))
	m.Close()
	assert.False(t, m.Open())
}

func TestModal_MutationSucceeded(t *testing.T) {
	tests := []struct {
		name   string
		open   func(*listing.Modal)
		kind   listing.MutationKind
		id     string
		closes bool
	}{
		{"create closes creating", func(m *listing.Modal) { m.New() }, listing.MutationCreate, "new", true},
		{"update closes matching edit", func(m *listing.Modal) { m.Edit("a") }, listing.MutationUpdate, "a", true},
		{"update ignores other edit", func(m *listing.Modal) { m.Edit("a") }, listing.MutationUpdate, "b", false},
		{"update leaves create open", func(m *listing.Modal) { m.New() }, listing.MutationUpdate, "a", false},
		{"create leaves view open", func(m *listing.Modal) { m.View("a") }, listing.MutationCreate, "x", false},
		{"delete closes confirmation", func(m *listing.Modal) { m.ConfirmDelete("a") }, listing.MutationDelete, "a", true},
		{"delete closes view of same secret", func(m *listing.Modal) { m.View("a") }, listing.MutationDelete, "a", true},
		{"delete ignores other secret", func(m *listing.Modal) { m.View("a") }, listing.MutationDelete, "b", false},
		{"closed stays closed", func(*listing.Modal) {}, listing.MutationDelete, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m listing.Modal
			tt.open(&m)
			before := m.State()

			closed := m.MutationSucceeded(tt.kind, tt.id)

			assert.Equal(t, tt.closes, closed)
			if tt.closes {
				assert.False(t, m.Open())
			} else {
				assert.Equal(t, before, m.State())
			}
		})
	}
}
