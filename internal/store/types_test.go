// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package store_test

import (
	"testing"

	"github.com/coffer-dev/coffer/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestListOpts_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   store.ListOpts
		want store.ListOpts
	}{
		{"in range", store.ListOpts{Skip: 10, Limit: 5}, store.ListOpts{Skip: 10, Limit: 5}},
		{"limit too large", store.ListOpts{Limit: 500}, store.ListOpts{Limit: 100}},
		{"limit zero", store.ListOpts{Limit: 0}, store.ListOpts{Limit: 1}},
		{"limit negative", store.ListOpts{Limit: -3}, store.ListOpts{Limit: 1}},
		{"skip negative", store.ListOpts{Skip: -1, Limit: 5}, store.ListOpts{Limit: 5}},
		{"search kept", store.ListOpts{Limit: 5, Search: "git"}, store.ListOpts{Limit: 5, Search: "git"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
