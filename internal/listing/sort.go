// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing

import (
	"slices"
	"strings"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField is a sortable column of the list.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByUsername  SortField = "username"
	SortByURL       SortField = "url"
	SortByCreatedAt SortField = "created_at"
)

// SortFields lists the columns in display order.
var SortFields = []SortField{SortByTitle, SortByUsername, SortByURL, SortByCreatedAt}

// Valid reports whether f is a known column.
func (f SortField) Valid() bool {
	return slices.Contains(SortFields, f)
}

// ParseSortField parses a case-insensitive column name.
func ParseSortField(s string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue,
			"invalid sort field: %q", s)
	}
	return f, nil
}

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection parses "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Ascending, Descending:
		return d, nil
	default:
		return "", coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue,
			"invalid sort direction: %q", s)
	}
}

// SortState is the active column and direction.
type SortState struct {
	Field SortField
	Dir   Direction
}

// DefaultSort is newest first.
func DefaultSort() SortState {
	return SortState{Field: SortByCreatedAt, Dir: Descending}
}

// Toggle returns the state after a click on field: the active column flips
// direction, any other column becomes active ascending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Dir == Ascending {
			return SortState{Field: field, Dir: Descending}
		}
		return SortState{Field: field, Dir: Ascending}
	}
	return SortState{Field: field, Dir: Ascending}
}

// Apply sorts rows by s.
func (s SortState) Apply(rows []types.SecretSummary) []types.SecretSummary {
	return Sort(rows, s.Field, s.Dir)
}

// Sort returns a sorted copy of rows; the input is left untouched. Text
// columns compare case- and accent-insensitively with numeric runs compared by
// value, so "item 2" sorts before "item 10". Missing values sort as empty
// strings. Rows that compare equal keep their server order.
func Sort(rows []types.SecretSummary, field SortField, dir Direction) []types.SecretSummary {
	out := slices.Clone(rows)
	if len(out) < 2 {
		return out
	}

	coll := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics, collate.Numeric)
	cmp := func(a, b types.SecretSummary) int {
		switch field {
		case SortByTitle:
			return coll.CompareString(a.Title, b.Title)
		case SortByUsername:
			return coll.CompareString(a.Username, b.Username)
		case SortByURL:
			return coll.CompareString(a.URL, b.URL)
		case SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return 0
		}
	}

	slices.SortStableFunc(out, func(a, b types.SecretSummary) int {
		if dir == Descending {
			return -cmp(a, b)
		}
		return cmp(a, b)
	})
	return out
}
