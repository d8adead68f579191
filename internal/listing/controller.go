// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing

import (
	"context"
	"slices"

	"github.com/coffer-dev/coffer/internal/query"
	"github.com/coffer-dev/coffer/pkg/types"
)

// Controller owns the page index and the debounced search of the list view
// and decides which results may be shown. It is not safe for concurrent use;
// the UI calls it from its update loop only.
type Controller struct {
	src    Source
	limit  int
	page   int
	search string

	rows     []types.SecretSummary
	err      error
	resolved bool
	fetching bool
}

// NewController creates a controller on page 0 with an empty search. A
// non-positive limit falls back to 5.
func NewController(src Source, limit int) *Controller {
	if limit <= 0 {
		limit = 5
	}
	return &Controller{src: src, limit: limit}
}

func (c *Controller) Page() int      { return c.page }
func (c *Controller) Limit() int     { return c.limit }
func (c *Controller) Search() string { return c.search }

// Key is the cache key for the current inputs.
func (c *Controller) Key() query.Key {
	return ListKey(c.page, c.search)
}

// SetSearch applies a debounced search value. A changed value resets the page
// to 0. It reports whether the key changed.
func (c *Controller) SetSearch(s string) bool {
	if s == c.search {
		return false
	}
	c.search = s
	c.page = 0
	return true
}

// NextPage advances when the last page was full. It reports whether the key
// changed.
func (c *Controller) NextPage() bool {
	if !c.HasNextPage() {
		return false
	}
	c.page++
	return true
}

// PrevPage steps back, never below page 0. It reports whether the key changed.
func (c *Controller) PrevPage() bool {
	if c.page == 0 {
		return false
	}
	c.page--
	return true
}

// Request returns the key and loader for the current inputs and marks the
// controller as fetching. Rows keep showing the previous page meanwhile.
func (c *Controller) Request() (query.Key, query.Loader[[]types.SecretSummary]) {
	c.fetching = true
	params := types.ListParams{
		Skip:   c.page * c.limit,
		Limit:  c.limit,
		Search: c.search,
	}
	src := c.src
	return c.Key(), func(ctx context.Context) ([]types.SecretSummary, error) {
		return src.ListSecrets(ctx, params)
	}
}

// Accept applies a finished fetch. Results for any key but the current one
// are discarded and Accept returns false. A failed fetch keeps the rows that
// were shown before.
func (c *Controller) Accept(key query.Key, rows []types.SecretSummary, err error) bool {
	if !key.Equal(c.Key()) {
		return false
	}
	c.fetching = false
	if err != nil {
		c.err = err
		return true
	}
	c.err = nil
	c.rows = slices.Clone(rows)
	c.resolved = true
	return true
}

// Rows is the last accepted page, in server order.
func (c *Controller) Rows() []types.SecretSummary {
	return slices.Clone(c.rows)
}

// Err is the error of the last fetch for the current key, if it failed.
func (c *Controller) Err() error { return c.err }

// Fetching reports whether a request for the current key is outstanding.
func (c *Controller) Fetching() bool { return c.fetching }

// Loading reports whether no page has resolved yet.
func (c *Controller) Loading() bool { return !c.resolved && c.err == nil }

// HasNextPage reports whether the last page was full. Page fullness is the
// only signal the API gives; an exactly full last page enables one extra
// empty page.
func (c *Controller) HasNextPage() bool {
	return c.resolved && len(c.rows) == c.limit
}
