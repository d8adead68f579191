// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package listing drives the secret list view: the page/search controller,
// the client-side sort, the mutation coordinator and the modal state.
package listing

import (
	"context"
	"strconv"

	"github.com/coffer-dev/coffer/internal/query"
	"github.com/coffer-dev/coffer/pkg/types"
)

const (
	listResource   = "secrets"
	detailResource = "secret"
)

// ListFamily selects every cached page of the secret list.
func ListFamily() query.Key {
	return query.NewKey(listResource)
}

// ListKey is the cache key of one page for one debounced search.
func ListKey(page int, search string) query.Key {
	return query.NewKey(listResource, strconv.Itoa(page), search)
}

// DetailKey is the cache key of a single secret.
func DetailKey(id string) query.Key {
	return query.NewKey(detailResource, id)
}

// Source reads secrets from the server.
type Source interface {
	ListSecrets(ctx context.Context, params types.ListParams) ([]types.SecretSummary, error)
	GetSecret(ctx context.Context, id string) (types.SecretDetail, error)
}

// DetailLoader loads one secret for the detail cache.
func DetailLoader(src Source, id string) query.Loader[types.SecretDetail] {
	return func(ctx context.Context) (types.SecretDetail, error) {
		return src.GetSecret(ctx, id)
	}
}
