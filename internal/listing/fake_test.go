// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

// fakeServer is an in-memory stand-in for the REST service: newest first,
// substring search on title and username.
type fakeServer struct {
	mu      sync.Mutex
	secrets []types.SecretDetail
	nextID  int

	listCalls   atomic.Int32
	detailCalls atomic.Int32
	failWrites  error
}

func newFakeServer(titles ...string) *fakeServer {
	f := &fakeServer{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range titles {
		f.nextID++
		f.secrets = append(f.secrets, types.SecretDetail{
			SecretSummary: types.SecretSummary{
				ID:        fmt.Sprintf("id-%d", f.nextID),
				Title:     title,
				Username:  "user",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			},
			Password: "pw-" + title,
		})
	}
	return f
}

func (f *fakeServer) ListSecrets(_ context.Context, p types.ListParams) ([]types.SecretSummary, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []types.SecretSummary
	for i := len(f.secrets) - 1; i >= 0; i-- {
		s := f.secrets[i]
		q := strings.ToLower(p.Search)
		if q != "" && !strings.Contains(strings.ToLower(s.Title), q) && !strings.Contains(strings.ToLower(s.Username), q) {
			continue
		}
		out = append(out, s.Summary())
	}
	if p.Skip >= len(out) {
		return []types.SecretSummary{}, nil
	}
	out = out[p.Skip:]
	if len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (f *fakeServer) GetSecret(_ context.Context, id string) (types.SecretDetail, error) {
	f.detailCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return types.SecretDetail{}, coffererr.New(coffererr.CodeClientSecretNotFound, "not found")
	}
	return f.secrets[i], nil
}

func (f *fakeServer) CreateSecret(_ context.Context, req types.CreateRequest) (types.SecretDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return types.SecretDetail{}, f.failWrites
	}
	f.nextID++
	d := types.SecretDetail{
		SecretSummary: types.SecretSummary{
			ID:        fmt.Sprintf("id-%d", f.nextID),
			Title:     req.Title,
			Username:  req.Username,
			CreatedAt: time.Date(2026, 2, 1, 0, 0, f.nextID, 0, time.UTC),
		},
		Password: req.Password,
	}
	if req.URL != nil {
		d.URL = *req.URL
	}
	f.secrets = append(f.secrets, d)
	return d, nil
}

func (f *fakeServer) UpdateSecret(_ context.Context, id string, req types.UpdateRequest) (types.SecretDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return types.SecretDetail{}, f.failWrites
	}
	i := f.index(id)
	if i < 0 {
		return types.SecretDetail{}, coffererr.New(coffererr.CodeClientSecretNotFound, "not found")
	}
	f.secrets[i] = req.Apply(f.secrets[i])
	return f.secrets[i], nil
}

func (f *fakeServer) DeleteSecret(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	i := f.index(id)
	if i < 0 {
		return coffererr.New(coffererr.CodeClientSecretNotFound, "not found")
	}
	f.secrets = slices.Delete(f.secrets, i, i+1)
	return nil
}

func (f *fakeServer) index(id string) int {
	return slices.IndexFunc(f.secrets, func(s types.SecretDetail) bool { return s.ID == id })
}

func titles(rows []types.SecretSummary) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Title)
	}
	return out
}
