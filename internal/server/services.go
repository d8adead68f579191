// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server

import (
	"context"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

// AccountService registers and authenticates users.
type AccountService interface {
	Register(ctx context.Context, email, password string) (types.User, error)
	Login(ctx context.Context, email, password string) (types.AccessToken, error)
	Me(ctx context.Context, userID string) (types.User, error)
}

// SecretService manages the caller's secrets. Every method is scoped to
// userID.
type SecretService interface {
	List(ctx context.Context, userID string, p types.ListParams) ([]types.SecretSummary, error)
	Get(ctx context.Context, userID, id string) (types.SecretDetail, error)
	Create(ctx context.Context, userID string, req types.CreateRequest) (types.SecretDetail, error)
	Update(ctx context.Context, userID, id string, req types.UpdateRequest) (types.SecretDetail, error)
	Delete(ctx context.Context, userID, id string) error
}

// Services bundles the dependencies of the REST routes.
type Services struct {
	accounts AccountService
	secrets  SecretService
}

// NewServices validates and bundles the route dependencies.
func NewServices(accounts AccountService, secrets SecretService) (*Services, error) {
	if accounts == nil {
		return nil, coffererr.New(coffererr.CodeServerConfigInvalid, "account service is required")
	}
	if secrets == nil {
		return nil, coffererr.New(coffererr.CodeServerConfigInvalid, "secret service is required")
	}
	return &Services{accounts: accounts, secrets: secrets}, nil
}

// Accounts returns the account service.
func (s *Services) Accounts() AccountService { return s.accounts }

// Secrets returns the secret service.
func (s *Services) Secrets() SecretService { return s.secrets }
