// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coffer-dev/coffer/internal/server"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/openapi.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI document written to %s\n", outPath)
}

// generateSpec creates a server with every route registered and extracts the
// OpenAPI document huma builds from the Go type annotations.
func generateSpec() ([]byte, error) {
	svc, err := server.NewServices(stubAccounts{}, stubSecrets{})
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Config{
		ListenAddr:     "127.0.0.1:0",
		TokenValidator: stubValidator{},
		Services:       svc,
	})
	if err != nil {
		return nil, coffererr.Errorf(coffererr.CodeCLISetupFailure, "creating server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

// No-op stubs for document generation. Handlers are never invoked.

type stubValidator struct{}

func (stubValidator) ValidateToken(context.Context, string) (*server.AuthenticatedUser, error) {
	return nil, nil
}

type stubAccounts struct{}

func (stubAccounts) Register(context.Context, string, string) (types.User, error) {
	return types.User{}, nil
}

func (stubAccounts) Login(context.Context, string, string) (types.AccessToken, error) {
	return types.AccessToken{}, nil
}

func (stubAccounts) Me(context.Context, string) (types.User, error) { return types.User{}, nil }

type stubSecrets struct{}

func (stubSecrets) List(context.Context, string, types.ListParams) ([]types.SecretSummary, error) {
	return nil, nil
}

func (stubSecrets) Get(context.Context, string, string) (types.SecretDetail, error) {
	return types.SecretDetail{}, nil
}

func (stubSecrets) Create(context.Context, string, types.CreateRequest) (types.SecretDetail, error) {
	return types.SecretDetail{}, nil
}

func (stubSecrets) Update(context.Context, string, string, types.UpdateRequest) (types.SecretDetail, error) {
	return types.SecretDetail{}, nil
}

func (stubSecrets) Delete(context.Context, string, string) error { return nil }
