// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

var bearerSecurity = []map[string][]string{{"bearer": {}}}

func (s *Server) registerRoutes() {
	// Auth endpoints
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Create an account",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange credentials for an access token",
		Description: "OAuth2 password flow: form fields `username` (the email) and `password`.",
		Tags:        []string{"auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user",
		Tags:        []string{"auth"},
		Security:    bearerSecurity,
	}, s.handleMe)

	// Secret endpoints. The collection answers with and without the
	// trailing slash; only the bare path is documented.
	for _, path := range []string{"/secrets", "/secrets/"} {
		alias := path == "/secrets/"

		huma.Register(s.api, huma.Operation{
			OperationID: operationID("list-secrets", alias),
			Method:      http.MethodGet,
			Path:        path,
			Summary:     "List secrets, newest first",
			Tags:        []string{"secrets"},
			Security:    bearerSecurity,
			Hidden:      alias,
		}, s.handleListSecrets)

		huma.Register(s.api, huma.Operation{
			OperationID:   operationID("create-secret", alias),
			Method:        http.MethodPost,
			Path:          path,
			Summary:       "Create a secret",
			Tags:          []string{"secrets"},
			Security:      bearerSecurity,
			DefaultStatus: http.StatusCreated,
			Hidden:        alias,
		}, s.handleCreateSecret)
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-secret",
		Method:      http.MethodGet,
		Path:        "/secrets/{id}",
		Summary:     "Get a secret with its password",
		Tags:        []string{"secrets"},
		Security:    bearerSecurity,
	}, s.handleGetSecret)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-secret",
		Method:      http.MethodPatch,
		Path:        "/secrets/{id}",
		Summary:     "Update some fields of a secret",
		Tags:        []string{"secrets"},
		Security:    bearerSecurity,
	}, s.handleUpdateSecret)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-secret",
		Method:        http.MethodDelete,
		Path:          "/secrets/{id}",
		Summary:       "Delete a secret",
		Tags:          []string{"secrets"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSecret)
}

func operationID(base string, alias bool) string {
	if alias {
		return base + "-slash"
	}
	return base
}

// --- Request/Response types for huma ---

type registerInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Account email"`
		Password string `json:"password" minLength:"1" doc:"Account password"`
	}
}

type userOutput struct {
	Body types.User
}

type loginInput struct {
	RawBody []byte `contentType:"application/x-www-form-urlencoded"`
}

type loginOutput struct {
	Body types.AccessToken
}

type listSecretsInput struct {
	Skip   int    `query:"skip" default:"0" doc:"Rows to skip"`
	Limit  int    `query:"limit" default:"100" doc:"Page size, clamped to 1..100"`
	Search string `query:"search" doc:"Case-insensitive substring of title or username"`
}

type listSecretsOutput struct {
	Body []types.SecretSummary
}

type secretIDInput struct {
	ID string `path:"id" doc:"Secret id"`
}

type secretOutput struct {
	Body types.SecretDetail
}

type createSecretInput struct {
	Body struct {
		Title    string  `json:"title" minLength:"1"`
		Username string  `json:"username" minLength:"1"`
		Password string  `json:"password" minLength:"1"`
		URL      *string `json:"url,omitempty" required:"false"`
	}
}

type updateSecretInput struct {
	ID   string `path:"id" doc:"Secret id"`
	Body struct {
		Title    *string `json:"title,omitempty" required:"false"`
		Username *string `json:"username,omitempty" required:"false"`
		Password *string `json:"password,omitempty" required:"false"`
		URL      *string `json:"url,omitempty" required:"false"`
	}
}

// --- Handlers ---

func (s *Server) handleRegister(ctx context.Context, input *registerInput) (*userOutput, error) {
	user, err := s.services.Accounts().Register(ctx, input.Body.Email, input.Body.Password)
	if coffererr.IsConflict(err) {
		return nil, huma.Error400BadRequest("Email already registered")
	}
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &userOutput{Body: user}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *loginInput) (*loginOutput, error) {
	form, err := url.ParseQuery(string(input.RawBody))
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("malformed form body")
	}
	email, password := form.Get("username"), form.Get("password")
	if email == "" || password == "" {
		return nil, huma.Error422UnprocessableEntity("username and password are required")
	}

	tok, err := s.services.Accounts().Login(ctx, email, password)
	if coffererr.HasCode(err, coffererr.CodeAuthCredentialsInvalid) {
		return nil, huma.Error401Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &loginOutput{Body: tok}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*userOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	user, err := s.services.Accounts().Me(ctx, caller.ID)
	if coffererr.IsNotFound(err) {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &userOutput{Body: user}, nil
}

func (s *Server) handleListSecrets(ctx context.Context, input *listSecretsInput) (*listSecretsOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	rows, err := s.services.Secrets().List(ctx, caller.ID, types.ListParams{
		Skip:   input.Skip,
		Limit:  input.Limit,
		Search: input.Search,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	if rows == nil {
		rows = []types.SecretSummary{}
	}
	return &listSecretsOutput{Body: rows}, nil
}

func (s *Server) handleGetSecret(ctx context.Context, input *secretIDInput) (*secretOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	d, err := s.services.Secrets().Get(ctx, caller.ID, input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &secretOutput{Body: d}, nil
}

func (s *Server) handleCreateSecret(ctx context.Context, input *createSecretInput) (*secretOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	d, err := s.services.Secrets().Create(ctx, caller.ID, types.CreateRequest{
		Title:    input.Body.Title,
		Username: input.Body.Username,
		Password: input.Body.Password,
		URL:      input.Body.URL,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &secretOutput{Body: d}, nil
}

func (s *Server) handleUpdateSecret(ctx context.Context, input *updateSecretInput) (*secretOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	d, err := s.services.Secrets().Update(ctx, caller.ID, input.ID, types.UpdateRequest{
		Title:    input.Body.Title,
		Username: input.Body.Username,
		Password: input.Body.Password,
		URL:      input.Body.URL,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &secretOutput{Body: d}, nil
}

func (s *Server) handleDeleteSecret(ctx context.Context, input *secretIDInput) (*struct{}, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	if err := s.services.Secrets().Delete(ctx, caller.ID, input.ID); err != nil {
		return nil, toHTTPError(err)
	}
	return nil, nil
}

// toHTTPError maps a coded error onto a huma status error. Internal
// failures are logged and never leak their message.
func toHTTPError(err error) error {
	status := coffererr.HTTPStatus(err)
	switch status {
	case http.StatusNotFound:
		return huma.Error404NotFound("Secret not found")
	case http.StatusBadRequest:
		return huma.Error400BadRequest(err.Error())
	case http.StatusUnauthorized:
		return huma.Error401Unauthorized("Not authenticated")
	case http.StatusConflict:
		return huma.Error409Conflict(err.Error())
	}
	slog.Error("request failed", "code", coffererr.CodeOf(err), "error", err)
	return huma.Error500InternalServerError("An unexpected error occurred")
}
