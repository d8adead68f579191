// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package api is the HTTP client for the coffer REST service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

// Credentials supplies the bearer token and is told when the server rejects
// it. Implementations clear the stored session and notify the host.
type Credentials interface {
	Token() (string, bool)
	Unauthorized()
}

// Client talks to one coffer server. Every 401, from any endpoint, calls
// Credentials.Unauthorized and returns a session-expired error.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// New creates a client for baseURL. creds may be nil for unauthenticated use.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue,
			"invalid server url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL is the server root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ListSecrets returns one page of summaries in server order.
func (c *Client) ListSecrets(ctx context.Context, p types.ListParams) ([]types.SecretSummary, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(p.Skip))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	var out []types.SecretSummary
	if err := c.doJSON(ctx, http.MethodGet, "/secrets?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.SecretSummary{}
	}
	return out, nil
}

// GetSecret returns one secret including its password.
func (c *Client) GetSecret(ctx context.Context, id string) (types.SecretDetail, error) {
	var out types.SecretDetail
	err := c.doJSON(ctx, http.MethodGet, "/secrets/"+url.PathEscape(id), nil, &out)
	return out, coffererr.With(err, coffererr.FieldSecretID(id))
}

// CreateSecret stores a new secret.
func (c *Client) CreateSecret(ctx context.Context, req types.CreateRequest) (types.SecretDetail, error) {
	var out types.SecretDetail
	err := c.doJSON(ctx, http.MethodPost, "/secrets/", req, &out)
	return out, err
}

// UpdateSecret applies a partial patch.
func (c *Client) UpdateSecret(ctx context.Context, id string, req types.UpdateRequest) (types.SecretDetail, error) {
	var out types.SecretDetail
	err := c.doJSON(ctx, http.MethodPatch, "/secrets/"+url.PathEscape(id), req, &out)
	return out, coffererr.With(err, coffererr.FieldSecretID(id))
}

// DeleteSecret removes a secret.
func (c *Client) DeleteSecret(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/secrets/"+url.PathEscape(id), nil, nil)
	return coffererr.With(err, coffererr.FieldSecretID(id))
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (types.User, error) {
	var out types.User
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", types.Credentials{Email: email, Password: password}, &out)
	return out, err
}

// Login exchanges credentials for an access token using the OAuth2 password
// form. A 401 still clears the stored session, but the error carries the
// server's detail since it means wrong credentials.
func (c *Client) Login(ctx context.Context, email, password string) (types.AccessToken, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return types.AccessToken{}, coffererr.Wrap(err, coffererr.CodeClientNetworkFailure, "building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out types.AccessToken
	if err := c.send(req, &out, false); err != nil {
		return types.AccessToken{}, err
	}
	if out.AccessToken == "" {
		return types.AccessToken{}, coffererr.New(coffererr.CodeClientResponseInvalid, "login response carries no token")
	}
	return out, nil
}

// Me returns the account the current token belongs to.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var out types.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return coffererr.New(coffererr.CodeClientServerFailure, "server reports status "+out.Status)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return coffererr.Wrap(err, coffererr.CodeClientInputInvalid, "encoding request body")
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return coffererr.Wrap(err, coffererr.CodeClientNetworkFailure, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, dest, true)
}

func (c *Client) send(req *http.Request, dest any, authed bool) error {
	if authed && c.creds != nil {
		if token, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return coffererr.Wrap(err, coffererr.CodeClientNetworkFailure, networkMessage(err),
			coffererr.FieldPath(req.URL.Path))
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("api request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
		c.creds.Unauthorized()
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && authed:
		return coffererr.New(coffererr.CodeClientSessionExpired, "session expired, log in again",
			coffererr.FieldStatus(resp.StatusCode), coffererr.FieldPath(req.URL.Path))
	case resp.StatusCode == http.StatusNotFound:
		return coffererr.New(coffererr.CodeClientSecretNotFound, errorDetail(resp),
			coffererr.FieldStatus(resp.StatusCode), coffererr.FieldPath(req.URL.Path))
	case resp.StatusCode >= 400:
		return coffererr.New(coffererr.CodeClientServerFailure, errorDetail(resp),
			coffererr.FieldStatus(resp.StatusCode), coffererr.FieldPath(req.URL.Path))
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return coffererr.Wrap(err, coffererr.CodeClientResponseInvalid, "decoding response",
			coffererr.FieldPath(req.URL.Path))
	}
	return nil
}

// errorDetail extracts the message of a problem+json or {"detail": ...} body.
func errorDetail(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Title  string          `json:"title"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		if len(body.Detail) > 0 && string(body.Detail) != "null" {
			return string(body.Detail)
		}
		if body.Title != "" {
			return body.Title
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Sprintf("server returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Sprintf("server returned %d", resp.StatusCode)
}

func networkMessage(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "server is not reachable"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "request failed"
}
