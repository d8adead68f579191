// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package types

import (
	"strings"
	"time"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// SecretSummary is the list projection of a secret. It never carries the
// password.
type SecretSummary struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Username  string     `json:"username" yaml:"username"`
	URL       string     `json:"url,omitempty" yaml:"url,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// SecretDetail is a secret including its password. Only fetched for the view
// and edit dialogs.
type SecretDetail struct {
	SecretSummary `yaml:",inline"`
	Password      string `json:"password" yaml:"password"`
}

// Summary projects the detail onto its list form.
func (d SecretDetail) Summary() SecretSummary {
	s := d.SecretSummary
	if d.UpdatedAt != nil {
		u := *d.UpdatedAt
		s.UpdatedAt = &u
	}
	return s
}

// CreateRequest is the payload for creating a secret. URL is optional.
type CreateRequest struct {
	Title    string  `json:"title" yaml:"title"`
	Username string  `json:"username" yaml:"username"`
	Password string  `json:"password" yaml:"password"`
	URL      *string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Validate reports every missing mandatory field in one error.
func (r CreateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Username) == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return coffererr.New(coffererr.CodeClientInputInvalid,
			"required field missing: "+strings.Join(missing, ", "),
			coffererr.Field("fields", missing),
		)
	}
	return nil
}

// UpdateRequest is a partial patch; nil fields are left unchanged.
type UpdateRequest struct {
	Title    *string `json:"title,omitempty" yaml:"title,omitempty"`
	Username *string `json:"username,omitempty" yaml:"username,omitempty"`
	Password *string `json:"password,omitempty" yaml:"password,omitempty"`
	URL      *string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Empty reports whether the patch sets no field at all.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Username == nil && r.Password == nil && r.URL == nil
}

// Validate rejects empty patches and patches that blank a mandatory field.
func (r UpdateRequest) Validate() error {
	if r.Empty() {
		return coffererr.New(coffererr.CodeClientInputInvalid, "no field to update")
	}

	var missing []string
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		missing = append(missing, "title")
	}
	if r.Username != nil && strings.TrimSpace(*r.Username) == "" {
		missing = append(missing, "username")
	}
	if r.Password != nil && *r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return coffererr.New(coffererr.CodeClientInputInvalid,
			"required field missing: "+strings.Join(missing, ", "),
			coffererr.Field("fields", missing),
		)
	}
	return nil
}

// Apply returns a copy of d with the patch applied. An empty URL clears it.
func (r UpdateRequest) Apply(d SecretDetail) SecretDetail {
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Username != nil {
		d.Username = *r.Username
	}
	if r.Password != nil {
		d.Password = *r.Password
	}
	if r.URL != nil {
		d.URL = *r.URL
	}
	return d
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// ListParams selects one page of the secret list.
type ListParams struct {
	Skip   int
	Limit  int
	Search string
}
