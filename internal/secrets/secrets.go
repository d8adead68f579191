// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package secrets

import (
	"os"
	"path/filepath"
	"strings"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// Store keeps small credentials (the session token, server keys) outside the
// config file.
type Store interface {
	// Store saves value under service and key, replacing any previous value.
	Store(service, key, value string) error

	// Retrieve returns the value, or an error with CodeKeyringNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes the value, or returns an error with CodeKeyringNotFound.
	Delete(service, key string) error
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// Open returns the store for backend. dir is only used by the file backend.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendKeyring:
		return NewKeyringStore(), nil
	case BackendFile:
		return NewFileStore(dir), nil
	default:
		return nil, coffererr.Errorf(coffererr.CodeKeyringInvalidInput,
			"unknown token store %q (want %q or %q)", backend, BackendKeyring, BackendFile)
	}
}

func checkInput(op, service, key string) error {
	if service == "" {
		return coffererr.New(coffererr.CodeKeyringInvalidInput, "secret "+op+": service must not be empty")
	}
	if key == "" {
		return coffererr.New(coffererr.CodeKeyringInvalidInput, "secret "+op+": key must not be empty")
	}
	return nil
}

// FileStore keeps each value in its own 0600 file under dir/service/key. It
// backs headless machines without a secret service.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(service, key string) (string, error) {
	if strings.ContainsAny(service, `/\`) || strings.ContainsAny(key, `/\`) || service == ".." || key == ".." {
		return "", coffererr.Errorf(coffererr.CodeKeyringInvalidInput,
			"invalid secret name %s/%s", service, key)
	}
	return filepath.Join(s.dir, service, key), nil
}

func (s *FileStore) Store(service, key, value string) error {
	if err := checkInput("store", service, key); err != nil {
		return err
	}
	p, err := s.path(service, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return coffererr.Wrapf(err, coffererr.CodeKeyringStoreFailure, "creating %s", filepath.Dir(p))
	}
	if err := os.WriteFile(p, []byte(value), 0o600); err != nil {
		return coffererr.Wrapf(err, coffererr.CodeKeyringStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *FileStore) Retrieve(service, key string) (string, error) {
	if err := checkInput("retrieve", service, key); err != nil {
		return "", err
	}
	p, err := s.path(service, key)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
		}
		return "", coffererr.Wrapf(err, coffererr.CodeKeyringStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return string(raw), nil
}

func (s *FileStore) Delete(service, key string) error {
	if err := checkInput("delete", service, key); err != nil {
		return err
	}
	p, err := s.path(service, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
		}
		return coffererr.Wrapf(err, coffererr.CodeKeyringDeleteFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}
