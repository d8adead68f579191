// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package secrets

import (
	"errors"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/zalando/go-keyring"
)

// KeyringStore implements Store using the OS keyring via zalando/go-keyring:
// Keychain on macOS, secret-service over D-Bus on Linux and the Credential
// Manager on Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkInput("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return coffererr.Wrapf(err, coffererr.CodeKeyringStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkInput("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
		}
		return "", coffererr.Wrapf(err, coffererr.CodeKeyringStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkInput("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return coffererr.Errorf(coffererr.CodeKeyringNotFound, "secret %s/%s not found", service, key)
		}
		return coffererr.Wrapf(err, coffererr.CodeKeyringDeleteFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}
