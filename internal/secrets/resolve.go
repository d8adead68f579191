// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package secrets

import (
	"log/slog"
	"strings"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/spf13/viper"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", coffererr.Errorf(coffererr.CodeKeyringInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", coffererr.Errorf(coffererr.CodeKeyringInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return parts[0], parts[1], nil
}

// ResolveKeyringURI resolves a keyring:// URI to its value. Other values are
// returned unchanged.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", coffererr.Wrapf(err, coffererr.CodeKeyringNotFound, "resolving keyring URI %q", value)
	}
	return secret, nil
}

// ResolveViperSecrets replaces every keyring:// string in v with the stored
// value. Keys that cannot be resolved keep their URI and are reported
// together in the returned error.
func ResolveViperSecrets(v *viper.Viper, store Store) error {
	var errs []error
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringURI(val) {
			continue
		}

		resolved, err := ResolveKeyringURI(store, val)
		if err != nil {
			slog.Debug("keyring URI not resolved", "config_key", key, "error", err)
			errs = append(errs, coffererr.Wrapf(err, coffererr.CodeConfigValidateInvalidValue,
				"config key %s: %s", key, val))
			continue
		}
		v.Set(key, resolved)
	}
	if len(errs) == 0 {
		return nil
	}
	return coffererr.Join(errs...)
}
