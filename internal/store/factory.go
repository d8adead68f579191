// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package store

import (
	"sync"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// Factory opens a Store rooted at a data directory.
type Factory func(dataPath string) (Store, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers the factory for a named backend. Backend
// packages call this from init().
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// Open creates the store for cfg under dataPath.
func Open(cfg *StorageConfig, dataPath string) (Store, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, coffererr.Errorf(coffererr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	return factory(dataPath)
}
