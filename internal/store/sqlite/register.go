// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package sqlite

import (
	"os"
	"path/filepath"

	"github.com/coffer-dev/coffer/internal/store"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// DBFile is the database file name inside the data directory.
const DBFile = "coffer.db"

func init() {
	store.RegisterBackend("sqlite", openStore)
}

func openStore(dataPath string) (store.Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, coffererr.Wrap(err, coffererr.CodeStoreDatabaseFailure, "creating data directory",
			coffererr.FieldPath(dataPath))
	}
	return Open(filepath.Join(dataPath, DBFile))
}
