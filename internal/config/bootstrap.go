// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

//go:embed coffer.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns $XDG_CONFIG_HOME/coffer/coffer.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "coffer", "coffer.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/coffer, where the server keeps its
// database.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "coffer")
}

// DefaultStateDir returns $XDG_STATE_HOME/coffer, home of the log file and
// the file token store.
func DefaultStateDir() string {
	return filepath.Join(xdg.StateHome, "coffer")
}

// DefaultLogFile is where the terminal UI logs, since it owns the screen.
func DefaultLogFile() string {
	return filepath.Join(DefaultStateDir(), "coffer.log")
}

// BootstrapConfig writes the default commented config to the default path if
// nothing is there yet. It returns the path written, or "" when the file
// already existed or could not be written (logged, not fatal).
func BootstrapConfig() string {
	return bootstrapAt(DefaultConfigPath())
}

func bootstrapAt(cfgPath string) string {
	if _, err := os.Stat(cfgPath); err == nil {
		return ""
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	if err := os.WriteFile(cfgPath, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
