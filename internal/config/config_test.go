// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coffer-dev/coffer/internal/config"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *config.Config {
	return &config.Config{
		Client: config.ClientConfig{ServerURL: "http://localhost:8000", Timeout: time.Second, TokenStore: "keyring"},
		List:   config.ListConfig{PageSize: 5, SearchDebounce: 400 * time.Millisecond, SortField: "created_at", SortDirection: "desc"},
		Server: config.ServerConfig{
			Listen:    "127.0.0.1:8000",
			DataDir:   "/tmp/coffer",
			TokenTTL:  30 * time.Minute,
			RateLimit: config.RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
		},
		Log: config.LogConfig{Level: "info"},
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coffer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.Client.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "keyring", cfg.Client.TokenStore)
	assert.Equal(t, 5, cfg.List.PageSize)
	assert.Equal(t, 400*time.Millisecond, cfg.List.SearchDebounce)
	assert.Equal(t, "created_at", cfg.List.SortField)
	assert.Equal(t, "desc", cfg.List.SortDirection)
	assert.Equal(t, 30*time.Minute, cfg.Server.TokenTTL)
	assert.NotEmpty(t, cfg.Server.DataDir)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
client:
  server_url: "https://vault.example.com"
list:
  page_size: 20
  search_debounce: 250ms
  sort_field: title
  sort_direction: asc
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://vault.example.com", cfg.Client.ServerURL)
	assert.Equal(t, 20, cfg.List.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.List.SearchDebounce)
	assert.Equal(t, "title", cfg.List.SortField)
	assert.Equal(t, "asc", cfg.List.SortDirection)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "client:\n  server_url: http://from-file:8000\n")
	t.Setenv("COFFER_CLIENT_SERVER_URL", "http://from-env:9000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.Client.ServerURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, coffererr.CodeConfigLoadReadFailure, coffererr.CodeOf(err))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	path := writeConfig(t, "list:\n  sort_field: colour\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list.sort_field")
	assert.True(t, coffererr.IsInvalidInput(err))
}

func TestFromViper_FlagLayerWins(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	config.SetupEnv(v)
	t.Setenv("COFFER_LIST_PAGE_SIZE", "7")
	v.Set("list.page_size", 9)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.List.PageSize)
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"server url scheme", func(c *config.Config) { c.Client.ServerURL = "ftp://x" }, "client.server_url"},
		{"server url host", func(c *config.Config) { c.Client.ServerURL = "http://" }, "client.server_url"},
		{"timeout", func(c *config.Config) { c.Client.Timeout = 0 }, "client.timeout"},
		{"token store", func(c *config.Config) { c.Client.TokenStore = "vault" }, "client.token_store"},
		{"token dir", func(c *config.Config) { c.Client.TokenStore = "file"; c.Client.TokenDir = "" }, "client.token_dir"},
		{"page size zero", func(c *config.Config) { c.List.PageSize = 0 }, "list.page_size"},
		{"page size large", func(c *config.Config) { c.List.PageSize = 101 }, "list.page_size"},
		{"debounce", func(c *config.Config) { c.List.SearchDebounce = -time.Second }, "list.search_debounce"},
		{"sort direction", func(c *config.Config) { c.List.SortDirection = "up" }, "list.sort_direction"},
		{"listen", func(c *config.Config) { c.Server.Listen = "nope" }, "server.listen"},
		{"listen port", func(c *config.Config) { c.Server.Listen = "127.0.0.1:70000" }, "server.listen"},
		{"ttl", func(c *config.Config) { c.Server.TokenTTL = 0 }, "server.token_ttl"},
		{"burst", func(c *config.Config) { c.Server.RateLimit.Burst = 0 }, "server.rate_limit.burst"},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Error(), tt.want)
			assert.Equal(t, coffererr.CodeConfigValidateInvalidValue, coffererr.CodeOf(errs[0]))
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.List.PageSize = 0
	cfg.Log.Level = "loud"

	errs := cfg.Validate()
	require.Len(t, errs, 2)
}

func TestValidateServe(t *testing.T) {
	cfg := validConfig()
	errs := cfg.ValidateServe()
	require.Len(t, errs, 2)

	var joined []string
	for _, e := range errs {
		joined = append(joined, e.Error())
	}
	assert.Contains(t, strings.Join(joined, "\n"), "server.jwt_secret")
	assert.Contains(t, strings.Join(joined, "\n"), "server.encryption_key")

	cfg.Server.JWTSecret = "s"
	cfg.Server.EncryptionKey = "k"
	assert.Empty(t, cfg.ValidateServe())
}

func TestDefaultConfigYAMLLoads(t *testing.T) {
	path := writeConfig(t, string(config.DefaultConfigYAML))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "keyring://coffer/jwt-secret", cfg.Server.JWTSecret)
	assert.True(t, strings.HasSuffix(config.DefaultConfigPath(), filepath.Join("coffer", "coffer.yaml")))
}
