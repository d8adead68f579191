// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level coffer configuration. The client and the server
// read the same file; each uses its own sections.
type Config struct {
	Client ClientConfig `mapstructure:"client"`
	List   ListConfig   `mapstructure:"list"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// ClientConfig tells the CLI and the TUI where the server is.
type ClientConfig struct {
	ServerURL  string        `mapstructure:"server_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	TokenStore string        `mapstructure:"token_store"`
	TokenDir   string        `mapstructure:"token_dir"`
}

// ListConfig tunes the secret list view.
type ListConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	SortField      string        `mapstructure:"sort_field"`
	SortDirection  string        `mapstructure:"sort_direction"`
}

// ServerConfig configures `coffer serve`.
type ServerConfig struct {
	Listen        string          `mapstructure:"listen"`
	CORSOrigins   []string        `mapstructure:"cors_origins"`
	DataDir       string          `mapstructure:"data_dir"`
	JWTSecret     string          `mapstructure:"jwt_secret"`
	EncryptionKey string          `mapstructure:"encryption_key"`
	TokenTTL      time.Duration   `mapstructure:"token_ttl"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is the per-IP request budget of the server.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("client.server_url", "http://127.0.0.1:8000")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("client.token_store", "keyring")
	v.SetDefault("client.token_dir", DefaultStateDir())

	v.SetDefault("list.page_size", 5)
	v.SetDefault("list.search_debounce", 400*time.Millisecond)
	v.SetDefault("list.sort_field", "created_at")
	v.SetDefault("list.sort_direction", "desc")

	v.SetDefault("server.listen", "127.0.0.1:8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.data_dir", DefaultDataDir())
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.encryption_key", "")
	v.SetDefault("server.token_ttl", 30*time.Minute)
	v.SetDefault("server.rate_limit.requests_per_second", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// SetupEnv binds COFFER_* environment variables, e.g. COFFER_CLIENT_SERVER_URL.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("COFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from path (or defaults only when path is empty)
// with COFFER_ environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, coffererr.Errorf(coffererr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, coffererr.Errorf(coffererr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateClient()...)
	errs = append(errs, c.validateList()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

func invalid(format string, args ...any) error {
	return coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func (c *Config) validateClient() []error {
	var errs []error

	u, err := url.Parse(c.Client.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, invalid("client.server_url must be an http(s) URL, got %q", c.Client.ServerURL))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, invalid("client.timeout must be greater than 0, got %s", c.Client.Timeout))
	}
	switch c.Client.TokenStore {
	case "keyring", "file":
	default:
		errs = append(errs, invalid("client.token_store must be one of [keyring, file], got %q", c.Client.TokenStore))
	}
	if c.Client.TokenStore == "file" && c.Client.TokenDir == "" {
		errs = append(errs, invalid("client.token_dir must not be empty when client.token_store is file"))
	}

	return errs
}

func (c *Config) validateList() []error {
	var errs []error

	if c.List.PageSize < 1 || c.List.PageSize > 100 {
		errs = append(errs, invalid("list.page_size must be between 1 and 100, got %d", c.List.PageSize))
	}
	if c.List.SearchDebounce < 0 {
		errs = append(errs, invalid("list.search_debounce must not be negative, got %s", c.List.SearchDebounce))
	}
	switch c.List.SortField {
	case "title", "username", "url", "created_at":
	default:
		errs = append(errs, invalid("list.sort_field must be one of [title, username, url, created_at], got %q", c.List.SortField))
	}
	switch c.List.SortDirection {
	case "asc", "desc":
	default:
		errs = append(errs, invalid("list.sort_direction must be one of [asc, desc], got %q", c.List.SortDirection))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, invalid("server.listen must not be empty"))
	} else if _, portStr, err := net.SplitHostPort(c.Server.Listen); err != nil {
		errs = append(errs, invalid("server.listen must be a valid host:port address, got %q: %w", c.Server.Listen, err))
	} else if port, err := strconv.Atoi(portStr); err != nil {
		errs = append(errs, invalid("server.listen port must be a number, got %q", portStr))
	} else if port < 0 || port > 65535 {
		errs = append(errs, invalid("server.listen port must be between 0 and 65535, got %d", port))
	}

	if c.Server.TokenTTL <= 0 {
		errs = append(errs, invalid("server.token_ttl must be greater than 0, got %s", c.Server.TokenTTL))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, invalid("server.rate_limit.requests_per_second must not be negative, got %g", c.Server.RateLimit.RequestsPerSecond))
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst <= 0 {
		errs = append(errs, invalid("server.rate_limit.burst must be positive when a rate is set, got %d", c.Server.RateLimit.Burst))
	}

	return errs
}

func (c *Config) validateLog() []error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return []error{invalid("log.level must be one of [debug, info, warn, error], got %q", c.Log.Level)}
	}
}

// ValidateServe checks what `coffer serve` needs beyond Validate: both keys
// must be set (after keyring resolution).
func (c *Config) ValidateServe() []error {
	var errs []error
	if c.Server.JWTSecret == "" {
		errs = append(errs, invalid("server.jwt_secret must be set to run the server"))
	}
	if c.Server.EncryptionKey == "" {
		errs = append(errs, invalid("server.encryption_key must be set to run the server"))
	}
	if c.Server.DataDir == "" {
		errs = append(errs, invalid("server.data_dir must not be empty"))
	}
	return errs
}
