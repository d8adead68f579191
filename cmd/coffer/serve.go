// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coffer-dev/coffer/internal/auth"
	"github.com/coffer-dev/coffer/internal/config"
	"github.com/coffer-dev/coffer/internal/sealer"
	"github.com/coffer-dev/coffer/internal/secrets"
	"github.com/coffer-dev/coffer/internal/server"
	"github.com/coffer-dev/coffer/internal/store"
	_ "github.com/coffer-dev/coffer/internal/store/sqlite"
	"github.com/coffer-dev/coffer/internal/vault"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// keyStoreFactory opens the store behind keyring:// config values. It is a
// package-level variable so tests can substitute a file store.
var keyStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// serverKeys are the config keys holding server key material.
var serverKeys = []string{"server.jwt_secret", "server.encryption_key"}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coffer server",
		Long: "Open the database, load the signing and encryption keys and serve the REST API\n" +
			"until interrupted. --init-keys generates missing keyring keys and exits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}
	cmd.Flags().String("listen", "", "listen address host:port (overrides server.listen)")
	cmd.Flags().String("data-dir", "", "database directory (overrides server.data_dir)")
	cmd.Flags().Bool("init-keys", false, "generate missing keyring keys and exit")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	if err := a.v.BindPFlag("server.listen", cmd.Flags().Lookup("listen")); err != nil {
		return coffererr.Errorf(coffererr.CodeCLISetupFailure, "binding listen flag: %w", err)
	}
	if err := a.v.BindPFlag("server.data_dir", cmd.Flags().Lookup("data-dir")); err != nil {
		return coffererr.Errorf(coffererr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}

	ks := keyStoreFactory()
	if initOnly, _ := cmd.Flags().GetBool("init-keys"); initOnly {
		return initKeys(a.v, ks, cmd.OutOrStdout())
	}

	if err := secrets.ResolveViperSecrets(a.v, ks); err != nil {
		return coffererr.Wrap(err, coffererr.CodeConfigValidateInvalidValue,
			"resolving server keys (run `coffer serve --init-keys` to create them)")
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if errs := cfg.ValidateServe(); len(errs) > 0 {
		return coffererr.Errorf(coffererr.CodeConfigValidateInvalidValue, "validating server config: %w", errors.Join(errs...))
	}

	srv, st, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("coffer server starting", "listen", cfg.Server.Listen, "data_dir", cfg.Server.DataDir, "version", version)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", cfg.Server.Listen)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	slog.Info("coffer server stopped")
	return nil
}

// buildServer wires the store, key material, vault services and HTTP server.
// The caller closes the returned store.
func buildServer(cfg *config.Config) (*server.Server, store.Store, error) {
	st, err := store.Open(nil, cfg.Server.DataDir)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Ping(context.Background()); err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	srv, err := newServer(cfg, st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return srv, st, nil
}

func newServer(cfg *config.Config, st store.Store) (*server.Server, error) {
	issuer, err := auth.NewIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	if err != nil {
		return nil, err
	}
	sl, err := sealer.New(cfg.Server.EncryptionKey)
	if err != nil {
		return nil, err
	}

	accounts := vault.NewAccounts(st, issuer)
	services, err := server.NewServices(accounts, vault.NewSecrets(st, sl))
	if err != nil {
		return nil, err
	}

	return server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
		TokenValidator: accounts,
		Services:       services,
		Version:        version,
	})
}

// initKeys generates every keyring-backed server key that does not exist yet.
// Keys configured as literal values are left alone.
func initKeys(v *viper.Viper, ks secrets.Store, out io.Writer) error {
	for _, name := range serverKeys {
		val := v.GetString(name)
		if !secrets.IsKeyringURI(val) {
			_, _ = fmt.Fprintf(out, "%s: set directly in config, skipped\n", name)
			continue
		}
		service, key, err := secrets.ParseKeyringURI(val)
		if err != nil {
			return err
		}

		if _, err := ks.Retrieve(service, key); err == nil {
			_, _ = fmt.Fprintf(out, "%s: already present in %s\n", name, val)
			continue
		} else if !coffererr.IsNotFound(err) {
			return err
		}

		generated, err := sealer.GenerateKey()
		if err != nil {
			return err
		}
		if err := ks.Store(service, key, generated); err != nil {
			return err
		}
		slog.Info("generated server key", "config_key", name, "uri", val)
		_, _ = fmt.Fprintf(out, "%s: generated and stored in %s\n", name, val)
	}
	return nil
}
