// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coffer-dev/coffer/internal/config"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// app is the state shared by every subcommand of one root command.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logFile io.Closer
}

// NewRootCmd creates the root coffer command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "coffer",
		Short: "coffer, a small password manager",
		Long: "coffer keeps website credentials on a self-hosted server and lets you browse,\n" +
			"search and edit them from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.initViper(cmd); err != nil {
				return err
			}
			return a.setupLogging(cmd.ErrOrStderr(), false)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	// Global flags map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("server", "", "coffer server URL (overrides client.server_url)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBrowseCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newSecretCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)

	return root
}

// initViper sets up a's viper with defaults, env bindings, flag bindings and
// an optional config file so the standard precedence (flag > env > file >
// defaults) is handled uniformly.
func (a *app) initViper(cmd *cobra.Command) error {
	v := a.v

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return coffererr.Errorf(coffererr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted on purpose: with it viper also tries the
		// bare name, which matches the ./coffer binary.
		v.SetConfigName("coffer")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "coffer"))
		v.AddConfigPath("/etc/coffer")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return coffererr.Errorf(coffererr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return coffererr.Errorf(coffererr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	if err := v.BindPFlag("client.server_url", cmd.Root().PersistentFlags().Lookup("server")); err != nil {
		return coffererr.Errorf(coffererr.CodeCLISetupFailure, "binding server flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return coffererr.Errorf(coffererr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	config.WarnInsecurePermissions(v.ConfigFileUsed())
	return nil
}

// config unmarshals and validates the merged configuration once.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// setupLogging installs the default slog logger. Logs go to log.file when set,
// to stderr otherwise. toFile forces a file (the default log path when
// log.file is empty) for commands that own the terminal.
func (a *app) setupLogging(stderr io.Writer, toFile bool) error {
	level := parseLevel(a.v.GetString("log.level"))
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}

	path := a.v.GetString("log.file")
	if toFile && path == "" {
		path = config.DefaultLogFile()
	}

	out := stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return coffererr.Errorf(coffererr.CodeCLISetupFailure, "creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return coffererr.Errorf(coffererr.CodeCLISetupFailure, "opening log file: %w", err)
		}
		a.close()
		a.logFile = f
		out = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
