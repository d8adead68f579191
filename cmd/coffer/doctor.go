// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/coffer-dev/coffer/internal/session"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the config, server reachability, the stored session, the token store and disk space.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor(cmd)
		},
	}
}

func (a *app) runDoctor(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", a.checkConfig},
		{"Server", func() string { return a.checkServer(ctx) }},
		{"Token Store", a.checkTokenStore},
		{"Session", func() string { return a.checkSession(ctx) }},
		{"Disk Space", func() string { return checkDiskSpace(a.v.GetString("server.data_dir")) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("coffer %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (a *app) checkConfig() string {
	src := "using defaults (no config file found)"
	if cfgFile := a.v.ConfigFileUsed(); cfgFile != "" {
		src = fmt.Sprintf("loaded from %s", cfgFile)
	}
	if _, err := a.config(); err != nil {
		return fmt.Sprintf("%s, invalid: %s", src, err)
	}
	return src
}

func (a *app) checkServer(ctx context.Context) string {
	c, err := a.client(nil)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	if err := c.Health(ctx); err != nil {
		if coffererr.IsNetwork(err) {
			return fmt.Sprintf("not reachable at %s (run 'coffer serve')", c.BaseURL())
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("ok at %s", c.BaseURL())
}

func (a *app) checkTokenStore() string {
	cfg, err := a.config()
	if err != nil {
		return "skipped (invalid config)"
	}
	st, err := tokenStoreFactory(cfg.Client.TokenStore, cfg.Client.TokenDir)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	if _, err := st.Retrieve(session.Service, session.TokenKey); err != nil && !coffererr.IsNotFound(err) {
		return fmt.Sprintf("%s unavailable: %s", cfg.Client.TokenStore, err)
	}
	return fmt.Sprintf("%s ok", cfg.Client.TokenStore)
}

func (a *app) checkSession(ctx context.Context) string {
	sess, err := a.session()
	if err != nil {
		return "skipped (invalid config)"
	}
	if _, ok := sess.Token(); !ok {
		return "not logged in (run 'coffer login')"
	}
	c, err := a.client(sess)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	me, err := c.Me(ctx)
	switch {
	case coffererr.IsSessionExpired(err):
		return "expired, token cleared (run 'coffer login')"
	case err != nil:
		return fmt.Sprintf("unverified: %s", err)
	}
	return fmt.Sprintf("logged in as %s", me.Email)
}

func checkDiskSpace(dataDir string) string {
	path := dataDir
	if _, err := os.Stat(path); path == "" || os.IsNotExist(err) {
		// The data dir may not exist until the first `coffer serve`.
		path, _ = os.UserHomeDir()
	}
	path = filepath.Clean(path)

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
