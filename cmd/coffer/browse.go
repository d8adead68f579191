// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coffer-dev/coffer/internal/listing"
	"github.com/coffer-dev/coffer/internal/tui"
)

// runBrowser is the terminal UI entry point; tests replace it.
var runBrowser = tui.Run

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "browse",
		Aliases: []string{"ui"},
		Short:   "Browse secrets in the terminal UI",
		Long: "Open the interactive secret list: search, page, sort, view, copy, add,\n" +
			"edit and delete. Logs go to log.file (or the default state directory) while it runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBrowse(cmd)
		},
	}
}

func (a *app) runBrowse(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	c, sess, err := a.authedClient()
	if err != nil {
		return err
	}

	field, err := listing.ParseSortField(cfg.List.SortField)
	if err != nil {
		return err
	}
	dir, err := listing.ParseDirection(cfg.List.SortDirection)
	if err != nil {
		return err
	}

	// The UI owns the terminal from here on.
	if err := a.setupLogging(cmd.ErrOrStderr(), true); err != nil {
		return err
	}
	slog.Info("opening browser", "server", c.BaseURL())

	return runBrowser(cmd.Context(), tui.Options{
		Backend:  c,
		Session:  sess,
		PageSize: cfg.List.PageSize,
		Debounce: cfg.List.SearchDebounce,
		Sort:     listing.SortState{Field: field, Dir: dir},
		OnSessionExpired: func() {
			slog.Warn("session expired while browsing")
		},
	})
}
