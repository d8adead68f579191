// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-dev/coffer/internal/listing"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "secret",
		Aliases: []string{"secrets"},
		Short:   "Manage stored secrets",
		Long:    "List, show, add, edit and delete the secrets of the logged-in account.",
	}

	cmd.AddCommand(
		newSecretListCmd(a),
		newSecretGetCmd(a),
		newSecretAddCmd(a),
		newSecretEditCmd(a),
		newSecretDeleteCmd(a),
	)

	return cmd
}

func newSecretListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of secrets",
		Long: "List one page of secrets, newest first on the server. --sort reorders the\n" +
			"fetched page locally; it does not change which secrets are on the page.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSecretList(cmd)
		},
	}
	cmd.Flags().StringP("search", "s", "", "case-insensitive substring of title or username")
	cmd.Flags().Int("page", 1, "page number, starting at 1")
	cmd.Flags().Int("limit", 0, "page size (defaults to list.page_size)")
	cmd.Flags().String("sort", "", "sort the page by title, username, url or created_at")
	cmd.Flags().String("order", "", "asc or desc (defaults to list.sort_direction)")
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newSecretGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSecretGet(cmd, args[0])
		},
	}
	cmd.Flags().Bool("show-password", false, "print the password instead of a mask")
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newSecretAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new secret",
		Long: "Store a new secret. The password is prompted for, or read from the first\n" +
			"line of stdin when it is not a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSecretAdd(cmd)
		},
	}
	cmd.Flags().String("title", "", "title (required)")
	cmd.Flags().String("username", "", "username (required)")
	cmd.Flags().String("url", "", "website URL")
	return cmd
}

func newSecretEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a secret",
		Long: "Change the given fields of a secret; other fields keep their value.\n" +
			"--url \"\" removes the URL. --password prompts for a new password.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSecretEdit(cmd, args[0])
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("username", "", "new username")
	cmd.Flags().String("url", "", "new website URL")
	cmd.Flags().Bool("password", false, "prompt for a new password")
	return cmd
}

func newSecretDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a secret",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSecretDelete(cmd, args[0])
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) runSecretList(cmd *cobra.Command) error {
	format := normalizeFormat(mustString(cmd, "output"))
	if err := checkFormat(format); err != nil {
		return err
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	if page < 1 {
		return coffererr.Errorf(coffererr.CodeCLIInputInvalid, "--page must be at least 1, got %d", page)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 {
		limit = cfg.List.PageSize
	}
	if limit < 1 {
		return coffererr.Errorf(coffererr.CodeCLIInputInvalid, "--limit must be positive, got %d", limit)
	}

	sort, err := sortFromFlags(cmd, cfg.List.SortField, cfg.List.SortDirection)
	if err != nil {
		return err
	}

	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	rows, err := c.ListSecrets(cmd.Context(), types.ListParams{
		Skip:   (page - 1) * limit,
		Limit:  limit,
		Search: mustString(cmd, "search"),
	})
	if err != nil {
		return err
	}

	if len(rows) == 0 && format == formatTable {
		msg := "No secrets stored."
		switch {
		case mustString(cmd, "search") != "":
			msg = fmt.Sprintf("No secrets match %q.", mustString(cmd, "search"))
		case page > 1:
			msg = fmt.Sprintf("No secrets on page %d.", page)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
		return err
	}
	return writeSecretList(cmd.OutOrStdout(), format, sort.Apply(rows))
}

// sortFromFlags merges --sort and --order over the configured defaults.
func sortFromFlags(cmd *cobra.Command, defField, defDir string) (listing.SortState, error) {
	fieldName := mustString(cmd, "sort")
	if fieldName == "" {
		fieldName = defField
	}
	dirName := mustString(cmd, "order")
	if dirName == "" {
		dirName = defDir
	}

	field, err := listing.ParseSortField(fieldName)
	if err != nil {
		return listing.SortState{}, coffererr.Wrap(err, coffererr.CodeCLIInputInvalid, "--sort")
	}
	dir, err := listing.ParseDirection(dirName)
	if err != nil {
		return listing.SortState{}, coffererr.Wrap(err, coffererr.CodeCLIInputInvalid, "--order")
	}
	return listing.SortState{Field: field, Dir: dir}, nil
}

func (a *app) runSecretGet(cmd *cobra.Command, id string) error {
	format := normalizeFormat(mustString(cmd, "output"))
	if err := checkFormat(format); err != nil {
		return err
	}
	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	d, err := c.GetSecret(cmd.Context(), id)
	if err != nil {
		return err
	}
	show, _ := cmd.Flags().GetBool("show-password")
	return writeSecretDetail(cmd.OutOrStdout(), format, d, show)
}

func (a *app) runSecretAdd(cmd *cobra.Command) error {
	req := types.CreateRequest{
		Title:    mustString(cmd, "title"),
		Username: mustString(cmd, "username"),
	}
	if cmd.Flags().Changed("url") {
		req.URL = types.Ptr(mustString(cmd, "url"))
	}

	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	if req.Password, err = newPrompter(cmd).password("Password: "); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	d, err := c.CreateSecret(cmd.Context(), req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %q (id %s).\n", d.Title, d.ID)
	return err
}

func (a *app) runSecretEdit(cmd *cobra.Command, id string) error {
	var req types.UpdateRequest
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.Title = types.Ptr(mustString(cmd, "title"))
	}
	if flags.Changed("username") {
		req.Username = types.Ptr(mustString(cmd, "username"))
	}
	if flags.Changed("url") {
		req.URL = types.Ptr(mustString(cmd, "url"))
	}

	c, _, err := a.authedClient()
	if err != nil {
		return err
	}
	if prompt, _ := flags.GetBool("password"); prompt {
		pw, err := newPrompter(cmd).password("New password: ")
		if err != nil {
			return err
		}
		req.Password = &pw
	}
	if req.Empty() {
		return coffererr.New(coffererr.CodeCLIInputInvalid,
			"nothing to change, pass at least one of --title, --username, --url or --password")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	d, err := c.UpdateSecret(cmd.Context(), id, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %q.\n", d.Title)
	return err
}

func (a *app) runSecretDelete(cmd *cobra.Command, id string) error {
	c, _, err := a.authedClient()
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		d, err := c.GetSecret(cmd.Context(), id)
		if err != nil {
			return err
		}
		ok, err := newPrompter(cmd).confirm(fmt.Sprintf("Delete %q? This cannot be undone.", d.Title))
		if err != nil {
			return err
		}
		if !ok {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return err
		}
	}

	if err := c.DeleteSecret(cmd.Context(), id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret %s.\n", id)
	return err
}

func mustString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}
