// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

func newRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Long: "Create an account on the coffer server and store the session token.\n" +
			"The password is prompted for, or read from the first line of stdin when it is not a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRegister(cmd)
		},
	}
	cmd.Flags().String("email", "", "account email (prompted when empty)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLogin(cmd)
		},
	}
	cmd.Flags().String("email", "", "account email (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if err := sess.Clear(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := a.authedClient()
			if err != nil {
				return err
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", me.Email, me.ID)
			return err
		},
	}
}

// credentials collects the email and password for register and login.
func credentials(cmd *cobra.Command, p *prompter, confirm bool) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		var err error
		if email, err = p.line("Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := p.password("Password: ")
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", coffererr.New(coffererr.CodeCLIInputInvalid, "password must not be empty")
	}
	if _, tty := p.terminalFD(); confirm && tty {
		again, err := p.password("Repeat password: ")
		if err != nil {
			return "", "", err
		}
		if again != password {
			return "", "", coffererr.New(coffererr.CodeCLIInputInvalid, "passwords do not match")
		}
	}
	return email, password, nil
}

func (a *app) runRegister(cmd *cobra.Command) error {
	email, password, err := credentials(cmd, newPrompter(cmd), true)
	if err != nil {
		return err
	}

	c, err := a.client(nil)
	if err != nil {
		return err
	}
	user, err := c.Register(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if err := a.login(cmd, user.Email, password); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s.\n", user.Email)
	return err
}

func (a *app) runLogin(cmd *cobra.Command) error {
	email, password, err := credentials(cmd, newPrompter(cmd), false)
	if err != nil {
		return err
	}
	if err := a.login(cmd, email, password); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", email)
	return err
}

func (a *app) login(cmd *cobra.Command, email, password string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	c, err := a.client(sess)
	if err != nil {
		return err
	}
	tok, err := c.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	return sess.Save(tok.AccessToken)
}
