// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coffer-dev/coffer/internal/api"
	"github.com/coffer-dev/coffer/internal/secrets"
	"github.com/coffer-dev/coffer/internal/session"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

// tokenStoreFactory opens the store holding the session token. It is a
// package-level variable so tests can substitute an in-memory store.
var tokenStoreFactory = secrets.Open

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// session opens the stored login session.
func (a *app) session() (*session.Session, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	st, err := tokenStoreFactory(cfg.Client.TokenStore, cfg.Client.TokenDir)
	if err != nil {
		return nil, err
	}
	return session.New(st), nil
}

// client returns an API client for the configured server. creds may be nil.
func (a *app) client(creds api.Credentials) (*api.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return api.New(cfg.Client.ServerURL, creds, api.WithTimeout(cfg.Client.Timeout))
}

// authedClient returns a client carrying the stored session, or a session
// error when nobody is logged in.
func (a *app) authedClient() (*api.Client, *session.Session, error) {
	sess, err := a.session()
	if err != nil {
		return nil, nil, err
	}
	if _, err := sess.Require(); err != nil {
		return nil, nil, err
	}
	c, err := a.client(sess)
	if err != nil {
		return nil, nil, err
	}
	return c, sess, nil
}

// prompter reads answers from the command's stdin. Passwords are read without
// echo when stdin is a terminal and as plain lines otherwise, so scripts can
// pipe them in.
type prompter struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, r: bufio.NewReader(in), out: cmd.ErrOrStderr()}
}

func (p *prompter) terminalFD() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// line prints label and reads one trimmed line.
func (p *prompter) line(label string) (string, error) {
	if _, err := fmt.Fprint(p.out, label); err != nil {
		return "", err
	}
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		if errors.Is(err, io.EOF) {
			return "", coffererr.New(coffererr.CodeCLIInputInvalid, "no input for "+strings.TrimSpace(strings.TrimSuffix(label, ":")))
		}
		return "", coffererr.Wrap(err, coffererr.CodeCLIInputInvalid, "reading input")
	}
	return strings.TrimSpace(s), nil
}

// password reads a secret value. Surrounding whitespace is kept except the
// line ending.
func (p *prompter) password(label string) (string, error) {
	if fd, ok := p.terminalFD(); ok {
		if _, err := fmt.Fprint(p.out, label); err != nil {
			return "", err
		}
		b, err := readPassword(fd)
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", coffererr.Wrap(err, coffererr.CodeCLIInputInvalid, "reading password")
		}
		return string(b), nil
	}

	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", coffererr.New(coffererr.CodeCLIInputInvalid, "no password on stdin")
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		if coffererr.HasCode(err, coffererr.CodeCLIInputInvalid) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
