// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	timeLayout   = "2006-01-02 15:04"
	maskPassword = "••••••••"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return coffererr.Errorf(coffererr.CodeCLIInputInvalid,
		"invalid output format %q (valid values: table, json, yaml)", format)
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return checkFormat(format)
}

func writeSecretList(w io.Writer, format string, rows []types.SecretSummary) error {
	if format != formatTable {
		if rows == nil {
			rows = []types.SecretSummary{}
		}
		return encode(w, format, rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Username", "URL", "Created"})
	for _, s := range rows {
		t.AppendRow(table.Row{s.ID, s.Title, s.Username, s.URL, s.CreatedAt.Local().Format(timeLayout)})
	}
	t.Render()
	return nil
}

func writeSecretDetail(w io.Writer, format string, d types.SecretDetail, showPassword bool) error {
	if !showPassword {
		d.Password = maskPassword
	}
	if format != formatTable {
		return encode(w, format, d)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	for _, row := range summaryRows(d.Summary()) {
		t.AppendRow(row)
		if row[0] == "Username" {
			t.AppendRow(table.Row{"Password", d.Password})
		}
	}
	t.Render()
	return nil
}

// summaryRows lays out one secret's list fields as label/value rows.
func summaryRows(s types.SecretSummary) []table.Row {
	rows := []table.Row{
		{"ID", s.ID},
		{"Title", s.Title},
		{"Username", s.Username},
		{"URL", s.URL},
		{"Created", s.CreatedAt.Local().Format(timeLayout)},
	}
	if s.UpdatedAt != nil {
		rows = append(rows, table.Row{"Updated", s.UpdatedAt.Local().Format(timeLayout)})
	}
	return rows
}

func normalizeFormat(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
