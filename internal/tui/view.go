// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/coffer-dev/coffer/internal/listing"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
)

const createdLayout = "2006-01-02 15:04"

var columnTitles = map[listing.SortField]string{
	listing.SortByTitle:     "Title",
	listing.SortByUsername:  "Username",
	listing.SortByURL:       "URL",
	listing.SortByCreatedAt: "Created",
}

var columnWidths = map[listing.SortField]int{
	listing.SortByTitle:     24,
	listing.SortByUsername:  20,
	listing.SortByURL:       30,
	listing.SortByCreatedAt: 16,
}

// refreshTable re-derives the displayed rows from the controller's page and
// the active sort.
func (m *Model) refreshTable() {
	cols := make([]table.Column, 0, len(listing.SortFields))
	for i, f := range listing.SortFields {
		title := fmt.Sprintf("%d %s", i+1, columnTitles[f])
		if f == m.sort.Field {
			if m.sort.Dir == listing.Ascending {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: columnWidths[f]})
	}

	m.visible = m.sort.Apply(m.c.ctrl.Rows())
	rows := make([]table.Row, 0, len(m.visible))
	for _, s := range m.visible {
		rows = append(rows, table.Row{s.Title, s.Username, s.URL, s.CreatedAt.Local().Format(createdLayout)})
	}

	// Columns first: SetRows renders against the current column count.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) busy() bool {
	return m.c.ctrl.Fetching() ||
		m.c.lists.Read(m.c.ctrl.Key()).Fetching ||
		m.c.mutations.Pending() > 0
}

func (m Model) View() string {
	if m.expired {
		return boxStyle.Render(
			titleStyle.Render("Session expired") + "\n\n" +
				"The server no longer accepts your login.\n" +
				"Run " + promptStyle.Render("coffer login") + " and open the browser again.\n\n" +
				dimStyle.Render("q to quit"),
		)
	}

	switch s := m.c.modal.State(); s.Kind {
	case listing.ModalViewing:
		return m.viewDialog()
	case listing.ModalEditing, listing.ModalCreating:
		if s.Kind == listing.ModalEditing && !m.form.loaded {
			return m.loadingDialog()
		}
		return m.form.view(m.c.mutations.Pending() > 0, m.dialogErr)
	case listing.ModalConfirmingDelete:
		return m.confirmDialog(s.ID)
	}
	return m.listView()
}

func (m Model) listView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("coffer") + "  ")
	b.WriteString(m.search.View())
	if m.busy() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	ctrl := m.c.ctrl
	if err := ctrl.Err(); err != nil && !coffererr.IsSessionExpired(err) {
		b.WriteString(errorStyle.Render("could not load secrets: "+err.Error()) + "\n")
	}

	switch {
	case ctrl.Loading():
		b.WriteString(dimStyle.Render("loading secrets…") + "\n")
	case len(m.visible) == 0 && ctrl.Search() != "":
		b.WriteString(dimStyle.Render(fmt.Sprintf("no results for %q", ctrl.Search())) + "\n")
	case len(m.visible) == 0 && ctrl.Page() > 0:
		b.WriteString(dimStyle.Render("no more secrets, press ← to go back") + "\n")
	case len(m.visible) == 0:
		b.WriteString(dimStyle.Render("no secrets yet, press a to add one") + "\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	page := fmt.Sprintf("page %d", ctrl.Page()+1)
	if ctrl.HasNextPage() {
		page += " →"
	}
	if ctrl.Page() > 0 {
		page = "← " + page
	}
	b.WriteString("\n" + dimStyle.Render(page) + "\n")

	if m.status != "" {
		style := successStyle
		if m.statusIsError {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) loadingDialog() string {
	body := m.spinner.View() + " loading secret…"
	if m.detailErr != nil {
		body = errorStyle.Render("could not load secret: "+m.detailErr.Error()) + "\n\n" + dimStyle.Render("esc close")
	}
	return boxStyle.Render(body)
}

func (m Model) viewDialog() string {
	if m.detail == nil {
		return m.loadingDialog()
	}
	d := m.detail

	password := strings.Repeat("•", 8)
	if m.showPassword {
		password = d.Password
	}
	url := d.URL
	if url == "" {
		url = dimStyle.Render("none")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Title) + "\n\n")
	b.WriteString(labelStyle.Render("Username") + " " + d.Username + "\n")
	b.WriteString(labelStyle.Render("Password") + " " + password + "\n")
	b.WriteString(labelStyle.Render("URL") + " " + url + "\n")
	b.WriteString(labelStyle.Render("Created") + " " + d.CreatedAt.Local().Format(createdLayout) + "\n")
	if d.UpdatedAt != nil {
		b.WriteString(labelStyle.Render("Updated") + " " + d.UpdatedAt.Local().Format(createdLayout) + "\n")
	}
	if m.status != "" {
		style := successStyle
		if m.statusIsError {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	toggle := "s show"
	if m.showPassword {
		toggle = "s hide"
	}
	b.WriteString("\n" + dimStyle.Render(toggle+"  c copy  e edit  d delete  esc close"))
	return boxStyle.Render(b.String())
}

func (m Model) confirmDialog(id string) string {
	name := id
	for _, s := range m.visible {
		if s.ID == id {
			name = s.Title
			break
		}
	}

	var b strings.Builder
	b.WriteString(errorStyle.Render("Delete "+name+"?") + "\n\n")
	b.WriteString("This cannot be undone.\n")
	if m.dialogErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.dialogErr) + "\n")
	}
	if m.c.mutations.InFlight(listing.MutationDelete) {
		b.WriteString("\n" + m.spinner.View() + " deleting…")
	} else {
		b.WriteString("\n" + dimStyle.Render("y delete  n cancel"))
	}
	return dangerBox.Render(b.String())
}
