// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coffer-dev/coffer/pkg/types"
)

const (
	fieldTitle = iota
	fieldUsername
	fieldPassword
	fieldURL
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Username", "Password", "URL"}

// form is the create/edit dialog. For an edit, original is the secret as
// loaded and only fields that differ from it are sent.
type form struct {
	inputs   [fieldCount]textinput.Model
	focus    int
	editing  bool
	loaded   bool
	original types.SecretDetail
}

func newForm() form {
	var f form
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Placeholder = strings.ToLower(fieldLabels[i])
		f.inputs[i] = in
	}
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].EchoCharacter = '•'
	f.inputs[fieldURL].Placeholder = "https://… (optional)"
	f.inputs[fieldTitle].Focus()
	return f
}

func newEditForm() form {
	f := newForm()
	f.editing = true
	return f
}

func (f *form) fill(d types.SecretDetail) {
	f.original = d
	f.loaded = true
	f.inputs[fieldTitle].SetValue(d.Title)
	f.inputs[fieldUsername].SetValue(d.Username)
	f.inputs[fieldPassword].SetValue(d.Password)
	f.inputs[fieldURL].SetValue(d.URL)
}

func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) value(field int) string {
	v := f.inputs[field].Value()
	if field == fieldPassword {
		return v
	}
	return strings.TrimSpace(v)
}

func (f form) createRequest() types.CreateRequest {
	req := types.CreateRequest{
		Title:    f.value(fieldTitle),
		Username: f.value(fieldUsername),
		Password: f.value(fieldPassword),
	}
	if u := f.value(fieldURL); u != "" {
		req.URL = types.Ptr(u)
	}
	return req
}

// updateRequest holds the fields changed since fill. A cleared URL is sent as
// an empty string.
func (f form) updateRequest() types.UpdateRequest {
	var req types.UpdateRequest
	if v := f.value(fieldTitle); v != f.original.Title {
		req.Title = types.Ptr(v)
	}
	if v := f.value(fieldUsername); v != f.original.Username {
		req.Username = types.Ptr(v)
	}
	if v := f.value(fieldPassword); v != f.original.Password {
		req.Password = types.Ptr(v)
	}
	if v := f.value(fieldURL); v != f.original.URL {
		req.URL = types.Ptr(v)
	}
	return req
}

func (f form) view(busy bool, errMsg string) string {
	var b strings.Builder
	title := "New secret"
	if f.editing {
		title = "Edit " + f.original.Title
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	for i, in := range f.inputs {
		label := fieldLabels[i]
		if i != fieldURL {
			label += "*"
		}
		b.WriteString(labelStyle.Render(label) + " " + in.View() + "\n")
	}
	if errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(errMsg) + "\n")
	}
	if busy {
		b.WriteString("\n" + dimStyle.Render("saving…"))
	} else {
		b.WriteString("\n" + dimStyle.Render("tab/shift+tab move  ctrl+s save  esc cancel"))
	}
	return boxStyle.Render(b.String())
}
