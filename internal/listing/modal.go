// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package listing

import "fmt"

// ModalKind is the dialog currently shown over the list.
type ModalKind int

const (
	ModalClosed ModalKind = iota
	ModalViewing
	ModalEditing
	ModalCreating
	ModalConfirmingDelete
)

func (k ModalKind) String() string {
	switch k {
	case ModalClosed:
		return "closed"
	case ModalViewing:
		return "viewing"
	case ModalEditing:
		return "editing"
	case ModalCreating:
		return "creating"
	case ModalConfirmingDelete:
		return "confirming-delete"
	default:
		return fmt.Sprintf("modal(%d)", int(k))
	}
}

// ModalState is the active dialog and the secret it targets, if any.
type ModalState struct {
	Kind ModalKind
	ID   string
}

func (s ModalState) String() string {
	if s.ID == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + "(" + s.ID + ")"
}

// Modal holds at most one active dialog. Opening a dialog replaces whatever
// was open. The zero value is closed.
type Modal struct {
	state ModalState
}

func (m *Modal) View(id string)          { m.state = ModalState{Kind: ModalViewing, ID: id} }
func (m *Modal) Edit(id string)          { m.state = ModalState{Kind: ModalEditing, ID: id} }
func (m *Modal) New()                    { m.state = ModalState{Kind: ModalCreating} }
func (m *Modal) ConfirmDelete(id string) { m.state = ModalState{Kind: ModalConfirmingDelete, ID: id} }
func (m *Modal) Close()                  { m.state = ModalState{} }

// State returns the active dialog.
func (m *Modal) State() ModalState { return m.state }

// Open reports whether any dialog is shown.
func (m *Modal) Open() bool { return m.state.Kind != ModalClosed }

// Is reports whether the dialog of kind is open for id.
func (m *Modal) Is(kind ModalKind, id string) bool {
	return m.state.Kind == kind && m.state.ID == id
}

// MutationSucceeded closes the dialog that started the write. Completions
// that do not match the open dialog leave it alone. A deleted secret also
// closes any dialog still showing it. It reports whether the dialog closed.
func (m *Modal) MutationSucceeded(kind MutationKind, id string) bool {
	s := m.state
	closeIt := false
	switch kind {
	case MutationCreate:
		closeIt = s.Kind == ModalCreating
	case MutationUpdate:
		closeIt = s.Kind == ModalEditing && s.ID == id
	case MutationDelete:
		closeIt = s.ID == id && s.Kind != ModalClosed && s.Kind != ModalCreating
	}
	if closeIt {
		m.Close()
	}
	return closeIt
}
