// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

// Package tui is the interactive secret browser: a searchable, sortable,
// paginated table with view, edit, create and delete dialogs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coffer-dev/coffer/internal/listing"
	"github.com/coffer-dev/coffer/internal/query"
	coffererr "github.com/coffer-dev/coffer/pkg/errors"
	"github.com/coffer-dev/coffer/pkg/types"
)

// Backend is the server API the browser reads and writes through.
type Backend interface {
	listing.Source
	listing.Writer
}

// SessionNotifier reports server rejection of the session token.
type SessionNotifier interface {
	OnLogout(fn func())
}

// Options configures the browser.
type Options struct {
	Backend  Backend
	Session  SessionNotifier
	PageSize int
	Debounce time.Duration
	Sort     listing.SortState
	// OnSessionExpired runs once when the server rejects the token.
	OnSessionExpired func()
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// --- messages ---

type (
	listLoadedMsg struct {
		key  query.Key
		rows []types.SecretSummary
		err  error
	}
	detailLoadedMsg struct {
		id     string
		detail types.SecretDetail
		err    error
	}
	mutationDoneMsg struct {
		kind   listing.MutationKind
		id     string
		detail types.SecretDetail
		err    error
	}
	cacheChangedMsg    struct{ key query.Key }
	searchSettledMsg   struct{ value string }
	sessionExpiredMsg  struct{}
	clipboardResultMsg struct{ err error }
)

// core is the state shared by every copy of Model.
type core struct {
	ctx       context.Context
	backend   Backend
	ctrl      *listing.Controller
	lists     *query.Cache[[]types.SecretSummary]
	details   *query.Cache[types.SecretDetail]
	mutations *listing.Mutations
	modal     *listing.Modal
	debouncer *query.Debouncer[string]
	changes   <-chan query.Key
	expired   chan struct{}

	unsubscribe func()
	unobserve   func()
}

// Model is the bubbletea model of the browser.
type Model struct {
	c    *core
	opts Options

	sort    listing.SortState
	visible []types.SecretSummary

	search  textinput.Model
	table   table.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	detail        *types.SecretDetail
	detailErr     error
	showPassword  bool
	form          form
	dialogErr     string
	status        string
	statusIsError bool
	expired       bool
	width         int
}

// New builds the browser. Call Close when the program has exited.
func New(ctx context.Context, opts Options) (Model, error) {
	if opts.Backend == nil {
		return Model{}, coffererr.New(coffererr.CodeCLISetupFailure, "browser needs a backend")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if !opts.Sort.Field.Valid() {
		opts.Sort = listing.DefaultSort()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	lists := query.NewCache(query.WithClone(slices.Clone[[]types.SecretSummary]))
	details := query.NewCache(query.WithClone(cloneDetail))
	changes, unsubscribe := lists.Subscribe()

	c := &core{
		ctx:         ctx,
		backend:     opts.Backend,
		ctrl:        listing.NewController(opts.Backend, opts.PageSize),
		lists:       lists,
		details:     details,
		mutations:   listing.NewMutations(opts.Backend, lists, details),
		modal:       &listing.Modal{},
		debouncer:   query.NewDebouncer[string](opts.Debounce),
		changes:     changes,
		expired:     make(chan struct{}, 1),
		unsubscribe: unsubscribe,
	}
	if opts.Session != nil {
		opts.Session.OnLogout(func() {
			select {
			case c.expired <- struct{}{}:
			default:
			}
		})
	}

	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "title or username"
	search.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	tbl := table.New(
		table.WithFocused(true),
		table.WithHeight(opts.PageSize+1),
	)

	m := Model{
		c:       c,
		opts:    opts,
		sort:    opts.Sort,
		search:  search,
		table:   tbl,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeys(),
	}
	m.refreshTable()
	return m, nil
}

func cloneDetail(d types.SecretDetail) types.SecretDetail {
	d.SecretSummary = d.Summary()
	return d
}

// Close stops background work. It is safe to call more than once.
func (m Model) Close() {
	if m.c.unobserve != nil {
		m.c.unobserve()
		m.c.unobserve = nil
	}
	m.c.debouncer.Stop()
	m.c.unsubscribe()
	m.c.lists.Close()
	m.c.details.Close()
}

// Run shows the browser until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return coffererr.Wrap(err, coffererr.CodeCLISetupFailure, "running browser")
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.c.requestList(),
		waitForChange(m.c.changes),
		waitForSearch(m.c.debouncer),
		waitForExpiry(m.c.expired),
		m.spinner.Tick,
	)
}

// --- commands ---

func (c *core) requestList() tea.Cmd {
	key, load := c.ctrl.Request()
	if c.unobserve != nil {
		c.unobserve()
	}
	c.unobserve = c.lists.Observe(key, load)

	ctx, lists := c.ctx, c.lists
	return func() tea.Msg {
		rows, err := lists.Fetch(ctx, key, load)
		return listLoadedMsg{key: key, rows: rows, err: err}
	}
}

func (c *core) requestDetail(id string) tea.Cmd {
	ctx, details, src := c.ctx, c.details, c.backend
	return func() tea.Msg {
		d, err := details.Fetch(ctx, listing.DetailKey(id), listing.DetailLoader(src, id))
		return detailLoadedMsg{id: id, detail: d, err: err}
	}
}

func (c *core) mutate(kind listing.MutationKind, id string, run func(context.Context) (types.SecretDetail, error)) tea.Cmd {
	ctx := c.ctx
	return func() tea.Msg {
		d, err := run(ctx)
		return mutationDoneMsg{kind: kind, id: id, detail: d, err: err}
	}
}

func waitForChange(ch <-chan query.Key) tea.Cmd {
	return func() tea.Msg {
		k, ok := <-ch
		if !ok {
			return nil
		}
		return cacheChangedMsg{key: k}
	}
}

func waitForSearch(d *query.Debouncer[string]) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-d.C()
		if !ok {
			return nil
		}
		return searchSettledMsg{value: v}
	}
}

func waitForExpiry(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return sessionExpiredMsg{}
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardResultMsg{err: write(text)}
	}
}

// --- update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionExpiredMsg:
		if !m.expired {
			m.expired = true
			m.c.modal.Close()
			slog.Info("browser: session expired")
			if m.opts.OnSessionExpired != nil {
				m.opts.OnSessionExpired()
			}
		}
		return m, nil

	case listLoadedMsg:
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		rows := msg.rows
		if msg.err == nil {
			// The cache is the source of truth once a response lands; a stale
			// or refetching entry is applied later through cacheChangedMsg.
			st := m.c.lists.Read(msg.key)
			if st.Stale || st.Fetching {
				return m, nil
			}
			if st.Status == query.StatusReady {
				rows = st.Data
			}
		}
		if m.c.ctrl.Accept(msg.key, rows, msg.err) {
			m.refreshTable()
		}
		return m, nil

	case cacheChangedMsg:
		m.applyCacheChange(msg.key)
		return m, waitForChange(m.c.changes)

	case searchSettledMsg:
		cmds := []tea.Cmd{waitForSearch(m.c.debouncer)}
		if m.c.ctrl.SetSearch(msg.value) {
			cmds = append(cmds, m.c.requestList())
			m.refreshTable()
		}
		return m, tea.Batch(cmds...)

	case detailLoadedMsg:
		return m.handleDetail(msg)

	case mutationDoneMsg:
		return m.handleMutation(msg)

	case clipboardResultMsg:
		if msg.err != nil {
			m.setStatus("copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("password copied to clipboard", false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) applyCacheChange(key query.Key) {
	if !key.Equal(m.c.ctrl.Key()) {
		return
	}
	st := m.c.lists.Read(key)
	if st.Fetching || st.Stale {
		return
	}
	switch st.Status {
	case query.StatusReady:
		m.c.ctrl.Accept(key, st.Data, nil)
	case query.StatusError:
		m.c.ctrl.Accept(key, nil, st.Err)
	default:
		return
	}
	m.refreshTable()
}

func (m Model) handleDetail(msg detailLoadedMsg) (tea.Model, tea.Cmd) {
	s := m.c.modal.State()
	if s.ID != msg.id || (s.Kind != listing.ModalViewing && s.Kind != listing.ModalEditing) {
		return m, nil
	}
	if msg.err != nil {
		m.detailErr = msg.err
		return m, nil
	}
	d := msg.detail
	m.detail = &d
	m.detailErr = nil
	if s.Kind == listing.ModalEditing && !m.form.loaded {
		m.form.fill(d)
	}
	return m, nil
}

func (m Model) handleMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if coffererr.IsSessionExpired(msg.err) {
			return m, nil
		}
		if coffererr.IsValidation(msg.err) {
			// Belongs to the form that was submitted; dropped if it closed.
			if m.dialogFor(msg.kind, msg.id) {
				m.dialogErr = msg.err.Error()
			}
			return m, nil
		}
		slog.Debug("browser: mutation failed", "kind", msg.kind, "secret_id", msg.id, "error", msg.err)
		if m.dialogFor(msg.kind, msg.id) {
			m.dialogErr = msg.err.Error()
		} else {
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.kind, msg.err), true)
		}
		return m, nil
	}

	if m.c.modal.MutationSucceeded(msg.kind, msg.id) {
		m.resetDialog()
	}
	switch msg.kind {
	case listing.MutationCreate:
		m.setStatus("created "+msg.detail.Title, false)
	case listing.MutationUpdate:
		m.setStatus("saved "+msg.detail.Title, false)
		if m.c.modal.Is(listing.ModalViewing, msg.id) {
			d := msg.detail
			m.detail = &d
		}
	case listing.MutationDelete:
		m.setStatus("deleted", false)
	}
	return m, nil
}

// dialogFor reports whether the open dialog started the mutation.
func (m Model) dialogFor(kind listing.MutationKind, id string) bool {
	s := m.c.modal.State()
	switch kind {
	case listing.MutationCreate:
		return s.Kind == listing.ModalCreating
	case listing.MutationUpdate:
		return s.Kind == listing.ModalEditing && s.ID == id
	case listing.MutationDelete:
		return s.Kind == listing.ModalConfirmingDelete && s.ID == id
	}
	return false
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsError = isErr
}

func (m *Model) resetDialog() {
	m.detail = nil
	m.detailErr = nil
	m.showPassword = false
	m.dialogErr = ""
	m.form = form{}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.expired {
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.c.modal.State().Kind {
	case listing.ModalViewing:
		return m.handleViewKey(msg)
	case listing.ModalEditing, listing.ModalCreating:
		return m.handleFormKey(msg)
	case listing.ModalConfirmingDelete:
		return m.handleConfirmKey(msg)
	}

	if m.search.Focused() {
		return m.handleSearchKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "down", "tab":
		m.search.Blur()
		m.table.Focus()
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.c.debouncer.Push(v)
	}
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.table.Blur()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.NextPage):
		if m.c.ctrl.NextPage() {
			cmd := m.c.requestList()
			m.refreshTable()
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.c.ctrl.PrevPage() {
			cmd := m.c.requestList()
			m.refreshTable()
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		field := listing.SortFields[int(msg.Runes[0]-'1')]
		m.sort = m.sort.Toggle(field)
		m.refreshTable()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.c.lists.Invalidate(listing.ListFamily())
		return m, m.c.requestList()

	case key.Matches(msg, m.keys.New):
		m.resetDialog()
		m.c.modal.New()
		m.form = newForm()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.View):
		if row, ok := m.selected(); ok {
			m.resetDialog()
			m.c.modal.View(row.ID)
			return m, m.c.requestDetail(row.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if row, ok := m.selected(); ok {
			return m.openEdit(row.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.selected(); ok {
			m.resetDialog()
			m.c.modal.ConfirmDelete(row.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) openEdit(id string) (tea.Model, tea.Cmd) {
	prev := m.detail
	m.resetDialog()
	m.c.modal.Edit(id)
	m.form = newEditForm()
	if prev != nil && prev.ID == id {
		m.detail = prev
		m.form.fill(*prev)
		return m, textinput.Blink
	}
	return m, tea.Batch(textinput.Blink, m.c.requestDetail(id))
}

func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.c.modal.State().ID
	switch msg.String() {
	case "esc", "q":
		m.c.modal.Close()
		m.resetDialog()
	case "s":
		m.showPassword = !m.showPassword
	case "c":
		if m.detail != nil {
			return m, copyCmd(m.opts.Clipboard, m.detail.Password)
		}
	case "e":
		return m.openEdit(id)
	case "d":
		m.resetDialog()
		m.c.modal.ConfirmDelete(id)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.c.modal.State()
	switch msg.String() {
	case "esc":
		m.c.modal.Close()
		m.resetDialog()
		return m, nil
	case "tab", "down":
		cmd := m.form.move(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.form.move(-1)
		return m, cmd
	case "ctrl+s":
		return m.submitForm(state)
	case "enter":
		if m.form.focus == fieldURL {
			return m.submitForm(state)
		}
		cmd := m.form.move(1)
		return m, cmd
	}
	cmd := m.form.update(msg)
	return m, cmd
}

func (m Model) submitForm(state listing.ModalState) (tea.Model, tea.Cmd) {
	if m.c.mutations.Pending() > 0 {
		return m, nil
	}
	m.dialogErr = ""
	muts := m.c.mutations

	if state.Kind == listing.ModalCreating {
		req := m.form.createRequest()
		if err := req.Validate(); err != nil {
			m.dialogErr = err.Error()
			return m, nil
		}
		return m, m.c.mutate(listing.MutationCreate, "", func(ctx context.Context) (types.SecretDetail, error) {
			return muts.Create(ctx, req)
		})
	}

	if !m.form.loaded {
		m.dialogErr = "still loading the secret"
		return m, nil
	}
	req := m.form.updateRequest()
	if req.Empty() {
		m.dialogErr = "nothing changed"
		return m, nil
	}
	if err := req.Validate(); err != nil {
		m.dialogErr = err.Error()
		return m, nil
	}
	id := state.ID
	return m, m.c.mutate(listing.MutationUpdate, id, func(ctx context.Context) (types.SecretDetail, error) {
		return muts.Update(ctx, id, req)
	})
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.c.modal.State().ID
	switch msg.String() {
	case "y", "Y":
		if m.c.mutations.InFlight(listing.MutationDelete) {
			return m, nil
		}
		m.dialogErr = ""
		muts := m.c.mutations
		return m, m.c.mutate(listing.MutationDelete, id, func(ctx context.Context) (types.SecretDetail, error) {
			return types.SecretDetail{}, muts.Delete(ctx, id)
		})
	case "n", "N", "esc", "q":
		m.c.modal.Close()
		m.resetDialog()
	}
	return m, nil
}

// selected is the row under the cursor, in displayed (sorted) order.
func (m Model) selected() (types.SecretSummary, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return types.SecretSummary{}, false
	}
	return m.visible[i], true
}
