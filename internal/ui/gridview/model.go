// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gridedit/internal/export"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/storage"
	"github.com/jeranaias/gridedit/internal/ui/components"
	"github.com/jeranaias/gridedit/internal/ui/styles"
	"github.com/jeranaias/gridedit/internal/watch"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the view.
type Options struct {
	// Title names the data source in the preview and dialog header.
	Title string

	// EscapeCancelsEdit binds Esc to cancel. When false Esc leaves the cell
	// like any other focus change and commits it.
	EscapeCancelsEdit bool

	// ShowHelpBar renders the key hints under the grid.
	ShowHelpBar bool

	// StaticCursor turns off cursor blinking in the cell editor and prompts.
	StaticCursor bool

	// Source is re-read when Events reports a change. Both may be nil.
	Source storage.Watchable
	Events <-chan watch.Event

	// Export configures the x action. Nil selects export.DefaultOptions.
	Export *export.Options
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the grid.
type Model struct {
	ctrl  *grid.Controller
	theme *styles.Theme
	keys  KeyMap
	opts  Options

	dialog   *Dialog
	confirm  *components.DeleteConfirm
	prompt   *components.Prompt
	spinner  components.Spinner
	input    textinput.Model
	helpBar  help.Model
	helpView viewport.Model
	showHelp bool

	// Cursor position and vertical scroll offset.
	row     int
	col     int
	scrollY int

	// focus is the cell whose editor owns the keyboard.
	focus *grid.CellID

	status    string
	statusErr bool

	width    int
	height   int
	quitting bool
}

// New creates the view over ctrl. The dialog starts closed.
func New(ctrl *grid.Controller, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	if opts.Title == "" {
		opts.Title = "Data source"
	}
	if opts.Export == nil {
		opts.Export = export.DefaultOptions()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	prompt := components.NewPrompt(theme)
	if opts.StaticCursor {
		ti.Cursor.SetMode(cursor.CursorStatic)
		prompt.SetCursorMode(cursor.CursorStatic)
	}

	return Model{
		ctrl:     ctrl,
		theme:    theme,
		keys:     DefaultKeyMap(),
		opts:     opts,
		dialog:   NewDialog(opts.Title),
		confirm:  components.NewDeleteConfirm(theme),
		prompt:   prompt,
		spinner:  components.NewSpinner("Validating"),
		input:    ti,
		helpBar:  help.New(),
		helpView: viewport.New(0, 0),
	}
}

// Init starts listening for file changes when a watcher is attached.
func (m Model) Init() tea.Cmd {
	if m.opts.Events == nil || m.opts.Source == nil {
		return nil
	}
	return waitForFileChange(m.opts.Events)
}

// Controller returns the grid controller.
func (m Model) Controller() *grid.Controller {
	return m.ctrl
}

// Dialog returns the visibility gate.
func (m Model) Dialog() *Dialog {
	return m.dialog
}

// Cursor returns the selected row and column indexes.
func (m Model) Cursor() (row, col int) {
	return m.row, m.col
}

// Focus returns the cell being edited, if any.
func (m Model) Focus() (grid.CellID, bool) {
	if m.focus == nil {
		return grid.CellID{}, false
	}
	return *m.focus, true
}

// Status returns the last status line and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// current returns the row and column under the cursor.
func (m *Model) current() (grid.Row, grid.Column, bool) {
	rows := m.ctrl.Rows()
	schema := m.ctrl.Schema()
	if m.row < 0 || m.row >= len(rows) || m.col < 0 || m.col >= len(schema) {
		return grid.Row{}, grid.Column{}, false
	}
	return rows[m.row], schema[m.col], true
}

// clamp keeps the cursor inside the grid and the cursor row on screen.
func (m *Model) clamp() {
	n := m.ctrl.Len()
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	cols := len(m.ctrl.Schema())
	if m.col >= cols {
		m.col = cols - 1
	}
	if m.col < 0 {
		m.col = 0
	}

	if h := m.dataHeight(); h > 0 {
		if m.row < m.scrollY {
			m.scrollY = m.row
		}
		if m.row >= m.scrollY+h {
			m.scrollY = m.row - h + 1
		}
	}
	if m.scrollY > m.row {
		m.scrollY = m.row
	}
	if m.scrollY < 0 {
		m.scrollY = 0
	}
}

// dataHeight is the number of rows that fit on screen, or 0 when unknown.
func (m Model) dataHeight() int {
	if m.height == 0 {
		return 0
	}
	// header + table header + separator + status + help + dialog border
	h := m.height - 7
	if h < 1 {
		h = 1
	}
	return h
}

// rowLabel describes a row in the delete confirmation.
func (m Model) rowLabel(row grid.Row) string {
	for _, col := range m.ctrl.Schema().DataColumns() {
		if text := m.ctrl.CellText(row, col); text != "" {
			return text
		}
	}
	return ""
}

// anyPending reports whether a commit is still validating.
func (m Model) anyPending() bool {
	for _, id := range m.ctrl.Editing() {
		if m.ctrl.CellPending(id.Key, id.Field) {
			return true
		}
	}
	return false
}
