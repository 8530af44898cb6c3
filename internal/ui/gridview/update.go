// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gridedit/internal/export"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
	"github.com/jeranaias/gridedit/internal/storage"
	"github.com/jeranaias/gridedit/internal/ui/components"
	"github.com/jeranaias/gridedit/internal/watch"
)

// reloadTimeout bounds a re-read of the data file.
const reloadTimeout = 10 * time.Second

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case commitResultMsg:
		return m.handleCommitResult(msg)

	case components.DeleteConfirmedMsg:
		return m.handleDeleteConfirmed(msg)

	case components.DeleteCanceledMsg:
		m.ctrl.CancelDelete()
		m.setStatus("Delete canceled")
		return m, nil

	case components.PromptSubmittedMsg:
		return m.handlePromptSubmitted(msg)

	case components.PromptCanceledMsg:
		return m, nil

	case importResultMsg:
		return m.handleImportResult(msg)

	case exportResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("Exported to " + msg.path)
		}
		return m, nil

	case clipboardResultMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("copy failed: %w", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Copied %q", msg.text))
		}
		return m, nil

	case fileChangedMsg:
		return m, tea.Batch(reload(m.opts.Source), waitForFileChange(m.opts.Events))

	case reloadMsg:
		return m.handleReload(msg)
	}

	// Cursor blink and other input housekeeping.
	if m.focus != nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.prompt.IsVisible() {
		cmd, _ := m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.confirm.SetSize(msg.Width, msg.Height)
	m.prompt.SetSize(msg.Width, msg.Height)
	m.helpBar.Width = msg.Width
	m.helpView.Width = msg.Width - 4
	m.helpView.Height = msg.Height - 4
	if m.showHelp {
		m.helpView.SetContent(renderHelp(m.keys, m.helpView.Width, m.theme.IsDark))
	}
	m.clamp()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "esc", "q", "?":
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	}

	// Modals consume keys first.
	if cmd, handled := m.confirm.Update(msg); handled {
		return m, cmd
	}
	if cmd, handled := m.prompt.Update(msg); handled {
		return m, cmd
	}

	if !m.dialog.IsOpen() {
		return m.handlePreviewKey(msg)
	}
	if m.focus != nil {
		return m.handleEditKey(msg)
	}
	return m.handleGridKey(msg)
}

func (m Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		m.dialog.Open()
		m.clamp()
		log.Printf("DIALOG_OPENED | rows=%d", m.ctrl.Len())
	case key.Matches(msg, m.keys.Help):
		m.openHelp()
	case msg.String() == "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.dialog.Close()
		log.Printf("DIALOG_CLOSED | rows=%d", m.ctrl.Len())

	case key.Matches(msg, m.keys.Up):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.move(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Next):
		m.step(1)
	case key.Matches(msg, m.keys.Prev):
		m.step(-1)
	case key.Matches(msg, m.keys.Home):
		m.row = 0
		m.clamp()
	case key.Matches(msg, m.keys.End):
		m.row = m.ctrl.Len() - 1
		m.clamp()

	case key.Matches(msg, m.keys.Edit):
		_, col, ok := m.current()
		if !ok {
			return m, nil
		}
		if col.Action == grid.ActionDelete {
			m.requestDelete()
			return m, nil
		}
		return m, m.beginEdit()

	case key.Matches(msg, m.keys.Add):
		k := m.ctrl.Add()
		m.row = m.ctrl.Len() - 1
		m.clamp()
		m.setStatus("Added row " + string(k))

	case key.Matches(msg, m.keys.Delete):
		m.requestDelete()

	case key.Matches(msg, m.keys.Import):
		return m, m.prompt.Show(promptImport, "Import rows from .xlsx", "rows.xlsx", "")

	case key.Matches(msg, m.keys.Export):
		return m, m.prompt.Show(promptExport, "Export rows (.json, .md or .xlsx)", "rows.xlsx", "")

	case key.Matches(msg, m.keys.Yank):
		row, col, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, copyCell(m.ctrl.CellText(row, col))

	case key.Matches(msg, m.keys.Help):
		m.openHelp()
	}
	return m, nil
}

// handleEditKey routes keys to the focused cell editor. Moving away from
// the cell commits it.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := *m.focus
	if m.ctrl.CellPending(id.Key, id.Field) {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m, m.commit(id)

	case "esc":
		if m.opts.EscapeCancelsEdit {
			m.blur()
			if err := m.ctrl.CancelEdit(id.Key, id.Field); err != nil {
				m.setError(err)
				return m, nil
			}
			m.setStatus("Edit canceled")
			return m, nil
		}
		m.blur()
		return m, m.commit(id)

	case "tab":
		m.blur()
		cmd := m.commit(id)
		m.step(1)
		return m, cmd
	case "shift+tab":
		m.blur()
		cmd := m.commit(id)
		m.step(-1)
		return m, cmd
	case "up":
		m.blur()
		cmd := m.commit(id)
		m.move(-1, 0)
		return m, cmd
	case "down":
		m.blur()
		cmd := m.commit(id)
		m.move(1, 0)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if err := m.ctrl.SetBuffer(id.Key, id.Field, m.input.Value()); err != nil {
		m.setError(err)
	}
	return m, cmd
}

// =============================================================================
// CURSOR
// =============================================================================

func (m *Model) move(dRow, dCol int) {
	m.row += dRow
	m.col += dCol
	m.clamp()
}

// step moves to the next or previous cell, wrapping across rows.
func (m *Model) step(dir int) {
	cols := len(m.ctrl.Schema())
	if cols == 0 {
		return
	}
	pos := m.row*cols + m.col + dir
	last := m.ctrl.Len()*cols - 1
	if pos < 0 {
		pos = 0
	}
	if pos > last {
		pos = last
	}
	if pos < 0 {
		return
	}
	m.row, m.col = pos/cols, pos%cols
	m.clamp()
}

// =============================================================================
// CELL EDITING
// =============================================================================

// beginEdit activates the cell under the cursor and focuses the input on
// its buffer. A cell that kept Editing after a failed commit resumes with
// its buffer intact.
func (m *Model) beginEdit() tea.Cmd {
	row, col, ok := m.current()
	if !ok {
		return nil
	}
	if _, err := m.ctrl.BeginEdit(row.Key, col.FieldID); err != nil {
		if errors.Is(err, grid.ErrNotEditable) {
			m.setStatus(col.Name + " is read-only")
			return nil
		}
		m.setError(err)
		return nil
	}
	buf, _ := m.ctrl.Buffer(row.Key, col.FieldID)
	m.input.SetValue(buf)
	m.input.CursorEnd()
	m.focus = &grid.CellID{Key: row.Key, Field: col.FieldID}
	m.setStatus("Editing " + col.Name)
	return m.input.Focus()
}

// blur releases keyboard focus without touching the cell state.
func (m *Model) blur() {
	m.focus = nil
	m.input.Blur()
}

// commit snapshots the cell and validates it off the event loop.
func (m *Model) commit(id grid.CellID) tea.Cmd {
	p, err := m.ctrl.PrepareCommit(id.Key, id.Field)
	if err != nil {
		m.setError(err)
		return nil
	}
	ctrl := m.ctrl
	validate := func() tea.Msg {
		value, verr := ctrl.Validate(context.Background(), p)
		return commitResultMsg{commit: p, value: value, err: verr}
	}
	return tea.Batch(m.spinner.Start(), validate)
}

func (m Model) handleCommitResult(msg commitResultMsg) (tea.Model, tea.Cmd) {
	err := m.ctrl.FinishCommit(msg.commit, msg.value, msg.err)
	if !m.anyPending() {
		m.spinner.Stop()
	}
	cell := msg.commit.Cell
	focused := m.focus != nil && *m.focus == cell

	switch {
	case err == nil:
		if focused {
			m.blur()
		}
		m.setStatus("Saved " + msg.commit.Column.Name)
	case errors.Is(err, grid.ErrNotEditing):
		// The rows were reloaded while validating.
	case errors.Is(err, grid.ErrRowNotFound):
		if focused {
			m.blur()
		}
		m.setError(err)
	default:
		m.setError(err)
	}
	m.clamp()
	return m, nil
}

// =============================================================================
// DELETE
// =============================================================================

func (m *Model) requestDelete() {
	if !m.ctrl.DeleteAvailable() {
		m.setStatus("Nothing to delete")
		return
	}
	row, _, ok := m.current()
	if !ok {
		return
	}
	if err := m.ctrl.RequestDelete(row.Key); err != nil {
		m.setError(err)
		return
	}
	m.confirm.Show(row.Key, m.rowLabel(row))
}

func (m Model) handleDeleteConfirmed(msg components.DeleteConfirmedMsg) (tea.Model, tea.Cmd) {
	if err := m.ctrl.ConfirmDelete(msg.Key); err != nil {
		m.setError(err)
		return m, nil
	}
	if m.focus != nil && m.focus.Key == msg.Key {
		m.blur()
	}
	m.clamp()
	m.setStatus("Deleted row " + string(msg.Key))
	return m, nil
}

// =============================================================================
// IMPORT / EXPORT / CLIPBOARD
// =============================================================================

func (m Model) handlePromptSubmitted(msg components.PromptSubmittedMsg) (tea.Model, tea.Cmd) {
	switch msg.ID {
	case promptImport:
		if msg.Value == "" {
			return m, nil
		}
		m.setStatus("Importing " + msg.Value)
		return m, importRows(msg.Value, m.ctrl.Schema())
	case promptExport:
		return m, exportRows(msg.Value, m.ctrl.Schema(), m.ctrl.Rows(), m.opts.Export)
	}
	return m, nil
}

func (m Model) handleImportResult(msg importResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	keys := m.ctrl.Import(msg.records)
	m.setStatus(fmt.Sprintf("Imported %d rows from %s", len(keys), filepath.Base(msg.path)))
	return m, nil
}

func importRows(path string, schema grid.Schema) tea.Cmd {
	return func() tea.Msg {
		records, err := sheet.Import(path, schema)
		return importResultMsg{path: path, records: records, err: err}
	}
}

// exportRows picks the format from the file extension. An empty path
// writes a generated .json file.
func exportRows(path string, schema grid.Schema, rows grid.RowList, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		format := filepath.Ext(path)
		if path == "" {
			format = "json"
		}
		exporter, err := export.New(format, opts)
		if err != nil {
			return exportResultMsg{err: err}
		}
		written, err := export.ExportToFile(schema, rows, exporter, path, opts)
		return exportResultMsg{path: written, err: err}
	}
}

func copyCell(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardResultMsg{text: text, err: writeClipboard(text)}
	}
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

func waitForFileChange(events <-chan watch.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return fileChangedMsg{event: ev}
	}
}

func reload(src storage.Watchable) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		changed, err := src.Changed()
		if err != nil {
			return reloadMsg{err: err}
		}
		if !changed {
			return reloadMsg{unchanged: true}
		}
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		records, err := src.Load(ctx)
		return reloadMsg{records: records, err: err}
	}
}

func (m Model) handleReload(msg reloadMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(fmt.Errorf("reload: %w", msg.err))
		return m, nil
	}
	if msg.unchanged {
		return m, nil
	}
	m.ctrl.Reset(msg.records)
	m.blur()
	m.confirm.Hide()
	m.spinner.Stop()
	m.clamp()
	m.setStatus(fmt.Sprintf("Reloaded %d rows from disk", len(msg.records)))
	return m, nil
}
