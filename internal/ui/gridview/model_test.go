// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gridedit/internal/export"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
	"github.com/jeranaias/gridedit/internal/ui/styles"
	"github.com/jeranaias/gridedit/internal/watch"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type recorder struct {
	mu    sync.Mutex
	calls []grid.RowList
}

func (r *recorder) onChange(rows grid.RowList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rows)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func records() []grid.Fields {
	return []grid.Fields{
		{"name": "front door", "value": 10},
		{"name": "back door", "value": 20},
	}
}

func newModel(t *testing.T, escapeCancels bool) (Model, *recorder) {
	t.Helper()
	rec := &recorder{}
	ctrl := grid.NewController(records(), grid.Options{OnChange: rec.onChange})
	m := New(ctrl, styles.NewTheme("dark"), Options{
		Title:             "Doors",
		EscapeCancelsEdit: escapeCancels,
		ShowHelpBar:       true,
		StaticCursor:      true,
		Export:            &export.Options{OutputDir: t.TempDir(), IncludeKeys: true, Title: "doors"},
	})
	return m, rec
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain feeds every message produced by cmd back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		// Models here run with a static cursor and no watcher, so every
		// command returns without waiting on a timer or channel.
		switch msg := c().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

// press sends one key and drains the resulting commands.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func keyOf(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

// openGrid opens the dialog on a fresh model.
func openGrid(t *testing.T, escapeCancels bool) (Model, *recorder) {
	t.Helper()
	m, rec := newModel(t, escapeCancels)
	m = press(t, m, runes("e"))
	require.True(t, m.Dialog().IsOpen())
	return m, rec
}

// editCell replaces the cell under the cursor with text and leaves the
// editor focused.
func editCell(t *testing.T, m Model, text string) Model {
	t.Helper()
	m = press(t, m, keyOf(tea.KeyEnter))
	_, ok := m.Focus()
	require.True(t, ok, "cell should be focused")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	return typeText(t, m, text)
}

// =============================================================================
// DIALOG
// =============================================================================

func TestDialog_OpenCloseKeepsState(t *testing.T) {
	m, rec := newModel(t, true)
	assert.False(t, m.Dialog().IsOpen())
	assert.Contains(t, m.View(), "front door")
	assert.Contains(t, m.View(), "2 rows")

	m = press(t, m, runes("e"))
	assert.True(t, m.Dialog().IsOpen())
	view := m.View()
	assert.Contains(t, view, "Name")
	assert.Contains(t, view, grid.DeleteLabel)

	m = press(t, m, keyOf(tea.KeyEsc))
	assert.False(t, m.Dialog().IsOpen())
	assert.Equal(t, 2, m.Controller().Len())
	assert.Zero(t, rec.count())
}

// =============================================================================
// CELL EDITING
// =============================================================================

func TestEdit_CommitOnEnter(t *testing.T) {
	m, rec := openGrid(t, true)
	m = editCell(t, m, "gate")
	m = press(t, m, keyOf(tea.KeyEnter))

	_, focused := m.Focus()
	assert.False(t, focused)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "gate", m.Controller().Rows()[0].Get("name"))
	status, isErr := m.Status()
	assert.False(t, isErr)
	assert.Contains(t, status, "Saved")
}

func TestEdit_ValidationFailureKeepsEditing(t *testing.T) {
	m, rec := openGrid(t, true)
	m = press(t, m, runes("l")) // value column
	m = editCell(t, m, "abc")
	m = press(t, m, keyOf(tea.KeyEnter))

	id, focused := m.Focus()
	require.True(t, focused)
	assert.Equal(t, grid.CellID{Key: "0", Field: "value"}, id)
	assert.Equal(t, grid.Editing, m.Controller().CellState("0", "value"))
	assert.Error(t, m.Controller().CellErr("0", "value"))
	_, isErr := m.Status()
	assert.True(t, isErr)
	assert.Zero(t, rec.count())

	// Fix the value and retry.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m = typeText(t, m, "42")
	m = press(t, m, keyOf(tea.KeyEnter))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 42, m.Controller().Rows()[0].Get("value"))
}

func TestEdit_EscapeCancels(t *testing.T) {
	m, rec := openGrid(t, true)
	m = editCell(t, m, "discarded")
	m = press(t, m, keyOf(tea.KeyEsc))

	_, focused := m.Focus()
	assert.False(t, focused)
	assert.True(t, m.Dialog().IsOpen(), "esc while editing must not close the dialog")
	assert.Equal(t, grid.Viewing, m.Controller().CellState("0", "name"))
	assert.Equal(t, "front door", m.Controller().Rows()[0].Get("name"))
	assert.Zero(t, rec.count())
}

func TestEdit_EscapeCommitsWhenCancelDisabled(t *testing.T) {
	m, rec := openGrid(t, false)
	m = editCell(t, m, "kept")
	m = press(t, m, keyOf(tea.KeyEsc))

	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "kept", m.Controller().Rows()[0].Get("name"))
}

func TestEdit_TabCommitsAndMoves(t *testing.T) {
	m, rec := openGrid(t, true)
	m = editCell(t, m, "side door")
	m = press(t, m, keyOf(tea.KeyTab))

	row, col := m.Cursor()
	assert.Equal(t, 0, row)
	assert.Equal(t, 1, col)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "side door", m.Controller().Rows()[0].Get("name"))
}

func TestEdit_BlurWithInvalidValueLeavesCellEditing(t *testing.T) {
	m, rec := openGrid(t, true)
	m = editCell(t, m, "")
	m = press(t, m, keyOf(tea.KeyDown))

	_, focused := m.Focus()
	assert.False(t, focused)
	assert.Equal(t, grid.Editing, m.Controller().CellState("0", "name"))
	assert.Zero(t, rec.count())

	// Returning to the cell resumes its buffer.
	m = press(t, m, keyOf(tea.KeyUp))
	m = press(t, m, keyOf(tea.KeyEnter))
	id, focused := m.Focus()
	require.True(t, focused)
	assert.Equal(t, grid.CellID{Key: "0", Field: "name"}, id)
	buf, ok := m.Controller().Buffer("0", "name")
	assert.True(t, ok)
	assert.Empty(t, buf)
}

func TestEdit_ReadOnlyColumn(t *testing.T) {
	m, _ := openGrid(t, true)
	m = press(t, m, runes("l"))
	m = press(t, m, runes("l"))
	_, col := m.Cursor()
	require.Equal(t, 2, col)

	// Enter on the operation column asks to delete instead of editing.
	m = press(t, m, keyOf(tea.KeyEnter))
	_, focused := m.Focus()
	assert.False(t, focused)
	key, pending := m.Controller().PendingDelete()
	assert.True(t, pending)
	assert.Equal(t, grid.Key("0"), key)
}

// =============================================================================
// ROW ACTIONS
// =============================================================================

func TestAddRow(t *testing.T) {
	m, rec := openGrid(t, true)
	m = press(t, m, runes("a"))

	rows := m.Controller().Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, grid.Key("2"), rows[2].Key)
	assert.Equal(t, "dooring 2", rows[2].Get("name"))
	row, _ := m.Cursor()
	assert.Equal(t, 2, row)
	assert.Equal(t, 1, rec.count())
}

func TestDelete_Confirm(t *testing.T) {
	m, rec := openGrid(t, true)
	m = press(t, m, runes("j"))
	m = press(t, m, runes("d"))
	assert.Contains(t, m.View(), "Delete row?")
	assert.Contains(t, m.View(), "back door")
	assert.Zero(t, rec.count())

	m = press(t, m, runes("y"))
	rows := m.Controller().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, grid.Key("0"), rows[0].Key)
	assert.Equal(t, 1, rec.count())
	row, _ := m.Cursor()
	assert.Equal(t, 0, row)
}

func TestDelete_Cancel(t *testing.T) {
	m, rec := openGrid(t, true)
	m = press(t, m, runes("d"))
	m = press(t, m, runes("n"))

	_, pending := m.Controller().PendingDelete()
	assert.False(t, pending)
	assert.Equal(t, 2, m.Controller().Len())
	assert.Zero(t, rec.count())
	assert.True(t, m.Dialog().IsOpen())
}

func TestDelete_EmptyGrid(t *testing.T) {
	ctrl := grid.NewController(nil, grid.Options{})
	m := New(ctrl, styles.NewTheme("dark"), Options{StaticCursor: true})
	m = press(t, m, runes("e"))
	m = press(t, m, runes("d"))

	status, _ := m.Status()
	assert.Equal(t, "Nothing to delete", status)
	assert.NotContains(t, m.View(), grid.DeleteLabel)
}

func TestImportFromSpreadsheet(t *testing.T) {
	m, rec := openGrid(t, true)
	path := filepath.Join(t.TempDir(), "in.xlsx")
	src := grid.Initialize([]grid.Fields{
		{"name": "garage", "value": 5},
		{"name": "shed", "value": 6},
	})
	require.NoError(t, sheet.WriteFile(path, grid.DefaultSchema(), src, false))

	m = press(t, m, runes("i"))
	m = typeText(t, m, path)
	m = press(t, m, keyOf(tea.KeyEnter))

	rows := m.Controller().Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "garage", rows[2].Get("name"))
	assert.Equal(t, 6, rows[3].Get("value"))
	assert.Equal(t, 1, rec.count(), "an import notifies once")
}

func TestImport_BadFile(t *testing.T) {
	m, rec := openGrid(t, true)
	m = press(t, m, runes("i"))
	m = typeText(t, m, filepath.Join(t.TempDir(), "missing.xlsx"))
	m = press(t, m, keyOf(tea.KeyEnter))

	_, isErr := m.Status()
	assert.True(t, isErr)
	assert.Zero(t, rec.count())
}

func TestExportToFile(t *testing.T) {
	m, _ := openGrid(t, true)
	path := filepath.Join(t.TempDir(), "out.json")
	m = press(t, m, runes("x"))
	m = typeText(t, m, path)
	m = press(t, m, keyOf(tea.KeyEnter))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "front door")
	status, _ := m.Status()
	assert.Contains(t, status, "Exported")
}

func TestYankCopiesCellText(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m, _ := openGrid(t, true)
	m = press(t, m, runes("y"))
	assert.Equal(t, "front door", copied)
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

type fakeSource struct {
	changed bool
	records []grid.Fields
}

func (f *fakeSource) Load(context.Context) ([]grid.Fields, error) { return f.records, nil }
func (f *fakeSource) Save(context.Context, grid.RowList) error    { return nil }
func (f *fakeSource) Path() string                                { return "rows.json" }
func (f *fakeSource) Close() error                                { return nil }
func (f *fakeSource) Changed() (bool, error)                      { return f.changed, nil }

func TestReloadOnExternalChange(t *testing.T) {
	src := &fakeSource{changed: true, records: []grid.Fields{{"name": "only", "value": 1}}}
	rec := &recorder{}
	ctrl := grid.NewController(records(), grid.Options{OnChange: rec.onChange})
	m := New(ctrl, styles.NewTheme("dark"), Options{Source: src, EscapeCancelsEdit: true, StaticCursor: true})
	m = press(t, m, runes("e"))
	m = editCell(t, m, "half typed")

	next, cmd := m.Update(fileChangedMsg{event: watch.Event{Path: "rows.json"}})
	m = drain(t, next.(Model), cmd)

	rows := m.Controller().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "only", rows[0].Get("name"))
	assert.Empty(t, m.Controller().Editing())
	_, focused := m.Focus()
	assert.False(t, focused)
	assert.Zero(t, rec.count(), "a reload is not a mutation")
	assert.Equal(t, 2, m.Controller().Counter(), "the counter never goes backwards")
}

func TestReloadIgnoresOwnWrites(t *testing.T) {
	src := &fakeSource{changed: false}
	ctrl := grid.NewController(records(), grid.Options{})
	m := New(ctrl, styles.NewTheme("dark"), Options{Source: src, StaticCursor: true})

	next, cmd := m.Update(fileChangedMsg{})
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, 2, m.Controller().Len())
}

// =============================================================================
// VIEW
// =============================================================================

func TestHelpOverlay(t *testing.T) {
	m, _ := openGrid(t, true)
	m = press(t, m, runes("?"))
	assert.NotEmpty(t, m.View())
	m = press(t, m, runes("?"))
	assert.Contains(t, m.View(), "Name")

	md := HelpMarkdown(DefaultKeyMap())
	assert.Contains(t, md, "# Grid keys")
	assert.Contains(t, md, "delete row")
}

func TestViewAfterResize(t *testing.T) {
	m, _ := openGrid(t, true)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	view := m.View()
	for _, want := range []string{"Doors", "front door", "back door", "2 rows"} {
		assert.True(t, strings.Contains(view, want), "view should contain %q", want)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, true)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}
