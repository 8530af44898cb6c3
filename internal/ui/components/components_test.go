// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gridedit/internal/ui/styles"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// DELETE CONFIRM TESTS
// =============================================================================

func TestDeleteConfirm_HiddenIgnoresKeys(t *testing.T) {
	d := NewDeleteConfirm(styles.NewTheme("dark"))
	cmd, handled := d.Update(keyRunes("y"))
	assert.Nil(t, cmd)
	assert.False(t, handled)
	assert.Empty(t, d.View())
}

func TestDeleteConfirm_QuickKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want tea.Msg
	}{
		{"y confirms", keyRunes("y"), DeleteConfirmedMsg{Key: "1"}},
		{"n cancels", keyRunes("n"), DeleteCanceledMsg{Key: "1"}},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, DeleteCanceledMsg{Key: "1"}},
		{"enter on default cancels", tea.KeyMsg{Type: tea.KeyEnter}, DeleteCanceledMsg{Key: "1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDeleteConfirm(styles.NewTheme("dark"))
			d.Show("1", "dooring 1")
			cmd, handled := d.Update(tc.msg)
			require.True(t, handled)
			require.NotNil(t, cmd)
			assert.Equal(t, tc.want, cmd())
			assert.False(t, d.IsVisible())
		})
	}
}

func TestDeleteConfirm_NavigateThenEnter(t *testing.T) {
	d := NewDeleteConfirm(styles.NewTheme("dark"))
	d.Show("4", "row four")
	assert.Equal(t, ButtonCancel, d.Selected())

	_, handled := d.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, handled)
	assert.Equal(t, ButtonDelete, d.Selected())

	cmd, _ := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteConfirmedMsg{Key: "4"}, cmd())
}

func TestDeleteConfirm_SwallowsOtherKeys(t *testing.T) {
	d := NewDeleteConfirm(styles.NewTheme("dark"))
	d.Show("0", "a")
	cmd, handled := d.Update(keyRunes("a"))
	assert.Nil(t, cmd)
	assert.True(t, handled)
	assert.True(t, d.IsVisible())
}

func TestDeleteConfirm_View(t *testing.T) {
	d := NewDeleteConfirm(styles.NewTheme("dark"))
	d.Show("2", "dooring 2")
	view := d.View()
	assert.Contains(t, view, "Delete row?")
	assert.Contains(t, view, "dooring 2")
	assert.Contains(t, view, "Cancel")
}

// =============================================================================
// PROMPT TESTS
// =============================================================================

func TestPrompt_Submit(t *testing.T) {
	p := NewPrompt(styles.NewTheme("dark"))
	p.Show("import", "Import rows", "rows.xlsx", "")
	for _, r := range "in.xlsx " {
		p.Update(keyRunes(string(r)))
	}
	assert.Equal(t, "in.xlsx ", p.Value())

	cmd, handled := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, handled)
	require.NotNil(t, cmd)
	assert.Equal(t, PromptSubmittedMsg{ID: "import", Value: "in.xlsx"}, cmd())
	assert.False(t, p.IsVisible())
}

func TestPrompt_Cancel(t *testing.T) {
	p := NewPrompt(styles.NewTheme("dark"))
	p.Show("export", "Export rows", "", "rows.json")
	assert.Equal(t, "rows.json", p.Value())
	assert.True(t, strings.Contains(p.View(), "Export rows"))

	cmd, handled := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, handled)
	assert.Equal(t, PromptCanceledMsg{ID: "export"}, cmd())
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinner_Lifecycle(t *testing.T) {
	s := NewSpinner("Validating")
	assert.Empty(t, s.View())

	require.NotNil(t, s.Start())
	assert.Nil(t, s.Start(), "second Start should not spawn another tick loop")
	assert.True(t, s.IsActive())
	assert.Contains(t, s.View(), "Validating")

	s.Stop()
	next, cmd := s.Update(nil)
	assert.Nil(t, cmd)
	assert.Empty(t, next.View())
}

