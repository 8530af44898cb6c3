// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/ui/styles"
	"github.com/jeranaias/gridedit/internal/util"
)

// =============================================================================
// DELETE CONFIRMATION
// =============================================================================

// DeleteConfirmedMsg is sent when the user confirms deleting Key.
type DeleteConfirmedMsg struct {
	Key grid.Key
}

// DeleteCanceledMsg is sent when the user backs out of deleting Key.
type DeleteCanceledMsg struct {
	Key grid.Key
}

// DeleteConfirm displays a modal dialog asking whether a row should be
// deleted.
type DeleteConfirm struct {
	key   grid.Key
	label string

	visible  bool
	selected int // 0=Cancel, 1=Delete
	width    int
	height   int

	theme *styles.Theme
}

// Button options
const (
	ButtonCancel = 0
	ButtonDelete = 1
	ButtonCount  = 2
)

// NewDeleteConfirm creates a hidden confirmation dialog.
func NewDeleteConfirm(theme *styles.Theme) *DeleteConfirm {
	return &DeleteConfirm{theme: theme}
}

// Show opens the dialog for the row with the given key. label describes
// the row to the user. Cancel is preselected.
func (d *DeleteConfirm) Show(key grid.Key, label string) {
	d.key = key
	d.label = label
	d.visible = true
	d.selected = ButtonCancel
}

// Hide closes the dialog without sending a result.
func (d *DeleteConfirm) Hide() {
	d.visible = false
	d.key = ""
	d.label = ""
}

// IsVisible returns whether the dialog is visible.
func (d *DeleteConfirm) IsVisible() bool {
	return d.visible
}

// Key returns the row the dialog is asking about.
func (d *DeleteConfirm) Key() grid.Key {
	return d.key
}

// Selected returns the focused button.
func (d *DeleteConfirm) Selected() int {
	return d.selected
}

// SetSize updates the dialog dimensions.
func (d *DeleteConfirm) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles key events while the dialog is visible.
func (d *DeleteConfirm) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !d.visible {
		return nil, false
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch keyMsg.String() {
	case "left", "h", "shift+tab":
		d.selected = (d.selected - 1 + ButtonCount) % ButtonCount
	case "right", "l", "tab":
		d.selected = (d.selected + 1) % ButtonCount
	case "enter", " ":
		if d.selected == ButtonDelete {
			return d.confirm(), true
		}
		return d.cancel(), true
	case "y":
		return d.confirm(), true
	case "n", "esc", "q":
		return d.cancel(), true
	}
	// Modal: swallow every other key.
	return nil, true
}

func (d *DeleteConfirm) confirm() tea.Cmd {
	key := d.key
	d.Hide()
	return func() tea.Msg { return DeleteConfirmedMsg{Key: key} }
}

func (d *DeleteConfirm) cancel() tea.Cmd {
	key := d.key
	d.Hide()
	return func() tea.Msg { return DeleteCanceledMsg{Key: key} }
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the dialog, centered when a size is known.
func (d *DeleteConfirm) View() string {
	if !d.visible {
		return ""
	}

	boxWidth := 48
	if d.width > 0 && d.width < 60 {
		boxWidth = d.width - 6
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Foreground(styles.Rose).Bold(true).Render("Delete row?"))
	content.WriteString("\n\n")

	label := util.TruncateWidth(util.SingleLine(d.label), boxWidth-8)
	if label == "" {
		label = "key " + string(d.key)
	}
	content.WriteString(lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(label))
	content.WriteString("\n\n")
	content.WriteString(d.renderButtons())
	content.WriteString("\n\n")
	content.WriteString(d.theme.Muted.Italic(true).Render("y=Delete  n=Cancel  Tab=Navigate"))

	box := d.theme.Dialog.
		BorderForeground(styles.Rose).
		Padding(1, 2).
		Width(boxWidth).
		Render(content.String())

	if d.width > 0 && d.height > 0 {
		return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// renderButtons renders the button row.
func (d *DeleteConfirm) renderButtons() string {
	cancel := d.theme.Button.Render("Cancel")
	if d.selected == ButtonCancel {
		cancel = d.theme.ButtonActive.Render("Cancel")
	}
	del := d.theme.Button.Render(grid.DeleteLabel)
	if d.selected == ButtonDelete {
		del = d.theme.ButtonDanger.Render(grid.DeleteLabel)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, cancel, del)
}
