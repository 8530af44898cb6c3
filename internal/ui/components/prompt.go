// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gridedit/internal/ui/styles"
)

// =============================================================================
// TEXT PROMPT
// =============================================================================

// PromptSubmittedMsg carries the value entered into the prompt with ID.
type PromptSubmittedMsg struct {
	ID    string
	Value string
}

// PromptCanceledMsg is sent when the prompt with ID is dismissed.
type PromptCanceledMsg struct {
	ID string
}

// Prompt is a modal single-line input.
type Prompt struct {
	id      string
	title   string
	input   textinput.Model
	visible bool
	width   int
	height  int
	theme   *styles.Theme
}

// NewPrompt creates a hidden prompt.
func NewPrompt(theme *styles.Theme) *Prompt {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	return &Prompt{input: ti, theme: theme}
}

// SetCursorMode sets how the input cursor is drawn.
func (p *Prompt) SetCursorMode(mode cursor.Mode) {
	p.input.Cursor.SetMode(mode)
}

// Show opens the prompt. id is echoed back in the result message.
func (p *Prompt) Show(id, title, placeholder, value string) tea.Cmd {
	p.id = id
	p.title = title
	p.input.Placeholder = placeholder
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.visible = true
	return p.input.Focus()
}

// Hide closes the prompt without sending a result.
func (p *Prompt) Hide() {
	p.visible = false
	p.input.Blur()
}

// IsVisible returns whether the prompt is visible.
func (p *Prompt) IsVisible() bool {
	return p.visible
}

// Value returns the current input.
func (p *Prompt) Value() string {
	return p.input.Value()
}

// SetSize updates the prompt dimensions.
func (p *Prompt) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles input while the prompt is visible.
func (p *Prompt) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !p.visible {
		return nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			id, value := p.id, strings.TrimSpace(p.input.Value())
			p.Hide()
			return func() tea.Msg { return PromptSubmittedMsg{ID: id, Value: value} }, true
		case tea.KeyEsc:
			id := p.id
			p.Hide()
			return func() tea.Msg { return PromptCanceledMsg{ID: id} }, true
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	_, isKey := msg.(tea.KeyMsg)
	return cmd, isKey
}

// View renders the prompt box.
func (p *Prompt) View() string {
	if !p.visible {
		return ""
	}

	boxWidth := 60
	if p.width > 0 && p.width < 70 {
		boxWidth = p.width - 6
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	p.input.Width = boxWidth - 8

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true).Render(p.title))
	content.WriteString("\n\n")
	content.WriteString(p.input.View())
	content.WriteString("\n\n")
	content.WriteString(p.theme.Muted.Italic(true).Render("Enter=OK  Esc=Cancel"))

	box := p.theme.Dialog.Padding(1, 2).Width(boxWidth).Render(content.String())
	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
