// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// HELP OVERLAY
// =============================================================================

// HelpMarkdown returns the key reference as markdown.
func HelpMarkdown(k KeyMap) string {
	var b strings.Builder
	b.WriteString("# Grid keys\n\n")

	section := func(title string, bindings ...key.Binding) {
		b.WriteString("## " + title + "\n\n")
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, kb := range bindings {
			h := kb.Help()
			b.WriteString("| `" + h.Key + "` | " + h.Desc + " |\n")
		}
		b.WriteString("\n")
	}

	section("Navigation", k.Up, k.Down, k.Left, k.Right, k.Next, k.Prev, k.Home, k.End)
	section("Rows", k.Edit, k.Add, k.Delete, k.Import, k.Export, k.Yank)
	section("Editing", k.Commit, k.Escape, k.Next)
	section("Window", k.Open, k.Close, k.Help, k.Quit)

	b.WriteString("Leaving a cell saves it. A value that fails validation keeps the cell in edit mode until it is fixed or canceled.\n")
	return b.String()
}

// renderHelp renders markdown for the terminal, falling back to the raw
// text when glamour cannot.
func renderHelp(k KeyMap, width int, dark bool) string {
	md := HelpMarkdown(k)
	if width <= 0 {
		width = 80
	}
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m *Model) openHelp() {
	m.showHelp = true
	if m.helpView.Height <= 0 {
		m.helpView.Width = 76
		m.helpView.Height = 20
	}
	m.helpView.SetContent(renderHelp(m.keys, m.helpView.Width, m.theme.IsDark))
	m.helpView.GotoTop()
}

func (m Model) viewHelp() string {
	footer := m.theme.Muted.Render("Esc/q/? close  up/down scroll")
	return m.theme.Dialog.Render(m.helpView.View() + "\n" + footer)
}
