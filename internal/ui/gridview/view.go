// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/ui/styles"
	"github.com/jeranaias/gridedit/internal/util"
)

const (
	minColWidth     = 6
	maxColWidth     = 40
	previewRowCount = 3
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.viewHelp()
	}
	if m.confirm.IsVisible() {
		return m.confirm.View()
	}
	if m.prompt.IsVisible() {
		return m.prompt.View()
	}
	if !m.dialog.IsOpen() {
		return m.viewPreview()
	}
	return m.viewGrid()
}

// =============================================================================
// PREVIEW
// =============================================================================

func (m Model) viewPreview() string {
	var b strings.Builder
	rows := m.ctrl.Rows()

	b.WriteString(m.theme.HeaderTitle.Render(m.dialog.Title()))
	b.WriteString("  ")
	b.WriteString(m.theme.HeaderSubtitle.Render(fmt.Sprintf("%d rows", len(rows))))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(m.theme.Empty.Render("(no rows)"))
		b.WriteString("\n")
	}
	cols := m.ctrl.Schema().DataColumns()
	for i, row := range rows {
		if i == previewRowCount {
			b.WriteString(m.theme.Muted.Render(fmt.Sprintf("  ... %d more", len(rows)-previewRowCount)))
			b.WriteString("\n")
			break
		}
		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			parts = append(parts, util.TruncateWidth(m.ctrl.CellText(row, col), 24))
		}
		b.WriteString("  " + strings.Join(parts, "  "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.hint("e", "edit data source") + "  " + m.hint("?", "help") + "  " + m.hint("q", "quit"))
	return m.theme.App.Render(b.String())
}

func (m Model) hint(k, desc string) string {
	return m.theme.HelpKey.Render(k) + " " + m.theme.HelpDesc.Render(desc)
}

// =============================================================================
// GRID
// =============================================================================

func (m Model) viewGrid() string {
	var b strings.Builder
	schema := m.ctrl.Schema()
	rows := m.ctrl.Rows()
	widths := m.columnWidths(schema, rows)

	b.WriteString(m.theme.Header.Render(m.dialog.Title()))
	b.WriteString("\n")

	// Header
	var hdr []string
	for i, col := range schema {
		hdr = append(hdr, " "+util.FitWidth(col.Name, widths[i])+" ")
	}
	b.WriteString(m.theme.TableHeader.Render(strings.Join(hdr, "│")))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(m.theme.Empty.Render(" No rows. Press a to add one."))
		b.WriteString("\n")
	}

	start, end := 0, len(rows)
	if h := m.dataHeight(); h > 0 {
		start = m.scrollY
		if start > len(rows) {
			start = len(rows)
		}
		if start+h < end {
			end = start + h
		}
	}
	for ri := start; ri < end; ri++ {
		row := rows[ri]
		cells := make([]string, len(schema))
		for ci, col := range schema {
			cells[ci] = m.renderCell(row, col, widths[ci], ri == m.row && ci == m.col)
		}
		b.WriteString(strings.Join(cells, m.theme.Muted.Render("│")))
		b.WriteString("\n")
	}

	b.WriteString(m.viewStatus(rows))
	if m.opts.ShowHelpBar {
		b.WriteString("\n")
		bindings := m.keys.ShortHelp()
		if m.focus != nil {
			bindings = m.keys.EditingHelp()
		}
		b.WriteString(m.helpBar.ShortHelpView(bindings))
	}

	return m.theme.Dialog.Render(b.String())
}

// renderCell draws one cell padded to width.
func (m Model) renderCell(row grid.Row, col grid.Column, width int, selected bool) string {
	id := grid.CellID{Key: row.Key, Field: col.FieldID}

	if m.focus != nil && *m.focus == id {
		in := m.input
		in.Width = width - 1
		return m.theme.CellEditing.Render(" " + pad(in.View(), width))
	}

	var text string
	style := m.theme.Cell
	switch {
	case col.Editable && m.ctrl.CellState(row.Key, col.FieldID) == grid.Editing:
		text, _ = m.ctrl.Buffer(row.Key, col.FieldID)
		style = m.theme.CellEditing
		if m.ctrl.CellErr(row.Key, col.FieldID) != nil {
			style = m.theme.CellInvalid
		}
		if m.ctrl.CellPending(row.Key, col.FieldID) {
			text = styles.StatusIndicators.Pending + " " + text
		}
	case col.Action != grid.ActionNone:
		text = m.ctrl.CellText(row, col)
		style = m.theme.Action
	default:
		text = m.ctrl.CellText(row, col)
	}
	if selected {
		style = m.theme.CellSelected
	}
	return style.Render(" " + util.FitWidth(util.SingleLine(text), width))
}

// columnWidths sizes each column from its configured width, or from the
// header and a sample of the values.
func (m Model) columnWidths(schema grid.Schema, rows grid.RowList) []int {
	widths := make([]int, len(schema))
	for i, col := range schema {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := util.StringWidth(col.Name)
		for ri, row := range rows {
			if ri == 100 {
				break
			}
			if cw := util.StringWidth(m.ctrl.CellText(row, col)); cw > w {
				w = cw
			}
		}
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}
	return widths
}

func (m Model) viewStatus(rows grid.RowList) string {
	mode := "VIEW"
	if m.focus != nil {
		mode = "EDIT"
	}
	parts := []string{
		fmt.Sprintf("[%d,%d] %s", m.row, m.col, mode),
		fmt.Sprintf("%d rows", len(rows)),
	}
	if editing := len(m.ctrl.Editing()); editing > 0 {
		parts = append(parts, fmt.Sprintf("%d editing", editing))
	}
	line := m.theme.StatusBar.Render(strings.Join(parts, "  "))

	if s := m.spinner.View(); s != "" {
		line += " " + s
	}
	switch {
	case m.status == "":
	case m.statusErr:
		line += " " + styles.RenderError(m.status)
	default:
		line += " " + m.theme.InfoText.Render(m.status)
	}
	return line
}

// pad right-pads s with spaces to width display cells.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
