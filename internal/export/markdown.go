// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports rows as a Markdown pipe table.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders a heading, the table and a row count.
func (e *MarkdownExporter) Export(schema grid.Schema, rows grid.RowList) ([]byte, error) {
	var sb strings.Builder

	if e.options.Title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(e.options.Title)))
	}

	head := headers(schema, e.options.IncludeKeys)
	if len(head) == 0 {
		return nil, fmt.Errorf("schema has no data columns")
	}
	writeTableRow(&sb, head)
	sep := make([]string, len(head))
	for i := range sep {
		sep[i] = "---"
	}
	writeTableRow(&sb, sep)

	for _, row := range rows {
		texts := cells(schema, row, e.options.IncludeKeys)
		for i, t := range texts {
			texts[i] = escapeCell(t)
		}
		writeTableRow(&sb, texts)
	}

	sb.WriteString(fmt.Sprintf("\n_%d rows_\n", len(rows)))
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

func writeTableRow(sb *strings.Builder, cols []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cols, " | "))
	sb.WriteString(" |\n")
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeCell keeps a value inside one table cell.
func escapeCell(s string) string {
	s = util.SingleLine(s)
	return strings.ReplaceAll(s, "|", "\\|")
}
