// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for row exporters.
type Exporter interface {
	// Export renders rows in the target format.
	Export(schema grid.Schema, rows grid.RowList) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown export format")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where generated file names are placed.
	// Default: current working directory
	OutputDir string

	// IncludeKeys adds the row key as the first column.
	IncludeKeys bool

	// Title heads the Markdown document and names generated files.
	Title string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:   ".",
		IncludeKeys: true,
		Title:       "rows",
	}
}

// Formats lists the names accepted by New.
func Formats() []string {
	return []string{"json", "md", "xlsx"}
}

// New returns the exporter for a format name.
func New(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return NewJSONExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "xlsx", "excel":
		return NewXLSXExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders rows with exporter and writes them to path. An empty
// path generates "<title>_<timestamp><ext>" in opts.OutputDir. It returns
// the path written.
func ExportToFile(schema grid.Schema, rows grid.RowList, exporter Exporter, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(schema, rows)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		filename := fmt.Sprintf("%s_%s%s",
			sanitizeFilename(opts.Title),
			time.Now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
		path = filepath.Join(opts.OutputDir, filename)
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.SafeSubstring(s, 0, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "rows"
	}
	return string(result)
}

// headers returns the column headings for a table export.
func headers(schema grid.Schema, withKeys bool) []string {
	var out []string
	if withKeys {
		out = append(out, grid.KeyField)
	}
	for _, col := range schema.DataColumns() {
		out = append(out, col.Name)
	}
	return out
}

// cells returns one row's cell texts in header order.
func cells(schema grid.Schema, row grid.Row, withKeys bool) []string {
	var out []string
	if withKeys {
		out = append(out, string(row.Key))
	}
	for _, col := range schema.DataColumns() {
		v := row.Get(col.FieldID)
		if col.Render != nil {
			out = append(out, col.Render(v, row))
			continue
		}
		out = append(out, grid.FormatValue(v))
	}
	return out
}
