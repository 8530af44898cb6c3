// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/gridedit/internal/grid"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports rows in the grid's change-notification form.
// NOTE: JSON exports always include keys and every field, whatever the
// options say, so the output can be loaded back as a row store file.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts rows to an indented JSON array.
func (e *JSONExporter) Export(_ grid.Schema, rows grid.RowList) ([]byte, error) {
	if rows == nil {
		rows = grid.RowList{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
