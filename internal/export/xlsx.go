// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
)

// =============================================================================
// XLSX EXPORTER
// =============================================================================

// XLSXExporter exports rows as a workbook that sheet.Import reads back.
type XLSXExporter struct {
	options *Options
}

// NewXLSXExporter creates a new XLSX exporter.
func NewXLSXExporter(opts *Options) *XLSXExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &XLSXExporter{options: opts}
}

// Export renders the workbook.
func (e *XLSXExporter) Export(schema grid.Schema, rows grid.RowList) ([]byte, error) {
	var buf bytes.Buffer
	if err := sheet.Write(&buf, schema, rows, e.options.IncludeKeys); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for XLSX.
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// MimeType returns the MIME type for XLSX.
func (e *XLSXExporter) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
