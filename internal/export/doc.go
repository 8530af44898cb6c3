// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the grid's rows to files other tools can read.
//
// # Supported Formats
//
//   - JSON: the same flat {"key": ..., <fields>} objects the grid notifies
//   - Markdown: a pipe table of the data columns
//   - XLSX: a workbook that can be imported back
//
// # Usage
//
//	exporter, err := export.New("md", nil)
//	path, err := export.ExportToFile(schema, rows, exporter, "rows.md")
package export
