// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sheet reads and writes grid rows as .xlsx workbooks.
//
// The first row of a sheet is the header. Header cells are matched to grid
// columns by field ID or display name, ignoring case.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/util"
	"github.com/xuri/excelize/v2"
)

// RowsSheet is the sheet name used for written workbooks.
const RowsSheet = "Rows"

var (
	ErrNoSheet           = errors.New("workbook has no sheets")
	ErrNoMatchingColumns = errors.New("no header cell matches a grid column")
	ErrMissingColumn     = errors.New("required column missing from header")
)

// CellError reports a cell whose content does not fit its column. An empty
// Value means a required cell was blank.
type CellError struct {
	Cell  string
	Field string
	Value string
}

func (e *CellError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("cell %s: %s is required", e.Cell, e.Field)
	}
	return fmt.Sprintf("cell %s: %q is not a number (column %s)", e.Cell, e.Value, e.Field)
}

// =============================================================================
// IMPORT
// =============================================================================

// Import reads records from the first sheet of the workbook at path.
func Import(path string, schema grid.Schema) ([]grid.Fields, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()
	return read(f, schema)
}

// ImportReader reads records from a workbook stream.
func ImportReader(r io.Reader, schema grid.Schema) ([]grid.Fields, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return read(f, schema)
}

func read(f *excelize.File, schema grid.Schema) ([]grid.Fields, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	name := sheets[0]
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := matchHeader(rows[0], schema.DataColumns())
	if len(cols) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", name, ErrNoMatchingColumns)
	}
	if missing := missingRequired(cols, schema); missing != "" {
		return nil, fmt.Errorf("sheet %q: %w: %s", name, ErrMissingColumn, missing)
	}

	var records []grid.Fields
	for r, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(grid.Fields, len(cols))
		for idx, col := range cols {
			text := ""
			if idx < len(row) {
				text = strings.TrimSpace(row[idx])
			}
			if text == "" {
				if col.Required() {
					cell, _ := excelize.CoordinatesToCellName(idx+1, r+2)
					return nil, &CellError{Cell: cell, Field: col.FieldID}
				}
				continue
			}
			if col.Kind != grid.KindNumber {
				rec[col.FieldID] = text
				continue
			}
			n, err := grid.ParseNumber(text)
			if err != nil {
				cell, _ := excelize.CoordinatesToCellName(idx+1, r+2)
				return nil, &CellError{Cell: cell, Field: col.FieldID, Value: text}
			}
			rec[col.FieldID] = n
		}
		records = append(records, rec)
	}
	return records, nil
}

// matchHeader maps sheet column indexes to grid columns.
func matchHeader(header []string, cols []grid.Column) map[int]grid.Column {
	out := make(map[int]grid.Column)
	for i, cell := range header {
		h := strings.TrimSpace(cell)
		for _, col := range cols {
			if strings.EqualFold(h, col.FieldID) || strings.EqualFold(h, col.Name) {
				out[i] = col
				break
			}
		}
	}
	return out
}

// missingRequired names the first required column with no header cell.
func missingRequired(cols map[int]grid.Column, schema grid.Schema) string {
	found := make(map[string]bool, len(cols))
	for _, col := range cols {
		found[col.FieldID] = true
	}
	for _, col := range schema.DataColumns() {
		if col.Required() && !found[col.FieldID] {
			return col.Name
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITE
// =============================================================================

// Write renders rows as a one-sheet workbook: a bold header of column names
// followed by one line per row. With withKeys the first column holds the
// row keys.
func Write(w io.Writer, schema grid.Schema, rows grid.RowList, withKeys bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RowsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	cols := schema.DataColumns()
	headers := make([]string, 0, len(cols)+1)
	widths := make([]int, 0, len(cols)+1)
	if withKeys {
		headers = append(headers, grid.KeyField)
		widths = append(widths, 8)
	}
	for _, col := range cols {
		headers = append(headers, col.Name)
		widths = append(widths, col.Width)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(RowsSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(RowsSheet, cell, cell, bold); err != nil {
			return err
		}
		if widths[i] > 0 {
			name, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(RowsSheet, name, name, float64(widths[i])); err != nil {
				return err
			}
		}
	}

	for r, row := range rows {
		values := make([]any, 0, len(headers))
		if withKeys {
			values = append(values, string(row.Key))
		}
		for _, col := range cols {
			values = append(values, row.Get(col.FieldID))
		}
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(RowsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WriteFile writes the workbook to path atomically.
func WriteFile(path string, schema grid.Schema, rows grid.RowList, withKeys bool) error {
	return util.AtomicWrite(path, 0644, func(w io.Writer) error {
		return Write(w, schema, rows, withKeys)
	})
}
