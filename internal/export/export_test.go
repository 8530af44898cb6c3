// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() grid.RowList {
	return grid.Initialize([]grid.Fields{
		{"name": "a|b", "value": 1},
		{"name": "line\nbreak", "value": 2.5},
	})
}

func TestNew(t *testing.T) {
	for _, format := range append(Formats(), "markdown", ".XLSX") {
		_, err := New(format, nil)
		assert.NoError(t, err, format)
	}
	_, err := New("pdf", nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestJSONExporter(t *testing.T) {
	data, err := NewJSONExporter(nil).Export(grid.DefaultSchema(), sampleRows())
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "0", got[0]["key"])
	assert.Equal(t, "a|b", got[0]["name"])

	data, err = NewJSONExporter(nil).Export(grid.DefaultSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestMarkdownExporter(t *testing.T) {
	data, err := NewMarkdownExporter(&Options{Title: "door_list", IncludeKeys: true}).
		Export(grid.DefaultSchema(), sampleRows())
	require.NoError(t, err)

	want := strings.Join([]string{
		"# door\\_list",
		"",
		"| key | Name | Value |",
		"| --- | --- | --- |",
		"| 0 | a\\|b | 1 |",
		"| 1 | line break | 2.5 |",
		"",
		"_2 rows_",
		"",
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestMarkdownExporter_RenderHook(t *testing.T) {
	schema := grid.DefaultSchema()
	schema[1].Render = func(v any, _ grid.Row) string { return "$" + grid.FormatValue(v) }
	data, err := NewMarkdownExporter(&Options{}).Export(schema, sampleRows()[:1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "| a\\|b | $1 |")
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	schema := grid.DefaultSchema()

	path, err := ExportToFile(schema, sampleRows(), NewXLSXExporter(nil), filepath.Join(dir, "out.xlsx"), nil)
	require.NoError(t, err)
	records, err := sheet.Import(path, schema)
	require.NoError(t, err)
	assert.Equal(t, sampleRows().Records(), records)

	path, err = ExportToFile(schema, sampleRows(), NewMarkdownExporter(nil), "",
		&Options{OutputDir: dir, Title: "my rows?"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "my_rows-_"))
	assert.Equal(t, ".md", filepath.Ext(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "rows", sanitizeFilename(""))
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, 50, len([]rune(sanitizeFilename(strings.Repeat("x", 80)))))
}
