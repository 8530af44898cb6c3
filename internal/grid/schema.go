// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

// =============================================================================
// COLUMN SCHEMA
// =============================================================================

// Kind tells the validator how to parse an edit buffer.
type Kind int

const (
	// KindText keeps the buffer as a string.
	KindText Kind = iota
	// KindNumber parses the buffer into an int or a float64.
	KindNumber
)

// String returns the config spelling of the kind.
func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "text"
}

// Action marks a non-editable column that hosts a row action.
type Action int

const (
	ActionNone Action = iota
	// ActionDelete renders the per-row delete affordance.
	ActionDelete
)

// RenderFunc customizes how a cell is displayed.
type RenderFunc func(value any, row Row) string

// Column describes one field of the grid. Columns are immutable once the
// schema is built.
type Column struct {
	// Name is the header label.
	Name string
	// FieldID is the key in Row.Fields.
	FieldID string
	// Editable columns get a CellEditor per row.
	Editable bool
	// Kind controls parsing of committed buffers.
	Kind Kind
	// Optional disables the required-non-empty check for an editable column.
	Optional bool
	// Rule is an optional expr-lang boolean expression over `value` and `row`.
	Rule string
	// Message replaces the default validation message when set.
	Message string
	// Width is the preferred display width in cells (0 = auto).
	Width int
	// Action marks action columns such as the delete affordance.
	Action Action
	// Render overrides FormatValue for display.
	Render RenderFunc
}

// Required reports whether an empty buffer must be rejected.
func (c Column) Required() bool {
	return c.Editable && !c.Optional
}

// Schema is the ordered list of columns.
type Schema []Column

// Field column IDs of the default schema.
const (
	FieldName      = "name"
	FieldValue     = "value"
	FieldOperation = "operation"
)

// DefaultSchema returns the baseline columns: two editable fields and the
// operation column holding the delete affordance.
func DefaultSchema() Schema {
	return Schema{
		{Name: "Name", FieldID: FieldName, Editable: true, Kind: KindText, Width: 20},
		{Name: "Value", FieldID: FieldValue, Editable: true, Kind: KindNumber, Width: 12},
		{Name: "Operation", FieldID: FieldOperation, Action: ActionDelete, Width: 10},
	}
}

// Column looks up a column by field ID.
func (s Schema) Column(fieldID string) (Column, bool) {
	for _, c := range s {
		if c.FieldID == fieldID {
			return c, true
		}
	}
	return Column{}, false
}

// Editable returns the editable columns in order.
func (s Schema) Editable() []Column {
	var out []Column
	for _, c := range s {
		if c.Editable {
			out = append(out, c)
		}
	}
	return out
}

// DataColumns returns the columns that carry row data (not actions).
func (s Schema) DataColumns() []Column {
	var out []Column
	for _, c := range s {
		if c.Action == ActionNone {
			out = append(out, c)
		}
	}
	return out
}

// WithRules returns a copy of the schema with validation rules and messages
// attached by field ID. Unknown field IDs are ignored.
func (s Schema) WithRules(rules, messages map[string]string) Schema {
	out := make(Schema, len(s))
	copy(out, s)
	for i := range out {
		if r, ok := rules[out[i].FieldID]; ok {
			out[i].Rule = r
		}
		if m, ok := messages[out[i].FieldID]; ok {
			out[i].Message = m
		}
	}
	return out
}
