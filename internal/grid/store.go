// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrRowNotFound     = errors.New("row not found")
	ErrNotEditable     = errors.New("column is not editable")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotEditing      = errors.New("cell is not being edited")
	ErrCommitPending   = errors.New("commit already in progress")
	ErrNoPendingDelete = errors.New("no pending delete for row")
	ErrGridEmpty       = errors.New("grid has no rows")
)

// =============================================================================
// MISSING ROW POLICY
// =============================================================================

// MissingRowPolicy decides what Update does when no row has the key.
type MissingRowPolicy int

const (
	// PolicyFail returns ErrRowNotFound and leaves the list unchanged.
	PolicyFail MissingRowPolicy = iota
	// PolicyOverwriteLast patches the last row instead. This reproduces the
	// legacy behavior of a search that fell back to index -1.
	PolicyOverwriteLast
)

// ParseMissingRowPolicy maps the config spelling to a policy.
func ParseMissingRowPolicy(s string) (MissingRowPolicy, error) {
	switch s {
	case "", "fail":
		return PolicyFail, nil
	case "overwrite_last":
		return PolicyOverwriteLast, nil
	}
	return PolicyFail, fmt.Errorf("unknown missing row policy %q", s)
}

// String returns the config spelling of the policy.
func (p MissingRowPolicy) String() string {
	if p == PolicyOverwriteLast {
		return "overwrite_last"
	}
	return "fail"
}

// =============================================================================
// ROW TEMPLATE
// =============================================================================

// Template produces the field values of a row created by Add.
type Template func(counter int) Fields

// DefaultTemplate yields {name: "dooring <n>", value: 32}.
func DefaultTemplate(counter int) Fields {
	return Fields{
		FieldName:  fmt.Sprintf("dooring %d", counter),
		FieldValue: 32,
	}
}

// NewTemplate builds a template from a name format (containing %d) and a
// placeholder value.
func NewTemplate(nameFormat string, value any) Template {
	if nameFormat == "" {
		nameFormat = "dooring %d"
	}
	return func(counter int) Fields {
		return Fields{
			FieldName:  fmt.Sprintf(nameFormat, counter),
			FieldValue: value,
		}
	}
}

// =============================================================================
// ROW STORE
// =============================================================================

// Initialize keys each record by its zero-based position.
func Initialize(records []Fields) RowList {
	rows := make(RowList, len(records))
	for i, rec := range records {
		fields := rec.Clone()
		delete(fields, KeyField)
		rows[i] = Row{Key: KeyFromInt(i), Fields: fields}
	}
	return rows
}

// Add appends a template row keyed by counter and returns the next counter.
func Add(rows RowList, counter int, tmpl Template) (RowList, int) {
	if tmpl == nil {
		tmpl = DefaultTemplate
	}
	out := make(RowList, len(rows), len(rows)+1)
	copy(out, rows)
	fields := tmpl(counter)
	delete(fields, KeyField)
	out = append(out, Row{Key: KeyFromInt(counter), Fields: fields})
	return out, counter + 1
}

// Remove drops the first row with the key. An unknown key is a no-op.
func Remove(rows RowList, key Key) RowList {
	i := rows.IndexOf(key)
	out := make(RowList, 0, len(rows))
	out = append(out, rows...)
	if i < 0 {
		return out
	}
	return append(out[:i], out[i+1:]...)
}

// Update replaces the row with the key by {...row, ...patch}.
func Update(rows RowList, key Key, patch Fields, policy MissingRowPolicy) (RowList, error) {
	i := rows.IndexOf(key)
	if i < 0 {
		if policy != PolicyOverwriteLast || len(rows) == 0 {
			return rows, fmt.Errorf("update %q: %w", key, ErrRowNotFound)
		}
		i = len(rows) - 1
	}
	out := make(RowList, len(rows))
	copy(out, rows)
	out[i] = rows[i].Merge(patch)
	return out, nil
}
