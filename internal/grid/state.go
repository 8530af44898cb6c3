// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import "fmt"

// =============================================================================
// GRID STATE
// =============================================================================

// State is the grid's complete mutable state as a value. Every transition
// returns a new State and leaves the receiver untouched.
type State struct {
	Rows    RowList
	Counter int

	// Pending is the row awaiting delete confirmation when HasPending is set.
	Pending    Key
	HasPending bool
}

// NewState ingests records and seeds the Counter. The Counter starts at
// max(seed, len(records)) so minted keys never collide with ingested ones.
func NewState(records []Fields, seed int) State {
	rows := Initialize(records)
	counter := seed
	if counter < len(rows) {
		counter = len(rows)
	}
	return State{Rows: rows, Counter: counter}
}

// Add appends a template row.
func (s State) Add(tmpl Template) State {
	s.Rows, s.Counter = Add(s.Rows, s.Counter, tmpl)
	return s
}

// Append adds each record as a new row keyed by the Counter.
func (s State) Append(records []Fields) (State, []Key) {
	keys := make([]Key, 0, len(records))
	for _, rec := range records {
		rec := rec
		keys = append(keys, KeyFromInt(s.Counter))
		s.Rows, s.Counter = Add(s.Rows, s.Counter, func(int) Fields { return rec.Clone() })
	}
	return s, keys
}

// Update patches the row with the key.
func (s State) Update(key Key, patch Fields, policy MissingRowPolicy) (State, error) {
	rows, err := Update(s.Rows, key, patch, policy)
	if err != nil {
		return s, err
	}
	s.Rows = rows
	return s, nil
}

// Reset re-ingests records. The Counter never moves backwards and any
// pending delete is dropped.
func (s State) Reset(records []Fields) State {
	return NewState(records, s.Counter)
}

// =============================================================================
// DELETE CONFIRMATION GATE
// =============================================================================

// DeleteAvailable reports whether the delete affordance is shown. It is
// shown on every row as soon as the grid has at least one row.
func DeleteAvailable(rows RowList) bool {
	return len(rows) >= 1
}

// RequestDelete marks key as awaiting confirmation. Rows are unchanged.
func (s State) RequestDelete(key Key) (State, error) {
	if !DeleteAvailable(s.Rows) {
		return s, ErrGridEmpty
	}
	s.Pending = key
	s.HasPending = true
	return s, nil
}

// ConfirmDelete removes the pending row. Confirming a key that was not
// requested is rejected.
func (s State) ConfirmDelete(key Key) (State, error) {
	if !s.HasPending || s.Pending != key {
		return s, fmt.Errorf("confirm delete %q: %w", key, ErrNoPendingDelete)
	}
	s.Rows = Remove(s.Rows, key)
	s.Pending = ""
	s.HasPending = false
	return s, nil
}

// CancelDelete drops the pending request.
func (s State) CancelDelete() State {
	s.Pending = ""
	s.HasPending = false
	return s
}
