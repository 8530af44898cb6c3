// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

// =============================================================================
// CELL EDIT STATE MACHINE
// =============================================================================

// CellState is the mode of a single editable cell.
type CellState int

const (
	Viewing CellState = iota
	Editing
)

// String returns a short label for the state.
func (s CellState) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// CellID addresses one (row, column) pair.
type CellID struct {
	Key   Key
	Field string
}

// CellEditor owns the edit buffer of one cell. It knows nothing about the
// row list; the Controller feeds it the row on activation and applies the
// committed value.
type CellEditor struct {
	id      CellID
	state   CellState
	buffer  string
	pending bool
	lastErr error
}

// NewCellEditor returns an editor in the Viewing state.
func NewCellEditor(id CellID) *CellEditor {
	return &CellEditor{id: id}
}

// ID returns the cell address.
func (c *CellEditor) ID() CellID { return c.id }

// State returns the current mode.
func (c *CellEditor) State() CellState { return c.state }

// Buffer returns the edit buffer. It is empty outside Editing.
func (c *CellEditor) Buffer() string { return c.buffer }

// Pending reports whether a commit is awaiting validation.
func (c *CellEditor) Pending() bool { return c.pending }

// Err returns the last validation failure, cleared on activation and commit.
func (c *CellEditor) Err() error { return c.lastErr }

// Activate moves Viewing -> Editing and syncs the buffer to the row's
// committed value. Activating a cell that is already Editing keeps its
// buffer and returns false.
func (c *CellEditor) Activate(row Row) bool {
	if c.state == Editing {
		return false
	}
	c.state = Editing
	c.buffer = FormatValue(row.Get(c.id.Field))
	c.lastErr = nil
	return true
}

// SetBuffer replaces the buffer while Editing.
func (c *CellEditor) SetBuffer(s string) error {
	if c.state != Editing {
		return ErrNotEditing
	}
	if c.pending {
		return ErrCommitPending
	}
	c.buffer = s
	return nil
}

// BeginCommit snapshots the buffer and marks a commit in flight. A second
// call before EndCommit is rejected.
func (c *CellEditor) BeginCommit() (string, error) {
	if c.state != Editing {
		return "", ErrNotEditing
	}
	if c.pending {
		return "", ErrCommitPending
	}
	c.pending = true
	return c.buffer, nil
}

// EndCommit finishes a commit. A nil error returns the cell to Viewing and
// discards the buffer; a failure keeps it Editing so the user can retry.
func (c *CellEditor) EndCommit(err error) {
	c.pending = false
	if err != nil {
		c.lastErr = err
		return
	}
	c.state = Viewing
	c.buffer = ""
	c.lastErr = nil
}

// Cancel discards the buffer without touching the row.
func (c *CellEditor) Cancel() error {
	if c.state != Editing {
		return ErrNotEditing
	}
	if c.pending {
		return ErrCommitPending
	}
	c.state = Viewing
	c.buffer = ""
	c.lastErr = nil
	return nil
}
