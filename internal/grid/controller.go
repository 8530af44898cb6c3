// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Schema      Schema
	Validator   Validator
	OnChange    ChangeFunc
	Template    Template
	CounterSeed int
	MissingRow  MissingRowPolicy
}

// Controller owns the grid state and serializes every transition with its
// notification.
type Controller struct {
	mu sync.Mutex

	schema    Schema
	validator Validator
	template  Template
	policy    MissingRowPolicy
	notifier  *Notifier

	state State
	cells map[CellID]*CellEditor
}

// Commit is an in-flight cell commit: the buffer snapshot plus what a
// validator needs to check it.
type Commit struct {
	Cell   CellID
	Column Column
	Row    Row
	Buffer string
}

// NewController ingests records and builds a controller.
func NewController(records []Fields, opts Options) *Controller {
	if opts.Schema == nil {
		opts.Schema = DefaultSchema()
	}
	if opts.Validator == nil {
		opts.Validator = NewDefaultValidator()
	}
	if opts.Template == nil {
		opts.Template = DefaultTemplate
	}
	return &Controller{
		schema:    opts.Schema,
		validator: opts.Validator,
		template:  opts.Template,
		policy:    opts.MissingRow,
		notifier:  NewNotifier(opts.OnChange),
		state:     NewState(records, opts.CounterSeed),
		cells:     make(map[CellID]*CellEditor),
	}
}

// Schema returns the column schema.
func (c *Controller) Schema() Schema {
	return c.schema
}

// Rows returns a copy of the current rows.
func (c *Controller) Rows() RowList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Rows.Clone()
}

// Len returns the number of rows.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.Rows)
}

// Counter returns the key the next Add will mint.
func (c *Controller) Counter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Counter
}

// Notifications returns how many change notifications were sent.
func (c *Controller) Notifications() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifier.Count()
}

// commit installs next as the current state and notifies. Callers hold mu.
func (c *Controller) commit(next State) {
	c.state = next
	c.notifier.Notify(c.state.Rows)
}

// =============================================================================
// ROW ACTIONS
// =============================================================================

// Add appends a template row and returns its key.
func (c *Controller) Add() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := KeyFromInt(c.state.Counter)
	c.commit(c.state.Add(c.template))
	log.Printf("ROW_ADDED | key=%s rows=%d", key, len(c.state.Rows))
	return key
}

// Import appends records as new rows and notifies once for the batch.
// An empty batch is not a mutation.
func (c *Controller) Import(records []Fields) []Key {
	if len(records) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next, keys := c.state.Append(records)
	c.commit(next)
	log.Printf("ROWS_IMPORTED | count=%d rows=%d", len(keys), len(c.state.Rows))
	return keys
}

// Reset replaces the rows with freshly ingested records, as if the grid had
// just been constructed. Open editors and any pending delete are discarded,
// except in-flight commits under PolicyOverwriteLast. The owner supplied the
// records, so no notification is sent.
func (c *Controller) Reset(records []Fields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.Reset(records)
	c.dropCells(func(CellID) bool { return true })
	log.Printf("ROWS_RESET | rows=%d counter=%d", len(c.state.Rows), c.state.Counter)
}

// DeleteAvailable reports whether the delete affordance is shown.
func (c *Controller) DeleteAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeleteAvailable(c.state.Rows)
}

// RequestDelete opens the confirmation for key.
func (c *Controller) RequestDelete(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.state.RequestDelete(key)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// PendingDelete returns the row awaiting confirmation.
func (c *Controller) PendingDelete() (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Pending, c.state.HasPending
}

// ConfirmDelete removes the pending row and notifies. A key that is no
// longer present still notifies with the unchanged list.
func (c *Controller) ConfirmDelete(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.state.ConfirmDelete(key)
	if err != nil {
		return err
	}
	c.dropCells(func(id CellID) bool { return id.Key == key })
	c.commit(next)
	log.Printf("ROW_DELETED | key=%s rows=%d", key, len(c.state.Rows))
	return nil
}

// dropCells discards the editors match selects. Under PolicyOverwriteLast
// an editor with a commit in flight survives so FinishCommit can still land
// on the last row. Callers hold mu.
func (c *Controller) dropCells(match func(CellID) bool) {
	for id, cell := range c.cells {
		if !match(id) {
			continue
		}
		if c.policy == PolicyOverwriteLast && cell.Pending() {
			continue
		}
		delete(c.cells, id)
	}
}

// CancelDelete drops the pending confirmation.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.CancelDelete()
}

// =============================================================================
// CELL EDITING
// =============================================================================

// editable resolves an editable column. Callers hold mu.
func (c *Controller) editable(field string) (Column, error) {
	col, ok := c.schema.Column(field)
	if !ok {
		return Column{}, fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}
	if !col.Editable {
		return Column{}, fmt.Errorf("%w: %s", ErrNotEditable, field)
	}
	return col, nil
}

// BeginEdit activates the cell, syncing its buffer to the committed value.
// It returns false when the cell was already being edited.
func (c *Controller) BeginEdit(key Key, field string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.editable(field); err != nil {
		return false, err
	}
	row, ok := c.lookup(key)
	if !ok {
		return false, fmt.Errorf("edit %q: %w", key, ErrRowNotFound)
	}
	id := CellID{Key: key, Field: field}
	cell, ok := c.cells[id]
	if !ok {
		cell = NewCellEditor(id)
		c.cells[id] = cell
	}
	return cell.Activate(row), nil
}

// lookup finds the row for key. Under PolicyOverwriteLast a missing key
// resolves to an empty row so the commit can fall through to the last row.
// Callers hold mu.
func (c *Controller) lookup(key Key) (Row, bool) {
	if row, ok := c.state.Rows.Find(key); ok {
		return row, true
	}
	if c.policy == PolicyOverwriteLast && len(c.state.Rows) > 0 {
		return Row{Key: key}, true
	}
	return Row{}, false
}

// cell returns the editor for an Editing cell. Callers hold mu.
func (c *Controller) cell(key Key, field string) (*CellEditor, error) {
	cell, ok := c.cells[CellID{Key: key, Field: field}]
	if !ok || cell.State() != Editing {
		return nil, ErrNotEditing
	}
	return cell, nil
}

// SetBuffer replaces the edit buffer of an Editing cell.
func (c *Controller) SetBuffer(key Key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, err := c.cell(key, field)
	if err != nil {
		return err
	}
	return cell.SetBuffer(value)
}

// Buffer returns the edit buffer and whether the cell is Editing.
func (c *Controller) Buffer(key Key, field string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, err := c.cell(key, field)
	if err != nil {
		return "", false
	}
	return cell.Buffer(), true
}

// CellState returns the mode of a cell. Cells without an editor are Viewing.
func (c *Controller) CellState(key Key, field string) CellState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cell, ok := c.cells[CellID{Key: key, Field: field}]; ok {
		return cell.State()
	}
	return Viewing
}

// CellErr returns the last validation failure of an Editing cell.
func (c *Controller) CellErr(key Key, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cell, ok := c.cells[CellID{Key: key, Field: field}]; ok {
		return cell.Err()
	}
	return nil
}

// CellPending reports whether the cell has a commit awaiting validation.
func (c *Controller) CellPending(key Key, field string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cell, ok := c.cells[CellID{Key: key, Field: field}]; ok {
		return cell.Pending()
	}
	return false
}

// Editing lists the cells currently in the Editing state, in row order.
func (c *Controller) Editing() []CellID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []CellID
	for id, cell := range c.cells {
		if cell.State() == Editing {
			ids = append(ids, id)
		}
	}
	order := make(map[Key]int, len(c.state.Rows))
	for i, r := range c.state.Rows {
		order[r.Key] = i
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Key != ids[j].Key {
			return order[ids[i].Key] < order[ids[j].Key]
		}
		return ids[i].Field < ids[j].Field
	})
	return ids
}

// CancelEdit discards the buffer of an Editing cell.
func (c *Controller) CancelEdit(key Key, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, err := c.cell(key, field)
	if err != nil {
		return err
	}
	if err := cell.Cancel(); err != nil {
		return err
	}
	delete(c.cells, cell.ID())
	return nil
}

// PrepareCommit snapshots an Editing cell for validation. Until
// FinishCommit runs, further commits on the cell fail with ErrCommitPending.
func (c *Controller) PrepareCommit(key Key, field string) (*Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.editable(field)
	if err != nil {
		return nil, err
	}
	cell, err := c.cell(key, field)
	if err != nil {
		return nil, err
	}
	row, ok := c.lookup(key)
	if !ok {
		delete(c.cells, cell.ID())
		return nil, fmt.Errorf("commit %q: %w", key, ErrRowNotFound)
	}
	buf, err := cell.BeginCommit()
	if err != nil {
		return nil, err
	}
	return &Commit{Cell: cell.ID(), Column: col, Row: row.Clone(), Buffer: buf}, nil
}

// Validate runs the configured validator on a prepared commit. It does not
// touch controller state and may run on any goroutine.
func (c *Controller) Validate(ctx context.Context, p *Commit) (any, error) {
	return c.validator.Validate(ctx, p.Column, p.Row, p.Buffer)
}

// FinishCommit applies a validated value, or records the validation
// failure and leaves the cell Editing.
func (c *Controller) FinishCommit(p *Commit, value any, verr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, ok := c.cells[p.Cell]
	if !ok || !cell.Pending() {
		return ErrNotEditing
	}
	if verr != nil {
		cell.EndCommit(verr)
		log.Printf("COMMIT_REJECTED | key=%s field=%s error=%v", p.Cell.Key, p.Cell.Field, verr)
		return verr
	}
	next, err := c.state.Update(p.Cell.Key, Fields{p.Cell.Field: value}, c.policy)
	if err != nil {
		delete(c.cells, p.Cell)
		log.Printf("COMMIT_FAILED | key=%s field=%s error=%v", p.Cell.Key, p.Cell.Field, err)
		return err
	}
	cell.EndCommit(nil)
	delete(c.cells, p.Cell)
	c.commit(next)
	log.Printf("CELL_COMMITTED | key=%s field=%s", p.Cell.Key, p.Cell.Field)
	return nil
}

// Commit validates the cell's buffer and merges it into the row. A
// validation failure is returned and the cell stays Editing.
func (c *Controller) Commit(ctx context.Context, key Key, field string) error {
	p, err := c.PrepareCommit(key, field)
	if err != nil {
		return err
	}
	value, verr := c.Validate(ctx, p)
	return c.FinishCommit(p, value, verr)
}

// =============================================================================
// RENDERING
// =============================================================================

// DeleteLabel is the text of the delete affordance.
const DeleteLabel = "Delete"

// CellText renders one cell for display. Action columns render their
// affordance; the delete affordance is hidden only when the grid is empty.
func (c *Controller) CellText(row Row, col Column) string {
	if col.Action == ActionDelete {
		if c.DeleteAvailable() {
			return DeleteLabel
		}
		return ""
	}
	v := row.Get(col.FieldID)
	if col.Render != nil {
		return col.Render(v, row)
	}
	return FormatValue(v)
}
