// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every row list handed to the owner.
type recorder struct {
	mu    sync.Mutex
	calls []RowList
}

func (r *recorder) onChange(rows RowList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rows)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() RowList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newScenarioA(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	ctrl := NewController(sampleRecords(), Options{OnChange: rec.onChange})
	return ctrl, rec
}

func fieldsOf(rows RowList) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := map[string]any{"key": string(r.Key)}
		for k, v := range r.Fields {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioA_Initialize(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	assert.Equal(t, []map[string]any{
		{"key": "0", "name": "a", "value": 1},
		{"key": "1", "name": "b", "value": 2},
	}, fieldsOf(ctrl.Rows()))
	assert.Equal(t, 0, rec.count(), "construction is not a mutation")
}

func TestScenarioB_Add(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	key := ctrl.Add()

	assert.Equal(t, Key("2"), key)
	require.Equal(t, 1, rec.count())
	got := rec.last()
	require.Len(t, got, 3)
	assert.Equal(t, map[string]any{"key": "2", "name": "dooring 2", "value": 32}, fieldsOf(got)[2])
	assert.Equal(t, 3, ctrl.Counter())
}

func TestScenarioC_ConfirmedRemove(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	require.NoError(t, ctrl.RequestDelete("0"))
	assert.Equal(t, 0, rec.count(), "request alone does not mutate")
	assert.Len(t, ctrl.Rows(), 2)

	require.NoError(t, ctrl.ConfirmDelete("0"))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []map[string]any{{"key": "1", "name": "b", "value": 2}}, fieldsOf(rec.last()))
	_, pending := ctrl.PendingDelete()
	assert.False(t, pending)
}

func TestScenarioD_EditCommit(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	require.NoError(t, ctrl.RequestDelete("0"))
	require.NoError(t, ctrl.ConfirmDelete("0"))

	activated, err := ctrl.BeginEdit("1", "name")
	require.NoError(t, err)
	require.True(t, activated)
	buf, editing := ctrl.Buffer("1", "name")
	require.True(t, editing)
	assert.Equal(t, "b", buf)

	require.NoError(t, ctrl.SetBuffer("1", "name", "bee"))
	require.NoError(t, ctrl.Commit(context.Background(), "1", "name"))

	require.Equal(t, 2, rec.count())
	assert.Equal(t, []map[string]any{{"key": "1", "name": "bee", "value": 2}}, fieldsOf(rec.last()))
	assert.Equal(t, Viewing, ctrl.CellState("1", "name"))
}

func TestScenarioE_SingleRowDelete(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController([]Fields{{"name": "only", "value": 1}}, Options{OnChange: rec.onChange})
	op, _ := ctrl.Schema().Column(FieldOperation)
	row := ctrl.Rows()[0]

	assert.True(t, ctrl.DeleteAvailable(), "one row is enough to show the affordance")
	assert.Equal(t, DeleteLabel, ctrl.CellText(row, op))

	require.NoError(t, ctrl.RequestDelete("0"))
	require.NoError(t, ctrl.ConfirmDelete("0"))
	assert.Empty(t, rec.last())
	assert.False(t, ctrl.DeleteAvailable())
	assert.Equal(t, "", ctrl.CellText(row, op))
	assert.ErrorIs(t, ctrl.RequestDelete("0"), ErrGridEmpty)
}

// =============================================================================
// DELETE GATE
// =============================================================================

func TestDeleteGate(t *testing.T) {
	ctrl, rec := newScenarioA(t)

	err := ctrl.ConfirmDelete("0")
	require.True(t, errors.Is(err, ErrNoPendingDelete), "no delete without confirmation")

	require.NoError(t, ctrl.RequestDelete("1"))
	require.ErrorIs(t, ctrl.ConfirmDelete("0"), ErrNoPendingDelete, "confirm must match the request")

	ctrl.CancelDelete()
	require.ErrorIs(t, ctrl.ConfirmDelete("1"), ErrNoPendingDelete)
	assert.Len(t, ctrl.Rows(), 2)
	assert.Equal(t, 0, rec.count())
}

func TestDeleteGate_MissingKeyStillNotifies(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	require.NoError(t, ctrl.RequestDelete("42"))
	require.NoError(t, ctrl.ConfirmDelete("42"))
	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.last(), 2)
}

func TestDeleteDropsOpenEditors(t *testing.T) {
	ctrl, _ := newScenarioA(t)
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.RequestDelete("0"))
	require.NoError(t, ctrl.ConfirmDelete("0"))
	assert.Empty(t, ctrl.Editing())
}

// =============================================================================
// CELL EDITING
// =============================================================================

func TestBeginEdit_Errors(t *testing.T) {
	ctrl, _ := newScenarioA(t)
	_, err := ctrl.BeginEdit("0", "operation")
	assert.ErrorIs(t, err, ErrNotEditable)
	_, err = ctrl.BeginEdit("0", "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = ctrl.BeginEdit("9", "name")
	assert.ErrorIs(t, err, ErrRowNotFound)
	assert.ErrorIs(t, ctrl.SetBuffer("0", "name", "x"), ErrNotEditing)
	assert.ErrorIs(t, ctrl.Commit(context.Background(), "0", "name"), ErrNotEditing)
}

func TestCommit_ValidationFailureKeepsEditing(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	_, err := ctrl.BeginEdit("0", "value")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetBuffer("0", "value", "not a number"))

	err = ctrl.Commit(context.Background(), "0", "value")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, Editing, ctrl.CellState("0", "value"))
	assert.Equal(t, err, ctrl.CellErr("0", "value"))
	assert.Equal(t, 0, rec.count(), "failures never reach the owner")
	assert.Equal(t, 1, ctrl.Rows()[0].Get("value"))

	require.NoError(t, ctrl.SetBuffer("0", "value", "5"))
	require.NoError(t, ctrl.Commit(context.Background(), "0", "value"))
	assert.Equal(t, 5, ctrl.Rows()[0].Get("value"))
	assert.Equal(t, 1, rec.count())
}

func TestBeginEdit_ResyncsAfterCancel(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	_, err := ctrl.BeginEdit("1", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetBuffer("1", "name", "uncommitted"))
	require.NoError(t, ctrl.CancelEdit("1", "name"))
	assert.Equal(t, 0, rec.count())

	_, err = ctrl.BeginEdit("1", "name")
	require.NoError(t, err)
	buf, _ := ctrl.Buffer("1", "name")
	assert.Equal(t, "b", buf)
}

func TestCells_IndependentEditing(t *testing.T) {
	ctrl, _ := newScenarioA(t)
	for _, id := range []CellID{{"1", "value"}, {"0", "name"}, {"0", "value"}} {
		_, err := ctrl.BeginEdit(id.Key, id.Field)
		require.NoError(t, err)
	}
	assert.Equal(t, []CellID{{"0", "name"}, {"0", "value"}, {"1", "value"}}, ctrl.Editing())
}

func TestCommit_AsyncRejectsReentry(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetBuffer("0", "name", "x"))

	p, err := ctrl.PrepareCommit("0", "name")
	require.NoError(t, err)
	assert.True(t, ctrl.CellPending("0", "name"))

	_, err = ctrl.PrepareCommit("0", "name")
	require.ErrorIs(t, err, ErrCommitPending)
	require.ErrorIs(t, ctrl.CancelEdit("0", "name"), ErrCommitPending)

	value, verr := ctrl.Validate(context.Background(), p)
	require.NoError(t, verr)
	require.NoError(t, ctrl.FinishCommit(p, value, nil))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "x", ctrl.Rows()[0].Get("name"))
}

func TestCommit_RowDeletedWhileValidating(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	p, err := ctrl.PrepareCommit("0", "name")
	require.NoError(t, err)

	require.NoError(t, ctrl.RequestDelete("0"))
	require.NoError(t, ctrl.ConfirmDelete("0"))

	err = ctrl.FinishCommit(p, "late", nil)
	require.ErrorIs(t, err, ErrNotEditing)
	assert.Equal(t, 1, rec.count(), "only the delete notified")
}

func TestCommit_MissingRowPolicyOverwriteLast(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController(sampleRecords(), Options{OnChange: rec.onChange, MissingRow: PolicyOverwriteLast})
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetBuffer("0", "name", "patched"))
	p, err := ctrl.PrepareCommit("0", "name")
	require.NoError(t, err)

	// The row vanishes while the commit is in flight.
	require.NoError(t, ctrl.RequestDelete("0"))
	require.NoError(t, ctrl.ConfirmDelete("0"))
	require.Equal(t, 1, rec.count())
	assert.True(t, ctrl.CellPending("0", "name"))

	value, verr := ctrl.Validate(context.Background(), p)
	require.NoError(t, verr)
	require.NoError(t, ctrl.FinishCommit(p, value, nil))

	rows := ctrl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, Key("1"), rows[0].Key)
	assert.Equal(t, "patched", rows[0].Get("name"))
	assert.Equal(t, 2, rec.count(), "the commit notified once more")
	assert.Equal(t, Viewing, ctrl.CellState("0", "name"))
}

func TestBeginEdit_MissingKeyOverwriteLast(t *testing.T) {
	ctrl := NewController(sampleRecords(), Options{MissingRow: PolicyOverwriteLast})
	_, err := ctrl.BeginEdit("9", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetBuffer("9", "name", "late"))
	require.NoError(t, ctrl.Commit(context.Background(), "9", "name"))

	rows := ctrl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "late", rows[1].Get("name"))
	assert.Equal(t, Key("1"), rows[1].Key)

	empty := NewController(nil, Options{MissingRow: PolicyOverwriteLast})
	_, err = empty.BeginEdit("9", "name")
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestReset_KeepsInFlightCommitOverwriteLast(t *testing.T) {
	ctrl := NewController(sampleRecords(), Options{MissingRow: PolicyOverwriteLast})
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	_, err = ctrl.BeginEdit("1", "name")
	require.NoError(t, err)
	p, err := ctrl.PrepareCommit("0", "name")
	require.NoError(t, err)

	ctrl.Reset([]Fields{{"name": "z", "value": 9}})
	assert.Equal(t, Viewing, ctrl.CellState("1", "name"), "idle editors are dropped")
	require.NoError(t, ctrl.FinishCommit(p, "kept", nil))
	assert.Equal(t, "kept", ctrl.Rows()[0].Get("name"))
}

func TestCommit_CustomAsyncValidator(t *testing.T) {
	release := make(chan struct{})
	v := ValidatorFunc(func(ctx context.Context, col Column, row Row, buffer string) (any, error) {
		select {
		case <-release:
			return buffer + "!", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	ctrl := NewController(sampleRecords(), Options{Validator: v})
	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- ctrl.Commit(context.Background(), "0", "name") }()
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "a!", ctrl.Rows()[0].Get("name"))
}

// =============================================================================
// NOTIFICATION ORDERING
// =============================================================================

func TestNotify_OncePerMutationInOrder(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController(nil, Options{OnChange: rec.onChange})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Add()
		}()
	}
	wg.Wait()

	require.Equal(t, 50, rec.count())
	assert.Equal(t, uint64(50), ctrl.Notifications())
	for i, rows := range rec.calls {
		assert.Len(t, rows, i+1, "notification %d carries the post-mutation list", i)
	}
}

func TestNotify_ReceivesCopy(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	ctrl.Add()
	rec.last()[0].Fields["name"] = "mutated by owner"
	assert.Equal(t, "a", ctrl.Rows()[0].Get("name"))
}

func TestImportAndReset(t *testing.T) {
	ctrl, rec := newScenarioA(t)
	assert.Nil(t, ctrl.Import(nil))
	assert.Equal(t, 0, rec.count())

	keys := ctrl.Import([]Fields{{"name": "x", "value": 9}, {"name": "y", "value": 8}})
	assert.Equal(t, []Key{"2", "3"}, keys)
	require.Equal(t, 1, rec.count(), "one notification per import")
	assert.Len(t, rec.last(), 4)

	_, err := ctrl.BeginEdit("0", "name")
	require.NoError(t, err)
	require.NoError(t, ctrl.RequestDelete("1"))

	ctrl.Reset([]Fields{{"name": "fresh"}})
	assert.Equal(t, []Key{"0"}, ctrl.Rows().Keys())
	assert.Equal(t, 4, ctrl.Counter(), "counter never goes backwards")
	assert.Empty(t, ctrl.Editing())
	_, pending := ctrl.PendingDelete()
	assert.False(t, pending)
	assert.Equal(t, 1, rec.count(), "reset does not notify")
}

func TestCounterSeed(t *testing.T) {
	ctrl := NewController(sampleRecords(), Options{CounterSeed: 10})
	assert.Equal(t, Key("10"), ctrl.Add())

	ctrl = NewController(make([]Fields, 5), Options{CounterSeed: 2})
	assert.Equal(t, Key("5"), ctrl.Add(), "seed never collides with ingested keys")
}

func TestCellText_Render(t *testing.T) {
	schema := DefaultSchema()
	schema[0].Render = func(v any, row Row) string { return "<" + FormatValue(v) + ">" }
	ctrl := NewController(sampleRecords(), Options{Schema: schema})
	row := ctrl.Rows()[0]
	assert.Equal(t, "<a>", ctrl.CellText(row, schema[0]))
	assert.Equal(t, "1", ctrl.CellText(row, schema[1]))
}
