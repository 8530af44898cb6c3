// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package grid implements the state machines behind the editable data grid.
//
// The package is split along the lines of the grid's moving parts:
//
//   - Column / Schema: immutable description of the fields shown by the grid
//   - Row store: pure transformations (Initialize, Add, Remove, Update) over a RowList
//   - CellEditor: the per-cell Viewing/Editing machine with its edit buffer
//   - Delete gate: two-phase RequestDelete / ConfirmDelete / CancelDelete
//   - Notifier: delivers the full row list to the owner after every mutation
//   - Controller: composes the above over an explicit State record
//
// # Usage
//
//	ctrl := grid.NewController(records, grid.Options{
//	    OnChange: func(rows grid.RowList) { save(rows) },
//	})
//	ctrl.Add()
//	ctrl.BeginEdit("1", "name")
//	ctrl.SetBuffer("1", "name", "bee")
//	if err := ctrl.Commit(ctx, "1", "name"); err != nil {
//	    // validation failed; the cell stays in Editing
//	}
//
// Row store functions never notify. Only the Controller does, exactly once per
// successful mutation, while holding its lock so notifications keep event order.
package grid
