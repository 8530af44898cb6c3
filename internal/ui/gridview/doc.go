// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package gridview is the Bubble Tea front end for the editable grid.

The view opens on a compact preview of the data source. Pressing e opens
the editing dialog, which shows every row with one cell under the cursor:

	Enter   edit the cell (or delete, on the Operation column)
	Tab     commit and move to the next cell
	Esc     cancel the edit, or close the dialog
	a       add a row
	d       delete the row, after confirmation
	i / x   import from .xlsx / export to .json, .md or .xlsx

All state lives in the grid.Controller handed to New. Commits validate in
a tea.Cmd and are applied when the result message returns to Update, so a
slow validator never blocks the event loop.
*/
package gridview
