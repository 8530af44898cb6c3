// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

// Dialog is the visibility gate around the grid. Opening or closing it
// never touches grid state.
type Dialog struct {
	title string
	open  bool
}

// NewDialog returns a closed dialog.
func NewDialog(title string) *Dialog {
	return &Dialog{title: title}
}

// Open shows the grid.
func (d *Dialog) Open() { d.open = true }

// Close hides the grid.
func (d *Dialog) Close() { d.open = false }

// IsOpen reports whether the grid is shown.
func (d *Dialog) IsOpen() bool { return d.open }

// Title returns the dialog title.
func (d *Dialog) Title() string { return d.title }
