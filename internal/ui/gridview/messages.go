// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gridview

import (
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/watch"
)

// Prompt IDs.
const (
	promptImport = "import"
	promptExport = "export"
)

// commitResultMsg returns a validated commit to the event loop.
type commitResultMsg struct {
	commit *grid.Commit
	value  any
	err    error
}

// importResultMsg carries records read from a spreadsheet.
type importResultMsg struct {
	path    string
	records []grid.Fields
	err     error
}

// exportResultMsg reports an export.
type exportResultMsg struct {
	path string
	err  error
}

// clipboardResultMsg reports a yank.
type clipboardResultMsg struct {
	text string
	err  error
}

// fileChangedMsg is sent when the watched data file changes on disk.
type fileChangedMsg struct {
	event watch.Event
}

// reloadMsg carries rows re-read after an external change. Unchanged is set
// when the file matches what this process last wrote.
type reloadMsg struct {
	records   []grid.Fields
	unchanged bool
	err       error
}
