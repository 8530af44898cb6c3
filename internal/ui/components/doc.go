// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the gridedit TUI.

Each component is a small Bubble Tea building block styled through the
shared styles.Theme. Modal components follow the same contract: Update
returns (tea.Cmd, bool) where the bool reports whether the component
consumed the message, so the owning model only handles keys the modal
left alone.

# Components

DeleteConfirm (confirm.go) - Confirmation dialog guarding row deletion.
Prompt (prompt.go) - Single-line text prompt, used for import and export paths.
Spinner (spinner.go) - ASCII spinner shown while a cell commit is validating.

# Usage

	confirm := components.NewDeleteConfirm(theme)
	confirm.Show(key, "dooring 2")

	// In Update:
	if cmd, handled := confirm.Update(msg); handled {
		return m, cmd
	}

	// The result arrives as a DeleteConfirmedMsg or DeleteCanceledMsg.
*/
package components
