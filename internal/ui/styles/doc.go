// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the gridedit TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The Theme struct bundles the table, dialog and status styles:

	theme := styles.NewTheme(cfg.UI.Theme)
	cell := theme.CellSelected.Render("dooring 2")

Status helpers pair every color with an ASCII indicator so states remain
readable without color:

	styles.RenderError("Name is required.") // "[X] Name is required."
*/
package styles
