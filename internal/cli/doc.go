// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the gridedit command line and runs its commands.
//
// Every command that changes rows goes through grid.Controller, so the
// commit validation, the delete confirmation and the owner notification
// behave the same as in the TUI. The owner is a storage.Persister that
// saves each notified row list.
package cli
