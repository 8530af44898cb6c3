// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across gridedit.
//
// # Key Functions
//
// String Utilities:
//   - StringWidth, TruncateWidth, FitWidth: display-width aware cell layout
//   - SingleLine: flatten multi-line values for a table row
//
// File Operations:
//   - AtomicWriteFile, AtomicWrite: crash-safe file replacement with fsync
//
// # Usage
//
//	cell := util.FitWidth(text, 12)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
