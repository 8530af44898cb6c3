// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the grid's row list.
//
// A Store saves every row list the grid notifies and loads keyless records
// back for re-ingestion. Two backends are provided:
//
//   - JSONStore: one JSON array in a file, written atomically
//   - SQLiteStore: a revision log in SQLite, one revision per save
//
// # Usage
//
// Persist every change:
//
//	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
//	records, err := store.Load(ctx)
//	p := storage.NewPersister(store)
//	ctrl := grid.NewController(records, cfg.Options(p.OnChange))
//
// # Storage Location
//
// Rows are stored in ~/.gridedit/rows.json (or rows.db for sqlite).
package storage
