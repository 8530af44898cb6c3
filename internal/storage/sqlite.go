// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jeranaias/gridedit/internal/grid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqliteSchema stores every saved row list as a revision.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS revisions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    row_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rows (
    revision_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    row_key TEXT NOT NULL,
    fields TEXT NOT NULL,
    PRIMARY KEY (revision_id, position),
    FOREIGN KEY(revision_id) REFERENCES revisions(id) ON DELETE CASCADE
);
`

// DefaultKeepRevisions is how many revisions a SQLiteStore retains.
const DefaultKeepRevisions = 50

// Revision describes one saved row list.
type Revision struct {
	ID        string
	CreatedAt time.Time
	RowCount  int
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps a history of saved row lists. Load returns the newest.
type SQLiteStore struct {
	db   *sql.DB
	path string

	// KeepRevisions bounds the history (0 = unlimited).
	KeepRevisions int
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, KeepRevisions: DefaultKeepRevisions}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save records rows as a new revision and prunes old ones.
func (s *SQLiteStore) Save(ctx context.Context, rows grid.RowList) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	created := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO revisions (id, created_at, row_count) VALUES (?, ?, ?)",
		id, created, len(rows)); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO rows (revision_id, position, row_key, fields) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		fields, err := json.Marshal(row.Fields)
		if err != nil {
			return fmt.Errorf("encode row %s: %w", row.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, string(row.Key), string(fields)); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Key, err)
		}
	}

	if s.KeepRevisions > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM revisions WHERE seq <= (
			    SELECT seq FROM revisions ORDER BY seq DESC LIMIT 1 OFFSET ?
			)`, s.KeepRevisions); err != nil {
			return fmt.Errorf("prune revisions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM rows WHERE revision_id NOT IN (SELECT id FROM revisions)"); err != nil {
			return fmt.Errorf("prune rows: %w", err)
		}
	}

	return tx.Commit()
}

// Load returns the records of the newest revision. An empty database is an
// empty grid.
func (s *SQLiteStore) Load(ctx context.Context) ([]grid.Fields, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM revisions ORDER BY seq DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest revision: %w", err)
	}
	return s.LoadRevision(ctx, id)
}

// LoadRevision returns the records saved in one revision.
func (s *SQLiteStore) LoadRevision(ctx context.Context, id string) ([]grid.Fields, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT row_count FROM revisions WHERE id = ?", id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rs, err := s.db.QueryContext(ctx,
		"SELECT fields FROM rows WHERE revision_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	raw := make([]map[string]any, 0, count)
	for rs.Next() {
		var text string
		if err := rs.Scan(&text); err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, fmt.Errorf("%w: revision %s: %v", ErrCorrupt, id, err)
		}
		raw = append(raw, fields)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return recordsOf(raw), nil
}

// Revisions lists saved revisions, newest first.
func (s *SQLiteStore) Revisions(ctx context.Context) ([]Revision, error) {
	rs, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, row_count FROM revisions ORDER BY seq DESC")
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Revision
	for rs.Next() {
		var rev Revision
		var created string
		if err := rs.Scan(&rev.ID, &created, &rev.RowCount); err != nil {
			return nil, err
		}
		rev.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rev)
	}
	return out, rs.Err()
}
