// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/gridedit/internal/grid"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrCorrupt          = errors.New("stored rows are corrupt")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists row lists. Load returns records without keys, ready for
// grid.Initialize.
type Store interface {
	Load(ctx context.Context) ([]grid.Fields, error)
	Save(ctx context.Context, rows grid.RowList) error
	Path() string
	Close() error
}

// Watchable is implemented by stores whose backing file may be edited by
// other processes.
type Watchable interface {
	Store
	// Changed reports whether the file differs from what this store last
	// read or wrote.
	Changed() (bool, error)
}

// Open returns the store for a backend name ("json" or "sqlite").
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "json":
		return NewJSONStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// recordsOf strips keys and normalizes numbers of decoded rows.
func recordsOf(raw []map[string]any) []grid.Fields {
	records := make([]grid.Fields, len(raw))
	for i, r := range raw {
		fields := grid.Fields(r).Normalize()
		delete(fields, grid.KeyField)
		records[i] = fields
	}
	return records
}

// =============================================================================
// PERSISTER
// =============================================================================

// Persister is the grid's owner: it saves every notified row list.
type Persister struct {
	store   Store
	timeout time.Duration

	mu      sync.Mutex
	saves   int
	lastErr error
}

// NewPersister returns an owner that writes to store.
func NewPersister(store Store) *Persister {
	return &Persister{store: store, timeout: 10 * time.Second}
}

// OnChange is a grid.ChangeFunc. Save failures are logged and kept for
// Err; the grid's state is not rolled back.
func (p *Persister) OnChange(rows grid.RowList) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.store.Save(ctx, rows)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		log.Printf("SAVE_FAILED | path=%s rows=%d error=%v", p.store.Path(), len(rows), err)
		return
	}
	p.saves++
	log.Printf("ROWS_SAVED | path=%s rows=%d", p.store.Path(), len(rows))
}

// Err returns the result of the most recent save.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Saves returns the number of successful saves.
func (p *Persister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Store returns the underlying store.
func (p *Persister) Store() Store {
	return p.store
}
