// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/util"
)

// =============================================================================
// JSON STORE
// =============================================================================

// JSONStore keeps the row list as a JSON array of flat objects:
//
//	[{"key": "0", "name": "a", "value": 1}]
type JSONStore struct {
	path string

	mu   sync.Mutex
	last []byte // bytes most recently read or written
}

// NewJSONStore creates a store for path, creating its directory.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("json store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &JSONStore{path: path}, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the file. A missing file is an empty grid.
func (s *JSONStore) Load(ctx context.Context) ([]grid.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := decodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	s.mu.Lock()
	s.last = data
	s.mu.Unlock()
	return records, nil
}

// Save writes rows atomically.
func (s *JSONStore) Save(ctx context.Context, rows grid.RowList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rows == nil {
		rows = grid.RowList{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := util.AtomicWriteFile(s.path, data, 0644); err != nil {
		return err
	}
	s.last = data
	return nil
}

// Changed reports whether the file was modified by someone else since this
// store last touched it. A missing file is unchanged.
func (s *JSONStore) Changed() (bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(data, s.last), nil
}

// Close is a no-op.
func (s *JSONStore) Close() error {
	return nil
}

func decodeRows(data []byte) ([]grid.Fields, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return recordsOf(raw), nil
}
