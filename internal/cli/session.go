// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/gridedit/internal/config"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/storage"
)

// =============================================================================
// CONFIG LOADING
// =============================================================================

// LoadConfig loads the configuration and applies the global flag overrides.
// A broken config file falls back to defaults with a warning on stderr.
func LoadConfig(args Args) (*config.Config, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil && !args.Quiet && !args.JSON {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+fmt.Sprintf("%v (using defaults)", err))
	}

	if args.Backend != "" && args.Backend != cfg.Storage.Backend {
		cfg.Storage.Backend = args.Backend
		// The default file name follows the backend.
		if base := filepath.Base(cfg.Storage.Path); base == "rows.json" || base == "rows.db" {
			cfg.Storage.Path = ""
		}
	}
	if args.DataPath != "" {
		cfg.Storage.Path = args.DataPath
	}
	if args.Verbose {
		cfg.Log.Verbose = true
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetupLogging points the standard logger at stderr when verbose, and
// discards it otherwise.
func SetupLogging(cfg *config.Config) {
	log.SetFlags(log.LstdFlags)
	if cfg.Log.Verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is an open row store with a controller whose owner persists
// every change.
type Session struct {
	Config     *config.Config
	Store      storage.Store
	Persister  *storage.Persister
	Controller *grid.Controller
}

// OpenSession opens the configured store, loads its rows and builds the
// controller.
func OpenSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	records, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load rows: %w", err)
	}

	p := storage.NewPersister(store)
	ctrl := grid.NewController(records, cfg.Options(p.OnChange))
	log.Printf("SESSION_OPENED | backend=%s path=%s rows=%d", cfg.Storage.Backend, store.Path(), ctrl.Len())

	return &Session{
		Config:     cfg,
		Store:      store,
		Persister:  p,
		Controller: ctrl,
	}, nil
}

// Saved returns the error of the last save triggered by a mutation.
func (s *Session) Saved() error {
	if err := s.Persister.Err(); err != nil {
		return fmt.Errorf("save rows: %w", err)
	}
	return nil
}

// Close closes the store.
func (s *Session) Close() error {
	return s.Store.Close()
}

// withSession loads the config, opens a session and runs fn.
func withSession(args Args, fn func(s *Session) error) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	SetupLogging(cfg)
	s, err := OpenSession(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
