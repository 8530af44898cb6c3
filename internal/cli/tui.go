// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gridedit/internal/storage"
	"github.com/jeranaias/gridedit/internal/ui/gridview"
	"github.com/jeranaias/gridedit/internal/ui/styles"
	"github.com/jeranaias/gridedit/internal/watch"
)

// HandleTUI starts the full-screen grid.
func HandleTUI(args Args) error {
	if err := RequiresTTY("start the TUI"); err != nil {
		return err
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	// The screen belongs to Bubble Tea, so the log goes to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0700); err == nil {
		if f, err := tea.LogToFile(cfg.Log.Path, "gridedit"); err == nil {
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
		}
	}

	s, err := OpenSession(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := gridview.Options{
		Title:             filepath.Base(s.Store.Path()),
		EscapeCancelsEdit: cfg.Grid.EscapeCancelsEdit,
		ShowHelpBar:       cfg.UI.ShowHelpBar,
		StaticCursor:      !cfg.UI.CursorBlink,
	}
	if cfg.Storage.Watch {
		if src, ok := s.Store.(storage.Watchable); ok {
			w, err := startWatcher(src.Path())
			if err != nil {
				log.Printf("WATCH_FAILED | path=%s error=%v", src.Path(), err)
			} else {
				defer w.Close()
				opts.Source = src
				opts.Events = w.Events()
			}
		}
	}

	m := gridview.New(s.Controller, styles.NewTheme(strings.ToLower(cfg.UI.Theme)), opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	log.Printf("TUI_EXIT | rows=%d saves=%d", s.Controller.Len(), s.Persister.Saves())
	return s.Saved()
}

func startWatcher(path string) (*watch.Watcher, error) {
	w, err := watch.New(path, watch.DefaultDebounce)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
