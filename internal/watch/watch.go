// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports when a single file is changed on disk.
package watch

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must be quiet before an event fires.
const DefaultDebounce = 200 * time.Millisecond

// Event is a debounced change of the watched file.
type Event struct {
	Path string
	// Removed is set when the last observed operation deleted the file.
	Removed bool
}

// =============================================================================
// FILE WATCHER
// =============================================================================

// Watcher watches one file. It watches the parent directory so atomic
// replace-by-rename is seen as a change of the file.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	events   chan Event

	mu      sync.Mutex
	pending bool
	last    time.Time
	removed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for path. Call Start to begin delivering events.
func New(path string, debounce time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce,
		events:   make(chan Event, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Events delivers debounced changes. The channel closes after Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

// processEvents records changes to the watched file.
func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.removed = event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WATCH_ERROR | path=%s error=%v", w.path, err)
		}
	}
}

// processPending emits one event once the file has been quiet for the
// debounce interval.
func (w *Watcher) processPending() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending && time.Since(w.last) >= w.debounce
			ev := Event{Path: w.path, Removed: w.removed}
			if fire {
				w.pending = false
			}
			w.mu.Unlock()

			if !fire {
				continue
			}
			select {
			case w.events <- ev:
			case <-w.ctx.Done():
				return
			default:
				// An undelivered event is already queued; it covers this one.
			}
		}
	}
}
