// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/gridedit/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()
	w, err := New(path, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	w := startWatcher(t, path)

	// Several quick writes collapse into one event.
	for i := 0; i < 3; i++ {
		require.NoError(t, util.AtomicWriteFile(path, []byte(`[{"name":"x"}]`), 0644))
	}

	select {
	case ev := <-w.Events():
		assert.Equal(t, w.Path(), ev.Path)
		assert.False(t, ev.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for replaced file")
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected second event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, filepath.Join(dir, "rows.json"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	w := startWatcher(t, path)

	require.NoError(t, os.Remove(path))
	select {
	case ev := <-w.Events():
		assert.True(t, ev.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for removed file")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("", 0)
	assert.Error(t, err)
}
