// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GRIDEDIT_HOME", dir)
	for _, k := range []string{
		"GRIDEDIT_STORAGE_BACKEND", "GRIDEDIT_STORAGE_PATH", "GRIDEDIT_WATCH",
		"GRIDEDIT_MISSING_ROW_POLICY", "GRIDEDIT_THEME", "GRIDEDIT_LOG", "GRIDEDIT_VERBOSE",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c := Default()
			c.UI.Theme = "dark"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

func TestConfig_GlobalInitialization(t *testing.T) {
	dir := isolate(t)
	ResetGlobalForTesting()

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, filepath.Join(dir, "rows.json"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(dir, "gridedit.log"), cfg.Log.Path)

	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)
	assert.Equal(t, "light", Global().UI.Theme)
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.Grid.CounterSeed)
	assert.Equal(t, "fail", cfg.Grid.MissingRowPolicy)
	assert.True(t, cfg.Grid.EscapeCancelsEdit)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)

	tmpl := cfg.Template()
	assert.Equal(t, grid.Fields{"name": "dooring 7", "value": 32}, tmpl(7))
	assert.Equal(t, grid.PolicyFail, cfg.Policy())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative seed", func(c *Config) { c.Grid.CounterSeed = -1 }, "grid.counter_seed"},
		{"bad policy", func(c *Config) { c.Grid.MissingRowPolicy = "ignore" }, "grid.missing_row_policy"},
		{"name without verb", func(c *Config) { c.Grid.NewRowName = "row" }, "grid.new_row_name"},
		{"rule on unknown field", func(c *Config) { c.Grid.Rules = map[string]string{"nope": "true"} }, "grid.rules.nope"},
		{"rule on action column", func(c *Config) { c.Grid.Rules = map[string]string{"operation": "true"} }, "grid.rules.operation"},
		{"broken rule", func(c *Config) { c.Grid.Rules = map[string]string{"value": "value >"} }, "grid.rules.value"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	cfg := Default()
	cfg.Grid.Rules = map[string]string{"value": "value >= 0", "name": "len(value) <= 40"}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadTOMLKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[grid]
counter_seed = 100
missing_row_policy = "overwrite_last"

[grid.rules]
value = "value >= 0"

[grid.messages]
value = "Value must not be negative."

[storage]
backend = "sqlite"
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Grid.CounterSeed)
	assert.Equal(t, grid.PolicyOverwriteLast, cfg.Policy())
	assert.True(t, cfg.Grid.EscapeCancelsEdit, "unset keys keep defaults")
	assert.Equal(t, "dooring %d", cfg.Grid.NewRowName)
	assert.Equal(t, filepath.Join(dir, "rows.db"), cfg.Storage.Path)

	col, ok := cfg.Schema().Column("value")
	require.True(t, ok)
	assert.Equal(t, "value >= 0", col.Rule)
	assert.Equal(t, "Value must not be negative.", col.Message)

	opts := cfg.Options(nil)
	assert.Equal(t, 100, opts.CounterSeed)
	assert.Equal(t, grid.PolicyOverwriteLast, opts.MissingRow)
}

func TestConfig_LoadJSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"ui": {"theme": "light"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.True(t, cfg.UI.ShowHelpBar)
	assert.True(t, cfg.UI.CursorBlink)
}

func TestConfig_LoadInvalidFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[storage]\nbackend = \"redis\"\n"), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GRIDEDIT_STORAGE_BACKEND", "SQLite")
	t.Setenv("GRIDEDIT_WATCH", "false")
	t.Setenv("GRIDEDIT_VERBOSE", "yes")
	t.Setenv("GRIDEDIT_MISSING_ROW_POLICY", "overwrite_last")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.False(t, cfg.Storage.Watch)
	assert.True(t, cfg.Log.Verbose)
	assert.Equal(t, grid.PolicyOverwriteLast, cfg.Policy())
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("grid.counter_seed", "5"))
	require.NoError(t, cfg.Set("grid.escape-cancels-edit", "false"))
	require.NoError(t, cfg.Set("ui.theme", "dark"))
	require.NoError(t, cfg.Set("grid.rules.value", "value > 0"))

	v, err := cfg.Get("grid.counter_seed")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.False(t, cfg.Grid.EscapeCancelsEdit)
	assert.Equal(t, "dark", cfg.UI.Theme)

	v, err = cfg.Get("grid.rules.value")
	require.NoError(t, err)
	assert.Equal(t, "value > 0", v)

	require.NoError(t, cfg.Set("grid.rules.value", ""))
	_, err = cfg.Get("grid.rules.value")
	assert.Error(t, err)

	_, err = cfg.Get("grid.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("grid.counter_seed", "many"))
	assert.Error(t, cfg.Set("", "x"))
	assert.Error(t, cfg.Set("ui.theme.extra.deep", "x"))

	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Grid.CounterSeed = 9
	cfg.Grid.Rules = map[string]string{"value": "value >= 0"}
	require.NoError(t, Save(cfg))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Grid.CounterSeed)
	assert.Equal(t, "value >= 0", loaded.Grid.Rules["value"])

	jsonPath := filepath.Join(dir, "alt.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 9, fromJSON.Grid.CounterSeed)
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Default()
	cfg.Grid.Rules = map[string]string{"value": "value >= 0"}
	clone := cfg.Clone()
	clone.Grid.Rules["value"] = "true"
	assert.Equal(t, "value >= 0", cfg.Grid.Rules["value"])
	assert.Contains(t, cfg.String(), "[grid]")
}
