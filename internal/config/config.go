// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for gridedit.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.gridedit/config.toml
//   - ~/.gridedit/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gridedit configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Grid    GridConfig    `toml:"grid" json:"grid"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// GridConfig controls the grid controller.
type GridConfig struct {
	// CounterSeed is the lowest key minted for added rows.
	CounterSeed int `toml:"counter_seed" json:"counter_seed"`
	// MissingRowPolicy is "fail" or "overwrite_last".
	MissingRowPolicy string `toml:"missing_row_policy" json:"missing_row_policy"`
	// EscapeCancelsEdit makes Esc discard the buffer instead of committing it.
	EscapeCancelsEdit bool `toml:"escape_cancels_edit" json:"escape_cancels_edit"`
	// NewRowName is the name format for added rows; %d receives the key.
	NewRowName  string `toml:"new_row_name" json:"new_row_name"`
	NewRowValue int    `toml:"new_row_value" json:"new_row_value"`
	// Rules maps a field ID to an expression that must evaluate to true.
	Rules map[string]string `toml:"rules" json:"rules,omitempty"`
	// Messages maps a field ID to the message shown when its rule fails.
	Messages map[string]string `toml:"messages" json:"messages,omitempty"`
}

// StorageConfig selects where the row list is persisted.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Path    string `toml:"path" json:"path"`
	Watch   bool   `toml:"watch" json:"watch"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme"`
	ShowHelpBar bool   `toml:"show_help_bar" json:"show_help_bar"`
	CursorBlink bool   `toml:"cursor_blink" json:"cursor_blink"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	Path    string `toml:"path" json:"path"`
	Verbose bool   `toml:"verbose" json:"verbose"`
}

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a configuration with all default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Grid: GridConfig{
			CounterSeed:       0,
			MissingRowPolicy:  grid.PolicyFail.String(),
			EscapeCancelsEdit: true,
			NewRowName:        "dooring %d",
			NewRowValue:       32,
		},
		Storage: StorageConfig{
			Backend: BackendJSON,
			Watch:   true,
		},
		UI: UIConfig{
			Theme:       "auto",
			ShowHelpBar: true,
			CursorBlink: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the gridedit configuration directory path.
// GRIDEDIT_HOME overrides the default of ~/.gridedit.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GRIDEDIT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gridedit"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg, err := LoadFromPath(jsonPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = errors.Join(loadErr, err)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Keys absent from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# gridedit configuration file")
	fmt.Fprintln(&buf, "# Generated by gridedit - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Grid.CounterSeed < 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.counter_seed",
			Message: fmt.Sprintf("cannot be negative, got %d", c.Grid.CounterSeed),
		})
	}

	if _, err := grid.ParseMissingRowPolicy(c.Grid.MissingRowPolicy); err != nil {
		errs = append(errs, ValidationError{
			Field:   "grid.missing_row_policy",
			Message: fmt.Sprintf("invalid policy '%s', must be one of: fail, overwrite_last", c.Grid.MissingRowPolicy),
		})
	}

	if !strings.Contains(c.Grid.NewRowName, "%d") {
		errs = append(errs, ValidationError{
			Field:   "grid.new_row_name",
			Message: fmt.Sprintf("format '%s' must contain %%d", c.Grid.NewRowName),
		})
	}

	schema := grid.DefaultSchema()
	for _, field := range sortedKeys(c.Grid.Rules) {
		col, ok := schema.Column(field)
		if !ok || !col.Editable {
			errs = append(errs, ValidationError{
				Field:   "grid.rules." + field,
				Message: "no editable column with this field",
			})
			continue
		}
		if err := grid.CheckRule(c.Grid.Rules[field]); err != nil {
			errs = append(errs, ValidationError{
				Field:   "grid.rules." + field,
				Message: err.Error(),
			})
		}
	}

	validBackends := map[string]bool{BackendJSON: true, BackendSQLite: true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: json, sqlite", c.Storage.Backend),
		})
	}

	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills values that must never be empty. Paths are resolved
// relative to the config directory.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Grid.MissingRowPolicy == "" {
		c.Grid.MissingRowPolicy = defaults.Grid.MissingRowPolicy
	}
	if c.Grid.NewRowName == "" {
		c.Grid.NewRowName = defaults.Grid.NewRowName
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	dir, err := ConfigDir()
	if err != nil {
		return
	}
	if c.Storage.Path == "" {
		name := "rows.json"
		if c.Storage.Backend == BackendSQLite {
			name = "rows.db"
		}
		c.Storage.Path = filepath.Join(dir, name)
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "gridedit.log")
	}
}

// =============================================================================
// GRID ACCESSORS
// =============================================================================

// Policy returns the parsed missing-row policy. Validate has already
// rejected unknown values, so an unparsable value falls back to PolicyFail.
func (c *Config) Policy() grid.MissingRowPolicy {
	p, err := grid.ParseMissingRowPolicy(c.Grid.MissingRowPolicy)
	if err != nil {
		return grid.PolicyFail
	}
	return p
}

// Schema returns the default schema with the configured rules applied.
func (c *Config) Schema() grid.Schema {
	return grid.DefaultSchema().WithRules(c.Grid.Rules, c.Grid.Messages)
}

// Template returns the row template for added rows.
func (c *Config) Template() grid.Template {
	return grid.NewTemplate(c.Grid.NewRowName, c.Grid.NewRowValue)
}

// Options returns controller options wired to this configuration.
func (c *Config) Options(onChange grid.ChangeFunc) grid.Options {
	return grid.Options{
		Schema:      c.Schema(),
		OnChange:    onChange,
		Template:    c.Template(),
		CounterSeed: c.Grid.CounterSeed,
		MissingRow:  c.Policy(),
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GRIDEDIT_STORAGE_BACKEND: overrides storage.backend
//   - GRIDEDIT_STORAGE_PATH: overrides storage.path
//   - GRIDEDIT_WATCH: set to "0" or "false" to disable file watching
//   - GRIDEDIT_MISSING_ROW_POLICY: overrides grid.missing_row_policy
//   - GRIDEDIT_THEME: overrides ui.theme
//   - GRIDEDIT_LOG: overrides log.path
//   - GRIDEDIT_VERBOSE: set to "1" or "true" to enable verbose logging
func (c *Config) ApplyEnvOverrides() {
	if backend := os.Getenv("GRIDEDIT_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv("GRIDEDIT_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if watch := os.Getenv("GRIDEDIT_WATCH"); watch != "" {
		c.Storage.Watch = parseBool(watch)
	}
	if policy := os.Getenv("GRIDEDIT_MISSING_ROW_POLICY"); policy != "" {
		c.Grid.MissingRowPolicy = policy
	}
	if theme := os.Getenv("GRIDEDIT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if path := os.Getenv("GRIDEDIT_LOG"); path != "" {
		c.Log.Path = path
	}
	if verbose := os.Getenv("GRIDEDIT_VERBOSE"); verbose != "" {
		c.Log.Verbose = parseBool(verbose)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "grid.counter_seed").
// Map-valued settings accept one more segment naming the map key
// (e.g., "grid.rules.value").
func (c *Config) Get(key string) (interface{}, error) {
	field, mapKey, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if mapKey == "" {
		return field.Interface(), nil
	}
	v := field.MapIndex(reflect.ValueOf(mapKey))
	if !v.IsValid() {
		return nil, fmt.Errorf("unknown field: %s", key)
	}
	return v.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "storage.backend").
func (c *Config) Set(key string, value interface{}) error {
	field, mapKey, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	if mapKey == "" {
		return setFieldValue(field, value)
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot set %s: map values must be strings", key)
	}
	if field.IsNil() {
		field.Set(reflect.MakeMap(field.Type()))
	}
	if s == "" {
		field.SetMapIndex(reflect.ValueOf(mapKey), reflect.Value{})
		return nil
	}
	field.SetMapIndex(reflect.ValueOf(mapKey), reflect.ValueOf(s))
	return nil
}

// lookup walks a dotted key to a settable field. When the key runs one
// segment past a map field, that segment is returned as mapKey.
func (c *Config) lookup(key string) (reflect.Value, string, error) {
	if key == "" {
		return reflect.Value{}, "", errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, "", fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		switch {
		case i == len(parts)-1:
			return field, "", nil
		case field.Kind() == reflect.Map && i == len(parts)-2:
			return field, parts[i+1], nil
		case field.Kind() == reflect.Struct:
			v = field
		default:
			return reflect.Value{}, "", fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}
	return reflect.Value{}, "", fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"grid.counter_seed",
		"grid.missing_row_policy",
		"grid.escape_cancels_edit",
		"grid.new_row_name",
		"grid.new_row_value",
		"storage.backend",
		"storage.path",
		"storage.watch",
		"ui.theme",
		"ui.show_help_bar",
		"ui.cursor_blink",
		"log.path",
		"log.verbose",
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Grid.Rules = cloneMap(c.Grid.Rules)
	clone.Grid.Messages = cloneMap(c.Grid.Messages)
	return &clone
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if cfg == nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return err
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
