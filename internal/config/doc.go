// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for gridedit.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - GridConfig: Counter seed, missing-row policy, new-row template, field rules
//   - StorageConfig: Persistence backend (json or sqlite) and file watching
//   - UIConfig: Theme and help bar
//   - LogConfig: Diagnostic log destination
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GRIDEDIT_*)
//   - ~/.gridedit/config.toml
//   - ~/.gridedit/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Build a grid controller from it:
//
//	ctrl := grid.NewController(records, cfg.Options(store.OnChange))
package config
