// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/gridedit/internal/config"
)

// HandleConfig handles "gridedit config show|get|set|path".
func HandleConfig(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	p := args.Parser()
	return runConfig(cfg, os.Stdout, args, p.Positional(0), p.PositionalFrom(1))
}

func runConfig(cfg *config.Config, w io.Writer, args Args, sub string, rest []string) error {
	switch strings.ToLower(sub) {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(w)
		}
		fmt.Fprint(w, cfg.String())
		return nil

	case "get":
		if len(rest) < 1 {
			return ErrMissingArgument("key", "gridedit config get storage.backend")
		}
		v, err := cfg.Get(rest[0])
		if err != nil {
			return NewValidationError("key", rest[0], err.Error())
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]any{"key": rest[0], "value": v}).Write(w)
		}
		fmt.Fprintln(w, v)
		return nil

	case "set":
		if len(rest) < 2 {
			return ErrMissingArgument("key and value", "gridedit config set ui.theme dark")
		}
		key, raw := rest[0], strings.Join(rest[1:], " ")
		next := cfg.Clone()
		if err := next.Set(key, raw); err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
		if err := config.Save(next); err != nil {
			return NewCommandError("config", "save", err)
		}
		config.SetGlobal(next)
		if args.JSON {
			return NewJSONResponse("config set", map[string]any{"key": key, "value": raw}).Write(w)
		}
		if !args.Quiet {
			fmt.Fprintf(w, "%s%s = %s\n", SuccessStyle.Render("Set "), key, raw)
		}
		return nil

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Write(w)
		}
		fmt.Fprintln(w, path)
		return nil

	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(w, k)
		}
		return nil
	}
	return NewValidationError("subcommand", sub, "expected show, get, set, path or keys")
}
