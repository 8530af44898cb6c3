// gridedit - edit a list of rows in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/gridedit/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = cli.HandleTUI(args)
	case cli.CmdShell:
		err = cli.HandleShell(args)
	case cli.CmdShow, cli.CmdAdd, cli.CmdSet, cli.CmdDelete,
		cli.CmdImport, cli.CmdExport, cli.CmdHistory:
		err = cli.HandleRows(cmd, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(os.Stdout, args)
	case cli.CmdHelp:
		cli.HandleHelp(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Name)
		fmt.Fprint(os.Stderr, cli.Usage())
		os.Exit(cli.ExitUsageError)
	}

	if err != nil {
		w := os.Stderr
		if args.JSON {
			w = os.Stdout
		}
		cli.DisplayError(w, cmd.String(), err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}
