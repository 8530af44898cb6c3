// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdShell
	CmdShow
	CmdAdd
	CmdSet
	CmdDelete
	CmdImport
	CmdExport
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command word.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdShell:
		return "shell"
	case CmdShow:
		return "show"
	case CmdAdd:
		return "add"
	case CmdSet:
		return "set"
	case CmdDelete:
		return "delete"
	case CmdImport:
		return "import"
	case CmdExport:
		return "export"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	// Backend and DataPath override storage.backend and storage.path.
	Backend  string
	DataPath string

	// Name is the command word as typed, kept for error messages.
	Name string

	// Raw args (remaining after the command word)
	Raw []string
}

// Parser returns a flag parser over the command's arguments.
func (a Args) Parser() *ArgParser {
	return NewArgParser(a.Raw, "confirm", "no-keys")
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `gridedit - edit a list of rows from the terminal

Usage:
  gridedit                          Start the TUI (default)
  gridedit tui                      Start the TUI
  gridedit shell                    Line-mode shell with history
  gridedit show                     Print the rows
  gridedit add                      Append a row built from the template
  gridedit set <key> <field> <value>
                                    Edit one cell (validated)
  gridedit delete <key> --confirm   Delete a row
  gridedit import <file.xlsx>       Append rows from a spreadsheet
  gridedit export                   Export the rows
    --format json|md|xlsx           Export format (default: json)
    --output FILE                   Write to FILE (default: stdout, xlsx: generated name)
    --no-keys                       Leave the row key column out
  gridedit history [<id>]           List sqlite revisions, or print one
  gridedit config show              Show the configuration
  gridedit config get <key>         Print one setting
  gridedit config set <key> <value> Change one setting
  gridedit config path              Print the config file path
  gridedit version                  Show version information
  gridedit help                     Show this help

Global Flags:
  --json            Output in JSON format
  -q, --quiet       Minimal output
  -v, --verbose     Log to stderr
  --data PATH       Row file (overrides storage.path)
  --backend NAME    json or sqlite (overrides storage.backend)

Examples:
  gridedit set 1 name "front door"
  gridedit set 2 value 40
  gridedit delete 3 --confirm
  gridedit export --format md --output rows.md
  gridedit --backend sqlite history

Version: %s
`

// Usage returns the usage text.
func Usage() string {
	return fmt.Sprintf(usageText, Version)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv without the program name.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	parsed.Name = strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch parsed.Name {
	case "tui", "ui":
		return CmdTUI, parsed
	case "shell", "sh":
		return CmdShell, parsed
	case "show", "ls", "list":
		return CmdShow, parsed
	case "add", "new":
		return CmdAdd, parsed
	case "set", "edit":
		return CmdSet, parsed
	case "delete", "del", "rm":
		return CmdDelete, parsed
	case "import":
		return CmdImport, parsed
	case "export":
		return CmdExport, parsed
	case "history", "revisions":
		return CmdHistory, parsed
	case "config":
		return CmdConfig, parsed
	case "version", "--version", "-V":
		return CmdVersion, parsed
	case "help", "--help", "-h":
		return CmdHelp, parsed
	}
	return CmdUnknown, parsed
}

// parseGlobalFlags pulls global flags out of args wherever they appear.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--":
			return append(remaining, args[i:]...), parsed
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--data", "--backend":
			if i+1 < len(args) {
				i++
				if arg == "--data" {
					parsed.DataPath = args[i]
				} else {
					parsed.Backend = args[i]
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--data="):
				parsed.DataPath = strings.TrimPrefix(arg, "--data=")
			case strings.HasPrefix(arg, "--backend="):
				parsed.Backend = strings.TrimPrefix(arg, "--backend=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, parsed
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// HandleVersion writes version information, as JSON with --json.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	fmt.Fprintf(w, "gridedit version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	return nil
}

// HandleHelp writes the usage text. On a terminal it is rendered as
// markdown.
func HandleHelp(w io.Writer) {
	if !IsStdoutTTY() {
		fmt.Fprint(w, Usage())
		return
	}
	md := "```\n" + Usage() + "```\n"
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		fmt.Fprint(w, Usage())
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, Usage())
		return
	}
	fmt.Fprint(w, out)
}
