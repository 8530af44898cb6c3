// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/gridedit/internal/config"
	"github.com/jeranaias/gridedit/internal/grid"
)

// shellCommands are completed on tab.
var shellCommands = []string{"show", "add", "set", "delete", "import", "export", "history", "help", "quit"}

const shellHelp = `Commands:
  show                         Print the rows
  add                          Append a row
  set <key> <field> <value>    Edit one cell
  delete <key>                 Delete a row (asks first)
  import <file.xlsx>           Append rows from a spreadsheet
  export [--format F] [--output FILE]
  history [<id>]               sqlite revisions
  help                         This text
  quit                         Leave the shell
`

// =============================================================================
// SHELL
// =============================================================================

// Shell is a line-mode editor over a session with history and completion.
type Shell struct {
	session *Session
	out     io.Writer
	line    *liner.State
	history string

	// ask answers the delete confirmation.
	ask func(prompt string) (bool, error)
}

// HandleShell handles "gridedit shell".
func HandleShell(args Args) error {
	if err := RequiresTTY("start the shell"); err != nil {
		return err
	}
	return withSession(args, func(s *Session) error {
		sh := NewShell(s, os.Stdout)
		defer sh.Close()
		return sh.Run()
	})
}

// NewShell creates a shell reading from the terminal.
func NewShell(s *Session, out io.Writer) *Shell {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	sh := &Shell{
		session: s,
		out:     out,
		line:    line,
		history: filepath.Join(dir, "shell_history"),
	}
	sh.ask = func(prompt string) (bool, error) {
		answer, err := sh.line.Prompt(prompt)
		if err != nil {
			return false, err
		}
		return isYes(answer), nil
	}

	if f, err := os.Open(sh.history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return sh
}

// Close saves history and restores the terminal.
func (sh *Shell) Close() {
	if sh.line == nil {
		return
	}
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(sh.history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			sh.line.WriteHistory(f)
			f.Close()
		}
	}
	sh.line.Close()
}

// Run reads commands until quit, Ctrl+C or EOF.
func (sh *Shell) Run() error {
	fmt.Fprintf(sh.out, "%s %s\n", TitleStyle.Render("gridedit shell"), DimStyle.Render("("+sh.session.Store.Path()+")"))
	fmt.Fprintln(sh.out, RenderSeparator(min(GetTerminalWidth(), 60)))
	fmt.Fprintln(sh.out, DimStyle.Render("Type help for commands."))

	for {
		input, err := sh.line.Prompt("gridedit> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		sh.line.AppendHistory(input)

		quit, err := sh.Exec(input)
		if err != nil {
			fmt.Fprintln(sh.out, ErrorStyle.Render("Error: ")+err.Error())
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports true when the shell should exit.
func (sh *Shell) Exec(input string) (bool, error) {
	words, err := splitWords(input)
	if err != nil {
		return false, err
	}
	if len(words) == 0 {
		return false, nil
	}
	s, w := sh.session, sh.out
	cmd, rest := strings.ToLower(words[0]), words[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(w, shellHelp)
		return false, nil
	case "show", "ls":
		return false, runShow(s, w, false)
	case "add":
		return false, runAdd(s, w, Args{})
	case "set":
		if len(rest) < 3 {
			return false, ErrMissingArgument("key, field and value", "set 1 name \"front door\"")
		}
		return false, runSet(s, w, Args{}, grid.Key(rest[0]), rest[1], strings.Join(rest[2:], " "))
	case "delete", "rm":
		if len(rest) < 1 {
			return false, ErrMissingArgument("key", "delete 3")
		}
		key := grid.Key(rest[0])
		_, present := s.Controller.Rows().Find(key)
		deleted, err := deleteRow(s, key, func() (bool, error) {
			return sh.ask(fmt.Sprintf("Delete row %s? [y/N] ", key))
		})
		if err != nil {
			return false, err
		}
		fmt.Fprintln(w, deleteMessage(key, deleted, present))
		return false, nil
	case "import":
		if len(rest) < 1 {
			return false, ErrMissingArgument("file", "import rows.xlsx")
		}
		return false, runImport(s, w, Args{}, rest[0])
	case "export":
		return false, runExport(s, w, Args{}, NewArgParser(rest, "no-keys"))
	case "history":
		id := ""
		if len(rest) > 0 {
			id = rest[0]
		}
		return false, runHistory(s, w, Args{}, id)
	}
	return false, fmt.Errorf("unknown command %q (type help)", cmd)
}

func completeCommand(line string) []string {
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

// splitWords splits a command line on spaces. Single or double quotes
// group words; a backslash escapes the next character.
func splitWords(s string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		quote   rune
		inWord  bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
