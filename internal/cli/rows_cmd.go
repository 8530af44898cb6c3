// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/gridedit/internal/export"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
	"github.com/jeranaias/gridedit/internal/storage"
	"github.com/jeranaias/gridedit/internal/util"
)

// commitTimeout bounds validation of a cell edited from the command line.
const commitTimeout = 10 * time.Second

// =============================================================================
// HANDLERS
// =============================================================================

// HandleRows runs one of the row commands against the configured store.
func HandleRows(cmd Command, args Args) error {
	p := args.Parser()
	return withSession(args, func(s *Session) error {
		w := os.Stdout
		switch cmd {
		case CmdShow:
			return runShow(s, w, args.JSON)
		case CmdAdd:
			return runAdd(s, w, args)
		case CmdSet:
			if p.PositionalCount() < 3 {
				return ErrMissingArgument("key, field and value", "gridedit set 1 name \"front door\"")
			}
			value := strings.Join(p.PositionalFrom(2), " ")
			return runSet(s, w, args, grid.Key(p.Positional(0)), p.Positional(1), value)
		case CmdDelete:
			if p.PositionalCount() < 1 {
				return ErrMissingArgument("key", "gridedit delete 3 --confirm")
			}
			return runDelete(s, w, args, grid.Key(p.Positional(0)), p.BoolFlag("confirm"))
		case CmdImport:
			if p.PositionalCount() < 1 {
				return ErrMissingArgument("file", "gridedit import rows.xlsx")
			}
			return runImport(s, w, args, p.Positional(0))
		case CmdExport:
			return runExport(s, w, args, p)
		case CmdHistory:
			return runHistory(s, w, args, p.Positional(0))
		}
		return fmt.Errorf("unknown command: %s", cmd)
	})
}

// =============================================================================
// SHOW
// =============================================================================

func runShow(s *Session, w io.Writer, jsonMode bool) error {
	if jsonMode {
		return NewJSONResponse("show", rowsData(s.Controller, nil)).Write(w)
	}
	printRows(w, s.Controller.Schema(), s.Controller.Rows())
	return nil
}

// printRows writes rows as an aligned table with the key first.
func printRows(w io.Writer, schema grid.Schema, rows grid.RowList) {
	cols := schema.DataColumns()
	if len(rows) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(no rows)"))
		return
	}

	keyWidth := len("Key")
	for _, row := range rows {
		keyWidth = max(keyWidth, util.StringWidth(string(row.Key)))
	}
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = util.StringWidth(col.Name)
		for _, row := range rows {
			widths[i] = max(widths[i], util.StringWidth(displayValue(row, col)))
		}
		widths[i] = min(widths[i], 40)
	}

	header := []string{util.FitWidth("Key", keyWidth)}
	for i, col := range cols {
		header = append(header, util.FitWidth(col.Name, widths[i]))
	}
	fmt.Fprintln(w, HeaderStyle.Render(strings.Join(header, "  ")))

	for _, row := range rows {
		line := []string{util.FitWidth(string(row.Key), keyWidth)}
		for i, col := range cols {
			line = append(line, util.FitWidth(displayValue(row, col), widths[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, "  "), " "))
	}
}

func displayValue(row grid.Row, col grid.Column) string {
	if col.Render != nil {
		return util.SingleLine(col.Render(row.Get(col.FieldID), row))
	}
	return util.SingleLine(grid.FormatValue(row.Get(col.FieldID)))
}

func rowsData(ctrl *grid.Controller, keys []grid.Key) RowsData {
	rows := ctrl.Rows()
	return RowsData{Rows: rows, Count: len(rows), Counter: ctrl.Counter(), Keys: keys}
}

// =============================================================================
// MUTATIONS
// =============================================================================

func runAdd(s *Session, w io.Writer, args Args) error {
	key := s.Controller.Add()
	if err := s.Saved(); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("add", rowsData(s.Controller, []grid.Key{key})).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintln(w, SuccessStyle.Render("Added row ")+string(key))
	}
	return nil
}

// runSet edits one cell the way the grid does: begin, type, commit.
func runSet(s *Session, w io.Writer, args Args, key grid.Key, field, value string) error {
	ctrl := s.Controller
	col, err := resolveColumn(ctrl.Schema(), field)
	if err != nil {
		return err
	}
	if _, err := ctrl.BeginEdit(key, col.FieldID); err != nil {
		return err
	}
	if err := ctrl.SetBuffer(key, col.FieldID, value); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	if err := ctrl.Commit(ctx, key, col.FieldID); err != nil {
		_ = ctrl.CancelEdit(key, col.FieldID)
		return err
	}
	if err := s.Saved(); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("set", rowsData(ctrl, []grid.Key{key})).Write(w)
	}
	if !args.Quiet {
		row, _ := ctrl.Rows().Find(key)
		fmt.Fprintf(w, "%s%s %s = %s\n", SuccessStyle.Render("Updated row "), key, col.FieldID, displayValue(row, col))
	}
	return nil
}

// resolveColumn accepts a field ID or a column name.
func resolveColumn(schema grid.Schema, field string) (grid.Column, error) {
	if col, ok := schema.Column(field); ok {
		return col, nil
	}
	for _, col := range schema {
		if strings.EqualFold(col.FieldID, field) || strings.EqualFold(col.Name, field) {
			return col, nil
		}
	}
	return grid.Column{}, fmt.Errorf("%w: %s", grid.ErrUnknownColumn, field)
}

// runDelete deletes key after --confirm or an interactive yes.
func runDelete(s *Session, w io.Writer, args Args, key grid.Key, confirmFlag bool) error {
	_, present := s.Controller.Rows().Find(key)
	deleted, err := deleteRow(s, key, func() (bool, error) {
		return RequireConfirmation(w, confirmFlag, fmt.Sprintf("delete row %s", key), args.JSON)
	})
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("delete", rowsData(s.Controller, []grid.Key{key})).Write(w)
	}
	if args.Quiet {
		return nil
	}
	fmt.Fprintln(w, deleteMessage(key, deleted, present))
	return nil
}

func deleteMessage(key grid.Key, deleted, present bool) string {
	switch {
	case !deleted:
		return "Canceled."
	case !present:
		return DimStyle.Render("No row " + string(key) + ", nothing removed")
	}
	return SuccessStyle.Render("Deleted row ") + string(key)
}

// deleteRow goes through the confirmation gate: request, ask, then confirm
// or cancel. A false answer or an error from ask cancels. A key with no row
// is confirmed like any other and leaves the rows unchanged.
func deleteRow(s *Session, key grid.Key, ask func() (bool, error)) (bool, error) {
	ctrl := s.Controller
	if err := ctrl.RequestDelete(key); err != nil {
		return false, err
	}

	ok, err := ask()
	if err != nil || !ok {
		ctrl.CancelDelete()
		return false, err
	}
	if err := ctrl.ConfirmDelete(key); err != nil {
		return false, err
	}
	return true, s.Saved()
}

func runImport(s *Session, w io.Writer, args Args, path string) error {
	records, err := sheet.Import(path, s.Controller.Schema())
	if err != nil {
		return NewCommandError("import", path, err)
	}
	keys := s.Controller.Import(records)
	if err := s.Saved(); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("import", rowsData(s.Controller, keys)).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s%d rows from %s\n", SuccessStyle.Render("Imported "), len(keys), path)
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// runExport writes the rows in the requested format. Without --output the
// text formats go to w and xlsx gets a generated file name.
func runExport(s *Session, w io.Writer, args Args, p *ArgParser) error {
	output := p.Flag("output")
	format := p.Flag("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	if format == "" {
		format = "json"
	}

	opts := export.DefaultOptions()
	opts.IncludeKeys = !p.BoolFlag("no-keys")
	exporter, err := export.New(format, opts)
	if err != nil {
		return err
	}

	schema, rows := s.Controller.Schema(), s.Controller.Rows()
	if output == "-" || (output == "" && exporter.FileExtension() != ".xlsx") {
		content, err := exporter.Export(schema, rows)
		if err != nil {
			return err
		}
		_, err = w.Write(content)
		return err
	}

	path, err := export.ExportToFile(schema, rows, exporter, output, opts)
	if err != nil {
		return NewCommandError("export", format, err)
	}
	if args.JSON {
		return NewJSONResponse("export", map[string]any{"path": path, "count": len(rows)}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s%d rows to %s\n", SuccessStyle.Render("Exported "), len(rows), path)
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// runHistory lists the sqlite revisions, or prints the rows of one.
func runHistory(s *Session, w io.Writer, args Args, id string) error {
	db, ok := s.Store.(*storage.SQLiteStore)
	if !ok {
		return NewValidationError("storage.backend", s.Config.Storage.Backend, "history needs the sqlite backend")
	}
	ctx := context.Background()

	if id != "" {
		records, err := db.LoadRevision(ctx, id)
		if err != nil {
			return err
		}
		rows := grid.Initialize(records)
		if args.JSON {
			return NewJSONResponse("history", RowsData{Rows: rows, Count: len(rows)}).Write(w)
		}
		printRows(w, s.Controller.Schema(), rows)
		return nil
	}

	revs, err := db.Revisions(ctx)
	if err != nil {
		return err
	}
	if args.JSON {
		data := make([]RevisionData, len(revs))
		for i, r := range revs {
			data[i] = RevisionData{ID: r.ID, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339), Rows: r.RowCount}
		}
		return NewJSONResponse("history", data).Write(w)
	}
	if len(revs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(no revisions)"))
		return nil
	}
	fmt.Fprintln(w, HeaderStyle.Render(fmt.Sprintf("%-36s  %-19s  %s", "ID", "Saved", "Rows")))
	for _, r := range revs {
		fmt.Fprintf(w, "%-36s  %-19s  %d\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.RowCount)
	}
	return nil
}
