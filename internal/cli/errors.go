// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/gridedit/internal/config"
	"github.com/jeranaias/gridedit/internal/export"
	"github.com/jeranaias/gridedit/internal/grid"
	"github.com/jeranaias/gridedit/internal/sheet"
	"github.com/jeranaias/gridedit/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid arguments or a rejected cell value
	ExitUsageError = 2
	// ExitConfigError indicates an invalid configuration
	ExitConfigError = 3
	// ExitNotFoundError indicates a missing row, file or revision
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid command-line input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument reports a missing positional argument with its usage.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "argument is required",
		Example: usage,
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON error response in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var cellErr *grid.ValidationError
	var sheetErr *sheet.CellError
	var ttyErr *TTYRequiredError
	var configErr config.ValidateErrors
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &cellErr),
		errors.As(err, &sheetErr),
		errors.As(err, &ttyErr),
		errors.Is(err, grid.ErrNotEditable),
		errors.Is(err, grid.ErrUnknownColumn),
		errors.Is(err, grid.ErrNoPendingDelete),
		errors.Is(err, grid.ErrGridEmpty),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, sheet.ErrMissingColumn),
		errors.Is(err, sheet.ErrNoMatchingColumns):
		return ExitUsageError
	case errors.As(err, &configErr),
		errors.Is(err, storage.ErrUnknownBackend):
		return ExitConfigError
	case errors.Is(err, grid.ErrRowNotFound),
		errors.Is(err, storage.ErrRevisionNotFound),
		errors.Is(err, sheet.ErrNoSheet):
		return ExitNotFoundError
	}
	return ExitGeneralError
}
