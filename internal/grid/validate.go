// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a cell-local commit failure. It never reaches the
// grid's owner.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validator turns an edit buffer into the value stored in the row.
// Implementations may block (e.g. a remote lookup) and must honor ctx.
type Validator interface {
	Validate(ctx context.Context, col Column, row Row, buffer string) (any, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, col Column, row Row, buffer string) (any, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, col Column, row Row, buffer string) (any, error) {
	return f(ctx, col, row, buffer)
}

// DefaultValidator normalizes the buffer to NFC, enforces required fields,
// parses number columns and evaluates the column's expr rule.
type DefaultValidator struct {
	programs sync.Map // rule -> *vm.Program
}

// NewDefaultValidator returns a validator with an empty rule cache.
func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{}
}

// Validate implements Validator.
func (v *DefaultValidator) Validate(ctx context.Context, col Column, row Row, buffer string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := norm.NFC.String(buffer)
	if strings.TrimSpace(text) == "" {
		if col.Required() {
			return nil, v.fail(col, fmt.Sprintf("%s is required.", col.Name))
		}
		return text, nil
	}

	value, err := parseKind(col, text)
	if err != nil {
		return nil, v.fail(col, err.Error())
	}

	if col.Rule != "" {
		ok, err := v.evalRule(col.Rule, value, row)
		if err != nil {
			return nil, &ValidationError{Field: col.FieldID, Message: fmt.Sprintf("%s: rule error: %v", col.Name, err)}
		}
		if !ok {
			return nil, v.fail(col, fmt.Sprintf("%s does not satisfy %q.", col.Name, col.Rule))
		}
	}
	return value, nil
}

func (v *DefaultValidator) fail(col Column, msg string) error {
	if col.Message != "" {
		msg = col.Message
	}
	return &ValidationError{Field: col.FieldID, Message: msg}
}

// parseKind converts the buffer according to the column kind.
func parseKind(col Column, text string) (any, error) {
	if col.Kind != KindNumber {
		return text, nil
	}
	n, err := ParseNumber(text)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number.", col.Name)
	}
	return n, nil
}

// evalRule runs a boolean expr-lang rule with `value` and `row` in scope.
func (v *DefaultValidator) evalRule(rule string, value any, row Row) (bool, error) {
	program, err := v.compile(rule)
	if err != nil {
		return false, err
	}
	env := map[string]any{
		"value": value,
		"row":   map[string]any(row.Fields.Clone()),
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q evaluated to %T, expected bool", rule, out)
	}
	return b, nil
}

func (v *DefaultValidator) compile(rule string) (*vm.Program, error) {
	if cached, ok := v.programs.Load(rule); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(rule)
	if err != nil {
		return nil, err
	}
	v.programs.Store(rule, program)
	return program, nil
}

// CheckRule compiles a rule without evaluating it. Config validation uses it
// to reject malformed rules up front.
func CheckRule(rule string) error {
	_, err := expr.Compile(rule)
	return err
}
