// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Replaced in tests.
var (
	confirmInput       io.Reader = os.Stdin
	confirmInteractive           = IsTTY
)

// ErrConfirmationRequired is returned when a destructive action cannot
// prompt and --confirm was not given.
var ErrConfirmationRequired = errors.New("confirmation required: use --confirm")

// RequireConfirmation checks if the user has confirmed a destructive action.
//
//  1. --confirm proceeds without prompting
//  2. JSON mode and non-terminal stdin require --confirm
//  3. Otherwise the user is asked on out
func RequireConfirmation(out io.Writer, confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if jsonMode || !confirmInteractive() {
		return false, ErrConfirmationRequired
	}

	fmt.Fprintf(out, "Are you sure you want to %s? [y/N]: ", action)
	input, err := bufio.NewReader(confirmInput).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return isYes(input), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
