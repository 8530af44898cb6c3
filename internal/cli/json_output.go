// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"

	"github.com/jeranaias/gridedit/internal/grid"
)

// JSONResponse is the envelope for --json output.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w, syntax highlighted when colors are
// enabled.
func (r *JSONResponse) Write(w io.Writer) error {
	return writeJSON(w, r)
}

// writeJSON indents v and highlights it for color terminals.
func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if !ColorsEnabled() {
		_, err := w.Write(buf.Bytes())
		return err
	}
	formatter := "terminal256"
	if GetColorProfile() == termenv.TrueColor {
		formatter = "terminal16m"
	}
	if err := quick.Highlight(w, buf.String(), "json", formatter, "monokai"); err != nil {
		_, err = w.Write(buf.Bytes())
		return err
	}
	return nil
}

// =============================================================================
// RESPONSE DATA
// =============================================================================

// RowsData is the payload of show, add, set, delete and import.
type RowsData struct {
	Rows    grid.RowList `json:"rows"`
	Count   int          `json:"count"`
	Counter int          `json:"counter"`
	Keys    []grid.Key   `json:"keys,omitempty"`
}

// VersionData is the payload of version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// RevisionData describes one stored revision.
type RevisionData struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Rows      int    `json:"rows"`
}
