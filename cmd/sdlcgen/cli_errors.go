// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/jllopis/sdlcgen/pkg/errors"
)

// CLIError wraps SDLCError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.SDLCError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(se *errors.SDLCError, hint string) *CLIError {
	return &CLIError{
		SDLCError: se,
		Hint:      hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.SDLCError == nil {
		return "unknown error"
	}
	msg := e.SDLCError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

func (e *CLIError) Unwrap() error {
	return e.SDLCError
}

// NewConfigError wraps a configuration loading failure.
func NewConfigError(err error) *CLIError {
	se := errors.New(errors.CodeConfig, "failed to load configuration", err)
	return NewCLIError(se, "check --config, --set values and SDLCGEN_* variables")
}

// hintFor returns a remediation hint for a code.
func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.CodeIntakeRejected:
		return "select at most the allowed number of PDF, DOCX, PPTX, TXT, MD or CSV files"
	case errors.CodeReadFailure:
		return "check that the file exists and is readable"
	case errors.CodeLLMError:
		return "the analysis service failed; try again or use fewer or smaller files"
	case errors.CodeConfig:
		return "set GEMINI_API_KEY or --set llm.api_key=..., or use --set llm.provider=mock"
	case errors.CodeTimeout:
		return "raise llm.timeout or set it to 0 to wait indefinitely"
	default:
		return ""
	}
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeInternal:
		return "Internal Error"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeIntakeRejected:
		return "File Rejected"
	case errors.CodeReadFailure:
		return "Read Failure"
	case errors.CodeLLMError:
		return "Analysis Failed"
	case errors.CodeConfig:
		return "Configuration Error"
	case errors.CodeTimeout:
		return "Timeout"
	default:
		return string(code)
	}
}

// PrintError writes err to w. Coded errors get their code and a hint;
// anything else is printed as is.
func PrintError(w io.Writer, err error, asJSON bool) {
	var cli *CLIError
	var se *errors.SDLCError
	hint := ""
	switch {
	case stderrors.As(err, &cli) && cli.SDLCError != nil:
		se, hint = cli.SDLCError, cli.Hint
	case stderrors.As(err, &se):
		hint = hintFor(se.Code)
	}

	if se == nil {
		if asJSON {
			writeJSONError(w, "UNKNOWN", err.Error(), "")
			return
		}
		fmt.Fprintf(w, "Error: %s\n", err)
		return
	}

	msg := errors.UserMessage(se)
	if se.Err != nil && se.Code == errors.CodeConfig {
		msg = fmt.Sprintf("%s: %v", msg, se.Err)
	}
	if asJSON {
		writeJSONError(w, string(se.Code), msg, hint)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", FormatErrorCode(se.Code), msg)
	if hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", hint)
	}
}

func writeJSONError(w io.Writer, code, message, hint string) {
	payload := map[string]map[string]string{
		"error": {"code": code, "message": message},
	}
	if hint != "" {
		payload["error"]["hint"] = hint
	}
	_ = json.NewEncoder(w).Encode(payload)
}
