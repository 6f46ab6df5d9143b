// SPDX-License-Identifier: Apache-2.0
// Package errors provides the typed run-level errors surfaced to users of the
// generator. Every error that reaches a surface (web, CLI, MCP) is converted to
// a single user-visible message with UserMessage.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies errors for monitoring and for mapping to status codes.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeIntakeRejected indicates a file batch failed intake validation.
	CodeIntakeRejected ErrorCode = "INTAKE_REJECTED"

	// CodeReadFailure indicates a selected file's bytes could not be read.
	CodeReadFailure ErrorCode = "READ_FAILURE"

	// CodeLLMError indicates the analysis service failed or returned
	// unusable output.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeConfig indicates required configuration is missing.
	CodeConfig ErrorCode = "CONFIG_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"
)

// GenericMessage is shown when an error carries no user-facing message.
const GenericMessage = "an unknown error occurred during generation"

// SDLCError is a typed error with context for logs and traces.
// It implements the error interface and can be unwrapped with errors.As().
type SDLCError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *SDLCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *SDLCError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *SDLCError) MarshalJSON() ([]byte, error) {
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		Message     string                 `json:"message"`
		Code        string                 `json:"code"`
		Err         string                 `json:"error,omitempty"`
		Recoverable bool                   `json:"recoverable"`
		StatusCode  int                    `json:"status_code"`
		Context     map[string]interface{} `json:"context,omitempty"`
	}{
		Message:     e.Message,
		Code:        string(e.Code),
		Err:         cause,
		Recoverable: e.Recoverable,
		StatusCode:  e.StatusCode,
		Context:     e.Context,
	})
}

// New creates a new SDLCError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *SDLCError {
	return &SDLCError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *SDLCError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *SDLCError) WithContext(key string, value interface{}) *SDLCError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *SDLCError) WithAttribute(key, value string) *SDLCError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the user can correct the error and retry.
func (e *SDLCError) WithRecoverable(recoverable bool) *SDLCError {
	e.Recoverable = recoverable
	return e
}

// As returns the first SDLCError in err's chain. Errors of other types are
// wrapped as CodeInternal.
func As(err error) *SDLCError {
	if err == nil {
		return nil
	}
	var se *SDLCError
	if stderrors.As(err, &se) {
		return se
	}
	return New(CodeInternal, GenericMessage, err)
}

// Is reports whether err carries an SDLCError with the given code.
func Is(err error, code ErrorCode) bool {
	var se *SDLCError
	return stderrors.As(err, &se) && se.Code == code
}

// UserMessage returns the single message shown to a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	se := As(err)
	if se.Message == "" {
		return GenericMessage
	}
	return se.Message
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *SDLCError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeInvalidInput, CodeIntakeRejected:
		return 400
	case CodeReadFailure:
		return 422
	case CodeLLMError:
		return 502
	case CodeConfig:
		return 503
	case CodeTimeout:
		return 504
	default:
		return 500
	}
}
