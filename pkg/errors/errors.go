// Package errors provides structured error types for the audit.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes group into the categories the audit distinguishes:
//   - Configuration errors (INVALID_CONFIG, INVALID_TIE_EVENT, CYCLIC_TIE_BREAK,
//     INCONSISTENT_TIE_BREAK, UNKNOWN_CANDIDATE): contradictory or malformed
//     election data. Fatal at construction time and never retried.
//   - Input errors (INVALID_INPUT, INVALID_BALLOT, MALFORMED_MATRIX): data that
//     does not have the expected shape.
//   - Collaborator errors (SOURCE, CHECKPOINT, NOT_FOUND): failures reported by
//     ballot sources and checkpoint stores.
//   - INTERNAL: unexpected internal errors.
//
// An audit that samples every ballot without reaching the stability
// threshold is not an error; see audit.StatusFullCount.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCyclicTieBreak, "decisions for %v form a cycle", ids)
//	if errors.Is(err, errors.ErrCodeCyclicTieBreak) {
//	    // Reject the tie-breaking data
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSource, origErr, "draw %d ballots", k)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidConfig        Code = "INVALID_CONFIG"
	ErrCodeInvalidTieEvent      Code = "INVALID_TIE_EVENT"
	ErrCodeCyclicTieBreak       Code = "CYCLIC_TIE_BREAK"
	ErrCodeInconsistentTieBreak Code = "INCONSISTENT_TIE_BREAK"
	ErrCodeUnknownCandidate     Code = "UNKNOWN_CANDIDATE"

	// Input errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidBallot   Code = "INVALID_BALLOT"
	ErrCodeMalformedMatrix Code = "MALFORMED_MATRIX"

	// Collaborator errors
	ErrCodeSource     Code = "SOURCE"
	ErrCodeCheckpoint Code = "CHECKPOINT"
	ErrCodeNotFound   Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsConfiguration reports whether err belongs to the configuration category:
// tie-breaking data or contest setup that can never succeed as given.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeInvalidTieEvent, ErrCodeCyclicTieBreak,
		ErrCodeInconsistentTieBreak, ErrCodeUnknownCandidate:
		return true
	}
	return false
}
