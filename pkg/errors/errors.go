// Package errors provides structured error types for the vectorize service.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every failure of the vectorize pipeline maps onto one code:
//   - INVALID_IMAGE: the image bytes could not be decoded
//   - INVALID_INPUT: bad parameter, missing image source, bad URL scheme
//   - PAYLOAD_TOO_LARGE: upload or remote body exceeds the size cap
//   - FETCH_FAILED / TIMEOUT: remote image download failed
//   - UNAUTHORIZED: missing or wrong API token
//   - MALFORMED_SVG: the style post-processor got non-well-formed XML
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "threshold out of range: %d", v)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidImage Code = "INVALID_IMAGE"
	ErrCodeTooLarge     Code = "PAYLOAD_TOO_LARGE"
	ErrCodeMalformedSVG Code = "MALFORMED_SVG"

	// Remote fetch errors
	ErrCodeFetch   Code = "FETCH_FAILED"
	ErrCodeTimeout Code = "TIMEOUT"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

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

// InvalidImage reports bytes the image codec could not decode.
func InvalidImage(cause error) *Error {
	return Wrap(ErrCodeInvalidImage, cause, "invalid image")
}

// MalformedSVG reports an SVG document that is not well-formed XML.
func MalformedSVG(cause error) *Error {
	return Wrap(ErrCodeMalformedSVG, cause, "malformed svg")
}

// Unauthorized reports a missing or mismatching API token.
func Unauthorized() *Error {
	return New(ErrCodeUnauthorized, "unauthorized")
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
