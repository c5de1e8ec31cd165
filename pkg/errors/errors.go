// Package errors provides structured error types for manifest resolution.
//
// This package defines error codes and types that enable:
//   - Consistent classification of resolution failures
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with document context preservation
//
// # Error Codes
//
// Codes follow the taxonomy of the resolution pipeline:
//   - DOCUMENT_SYNTAX: the raw document could not be parsed
//   - FIELD_CONFLICT: mutually exclusive fields were set together
//   - MISSING_REQUIREMENT: a required piece of information is absent
//   - RESERVED_NAME: a profile name is reserved
//   - GATE_NOT_ENABLED: an experimental construct was used without opting in
//   - INHERITANCE: a workspace field could not be inherited
//   - INVALID_*: any other validation failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFieldConflict, "cannot specify both [replace] and [patch]")
//	if errors.Is(err, errors.ErrCodeFieldConflict) {
//	    // Handle conflict
//	}
//
//	// Wrap collaborator errors with the document path
//	err := errors.Wrap(errors.ErrCodeDocumentSyntax, origErr, "failed to parse manifest at `%s`", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Document errors
	ErrCodeDocumentSyntax Code = "DOCUMENT_SYNTAX"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Validation errors
	ErrCodeFieldConflict      Code = "FIELD_CONFLICT"
	ErrCodeMissingRequirement Code = "MISSING_REQUIREMENT"
	ErrCodeReservedName       Code = "RESERVED_NAME"
	ErrCodeGateNotEnabled     Code = "GATE_NOT_ENABLED"
	ErrCodeInheritance        Code = "INHERITANCE"
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidManifest    Code = "INVALID_MANIFEST"
	ErrCodeInvalidPackage     Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

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

// Context wraps err with an additional message while keeping the code of
// the innermost *Error. Errors without a code are classified as invalid
// manifests.
func Context(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	code := GetCode(err)
	if code == "" {
		code = ErrCodeInvalidManifest
	}
	return Wrap(code, err, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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
// For *Error types, the code prefixes are dropped along the whole chain.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + "\n\nCaused by:\n  " + UserMessage(e.Cause)
}

// GateError is returned when an experimental capability is used without
// being enabled for the current resolution.
type GateError struct {
	Feature  string // Capability name
	Guidance string // How to enable it
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return fmt.Sprintf("feature `%s` is required\n\n%s", e.Feature, e.Guidance)
}

// Code returns the error code for this error type.
func (e *GateError) Code() Code {
	return ErrCodeGateNotEnabled
}

// GateNotEnabled builds a coded error for a missing capability gate.
func GateNotEnabled(feature, guidance string) *Error {
	gate := &GateError{Feature: feature, Guidance: guidance}
	return &Error{Code: ErrCodeGateNotEnabled, Message: "capability gate not enabled", Cause: gate}
}
