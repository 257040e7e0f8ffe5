package viewtree

import (
	"errors"
	"fmt"
)

// Code classifies a tree error.
type Code string

// Error codes.
const (
	// ErrCodeStructural marks tree-shape violations: adding the root as a
	// child, out-of-range child indices, cycles, unresolvable patch paths.
	ErrCodeStructural Code = "STRUCTURAL"
	// ErrCodeNaming marks ref/tag case violations.
	ErrCodeNaming Code = "NAMING_CONVENTION"
	// ErrCodeResource marks texture load/decode failures. These are
	// delivered as EventTextureError, never returned from tree operations.
	ErrCodeResource Code = "RESOURCE"
	// ErrCodeType marks a value of the wrong type for a property.
	ErrCodeType Code = "TYPE"
	// ErrCodeInvalidSettings marks malformed settings documents.
	ErrCodeInvalidSettings Code = "INVALID_SETTINGS"
	// ErrCodeNotFound marks lookups of unknown property paths or refs.
	ErrCodeNotFound Code = "NOT_FOUND"
)

// Error is a structured tree error. Location is the LocationString of the
// view the error was raised on, when known.
type Error struct {
	Code     Code
	Message  string
	Location string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := "viewtree: " + string(e.Code)
	if e.Location != "" {
		s += " (" + e.Location + ")"
	}
	s += ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code, so a bare
// &Error{Code: ErrCodeNaming} works as an errors.Is target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// viewError creates an error located at v.
func viewError(v *View, code Code, format string, args ...any) *Error {
	e := newError(code, format, args...)
	if v != nil {
		e.Location = v.LocationString()
	}
	return e
}

// IsCode reports whether err (or anything it wraps) is an *Error with code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// ErrorCode extracts the code from err, or "" if err is not an *Error.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
