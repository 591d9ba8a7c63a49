package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeInvalidProfile ErrorType = "invalid_profile"
	ErrorTypeRequest        ErrorType = "request"
	ErrorTypeAlreadyLoaded  ErrorType = "already_loaded"
	ErrorTypeMalformedPage  ErrorType = "malformed_page"
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeParsing        ErrorType = "parsing"
)

// Error represents a VSCO client error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("vsco %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Is reports whether target is an *Error of the same type, so sentinels
// below can be matched with errors.Is regardless of message or code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for errors.Is
var (
	ErrInvalidProfile = &Error{Type: ErrorTypeInvalidProfile}
	ErrRequest        = &Error{Type: ErrorTypeRequest}
	ErrAlreadyLoaded  = &Error{Type: ErrorTypeAlreadyLoaded}
	ErrMalformedPage  = &Error{Type: ErrorTypeMalformedPage}
	ErrNetwork        = &Error{Type: ErrorTypeNetwork}
	ErrParsing        = &Error{Type: ErrorTypeParsing}
)

// New creates an Error of the given type
func New(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// IsInvalidProfile reports whether err means the profile does not exist
func IsInvalidProfile(err error) bool {
	return stderrors.Is(err, ErrInvalidProfile)
}

// IsRequest reports whether err came from an unexpected HTTP status
func IsRequest(err error) bool {
	return stderrors.Is(err, ErrRequest)
}

// IsAlreadyLoaded reports whether err is a double-population of an image payload
func IsAlreadyLoaded(err error) bool {
	return stderrors.Is(err, ErrAlreadyLoaded)
}

// IsMalformedPage reports whether the gallery page state could not be extracted
func IsMalformedPage(err error) bool {
	return stderrors.Is(err, ErrMalformedPage)
}

// TypeOf returns the ErrorType carried by err, or "" if err is not an *Error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}
