// Package errors defines the flat error taxonomy shared by the data layer.
//
// Every failure is returned as a value carrying an ErrorCode so callers can
// branch on it with [errors.Is] against one of the sentinel values below.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	// ErrRowNotFound is returned by a single-row read that matched nothing.
	ErrRowNotFound ErrorCode = "PGRST116"
	// ErrFunctionNotFound is returned when an RPC name is not registered.
	ErrFunctionNotFound ErrorCode = "PGRST202"

	// ErrUnauthorized is returned when an operation needs a session.
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrMissingField is returned when a required argument is empty.
	ErrMissingField ErrorCode = "MISSING_FIELD"
	// ErrRateLimited is returned when too many attempts were made.
	ErrRateLimited ErrorCode = "RATE_LIMITED"

	// ErrStorageError is returned when local storage cannot be read or written.
	ErrStorageError ErrorCode = "STORAGE_ERROR"
	// ErrStorageCorrupt is returned when a local storage value does not parse.
	ErrStorageCorrupt ErrorCode = "STORAGE_CORRUPT"
)

// Error is a concrete error type with a code, message and optional details.
type Error struct {
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		code:    code,
		message: message,
	}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the message without the wrapped cause.
func (e *Error) Message() string {
	return e.message
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return ""
}

// Is reports whether any error in err's chain matches target, so callers
// need only this package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Sentinels usable with errors.Is.
var (
	RowNotFound      = New(ErrRowNotFound, "Row not found")
	FunctionNotFound = New(ErrFunctionNotFound, "Function not found")
	NotAuthenticated = New(ErrUnauthorized, "Not authenticated")
	RateLimited      = New(ErrRateLimited, "Too many attempts")
	StorageCorrupt   = New(ErrStorageCorrupt, "Local storage value is corrupt")
)

// NotFound creates a row not found error for the table.
func NotFound(table string) *Error {
	return New(ErrRowNotFound, "Row not found").WithDetail("table", table)
}

// MissingField creates an error for an empty required argument.
func MissingField(fieldName string) *Error {
	return New(ErrMissingField, fmt.Sprintf("%s is required", fieldName))
}

// Unauthorized creates a not authenticated error.
func Unauthorized() *Error {
	return New(ErrUnauthorized, "Not authenticated")
}

// UnknownFunction creates an error for an unregistered RPC.
func UnknownFunction(name string) *Error {
	return New(ErrFunctionNotFound, fmt.Sprintf("Could not find the function %s", name)).WithDetail("function", name)
}

// Storage wraps a local storage I/O failure.
func Storage(message string, err error) *Error {
	return New(ErrStorageError, message).Wrap(err)
}

// Corrupt wraps a local storage decoding failure.
func Corrupt(key string, err error) *Error {
	return New(ErrStorageCorrupt, fmt.Sprintf("local storage key %q is corrupt", key)).Wrap(err)
}

// TooManyAttempts creates a rate limit error for key.
func TooManyAttempts(key string, retryAfter time.Duration) *Error {
	return New(ErrRateLimited, "Too many attempts, try again later").
		WithDetail("key", key).
		WithDetail("retry_after", retryAfter.String())
}
