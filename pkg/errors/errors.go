package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures by how an export run must react to them
type ErrorType string

const (
	// ErrorTypeProcessing marks a per-item failure. It is recorded in the
	// checkpoint and never aborts the run.
	ErrorTypeProcessing ErrorType = "processing"
	// ErrorTypeSource marks a failure to fetch the next page from the
	// message source. Fatal to the current run; the checkpoint stays valid.
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeCheckpoint marks a corrupt or unwritable checkpoint record.
	// Fatal and surfaced to the operator, never treated as an empty record.
	ErrorTypeCheckpoint ErrorType = "checkpoint"

	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeNotFound  ErrorType = "not_found"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error carries the failure classification alongside the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without an underlying cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown when err
// carries no type information.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err (or anything it wraps) has the given type
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeSource:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeProcessing, ErrorTypeCheckpoint:
		return false
	default:
		return false
	}
}
