// Package faults defines the error categories the rest of queuectl
// branches on: the CLI maps them to exit codes and the proxy maps them
// to HTTP statuses, so failure handling never matches message text.
package faults

import "errors"

type ErrorCategory string

const (
	// ValidationError: the input is malformed or an operation was
	// attempted in a state that forbids it.
	ValidationError ErrorCategory = "ValidationError"
	// NotFoundError: the queue does not exist upstream.
	NotFoundError ErrorCategory = "NotFoundError"
	// ConflictError: the operation collides with concurrent state.
	ConflictError ErrorCategory = "ConflictError"
	// AuthError: the token was rejected or could not be obtained.
	AuthError ErrorCategory = "AuthError"
	// TransportError: the remote API could not be reached or answered
	// outside its contract.
	TransportError ErrorCategory = "TransportError"
	// InternalError: everything else, including untyped errors.
	InternalError ErrorCategory = "InternalError"
)

// TypedError is the one error type queuectl produces on purpose.
type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{Category: category, Message: message, Cause: cause}
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		return e.Message + ": " + e.Cause.Error()
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsCategory reports whether err, anywhere in its chain, carries the
// given category.
func IsCategory(err error, category ErrorCategory) bool {
	return err != nil && CategoryOf(err) == category
}

// CategoryOf reports the category of err, or InternalError when err
// carries no typed category.
func CategoryOf(err error) ErrorCategory {
	var typedErr *TypedError
	if errors.As(err, &typedErr) {
		return typedErr.Category
	}
	return InternalError
}
