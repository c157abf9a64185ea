package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by who is at fault, which drives the HTTP status the
// checkout handlers pick.
type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindProcessorRejected    Kind = "PROCESSOR_REJECTED"
	KindProcessorUnavailable Kind = "PROCESSOR_UNAVAILABLE"
	KindInternal             Kind = "INTERNAL"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation wraps a caller-side input problem.
func Validation(message string, err error) *Error {
	return New(http.StatusBadRequest, KindValidation, message, err)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}
