package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// AppError represents an orchestration failure with a taxonomy code
type AppError struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Internal error       `json:"-"`
	Details  interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches any AppError carrying the same code, so errors.Is(err, ErrBusy) works on
// errors built by the constructors below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Error codes
const (
	ErrCodePrecondition = "PRECONDITION"
	ErrCodeNetwork      = "NETWORK"
	ErrCodeValidation   = "VALIDATION"
	ErrCodeBusy         = "BUSY"
	ErrCodeSuperseded   = "SUPERSEDED"
)

// Sentinels for errors.Is
var (
	ErrPrecondition = &AppError{Code: ErrCodePrecondition}
	ErrNetwork      = &AppError{Code: ErrCodeNetwork}
	ErrValidation   = &AppError{Code: ErrCodeValidation}
	ErrBusy         = &AppError{Code: ErrCodeBusy}
	ErrSuperseded   = &AppError{Code: ErrCodeSuperseded}
)

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Internal: err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Precondition reports missing local input. Such errors never reach the network.
func Precondition(message string, details interface{}) *AppError {
	return New(ErrCodePrecondition, message).WithDetails(details)
}

// Network reports a transport failure or a non-success response
func Network(message string, err error) *AppError {
	return Wrap(err, ErrCodeNetwork, message)
}

// Validation reports a payload the service rejected
func Validation(message string, err error) *AppError {
	return Wrap(err, ErrCodeValidation, message)
}

// Busy reports a mutation rejected because another one is in flight
func Busy(resource string) *AppError {
	return New(ErrCodeBusy, fmt.Sprintf("another %s change is still in progress", resource))
}

// Superseded reports a response discarded because a newer request was issued
func Superseded(operation string, seq uint64) *AppError {
	return New(ErrCodeSuperseded, fmt.Sprintf("%s response #%d superseded by a newer request", operation, seq))
}

// FromRemote classifies an error returned by the service client
func FromRemote(message string, err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) && apiErr.IsValidationError() {
		return Validation(message, err)
	}
	// Transport failures, cancellation, timeouts and every other status.
	return Network(message, err)
}

// CodeOf returns the taxonomy code of err, or "" when err is not an AppError
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
