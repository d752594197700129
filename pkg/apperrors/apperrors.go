package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients. These are stable contract values, not
// HTTP statuses.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidState      = "INVALID_STATE"
	CodeBusy              = "RESOURCE_BUSY"
	CodeInternal          = "INTERNAL"
)

// Error carries a client-facing code and message alongside the wrapped cause.
// The cause is logged, never serialized.
type Error struct {
	Code    string            `json:"code"`
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(requested, available int64) *Error {
	return &Error{
		Code:    CodeInsufficientStock,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("requested %d exceeds available %d", requested, available),
	}
}

// InvalidState reports a reservation transition attempted outside ACTIVE.
// currentStatus lets the caller reconcile instead of retrying blindly.
func InvalidState(currentStatus string) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Status:  http.StatusConflict,
		Message: "reservation is not active",
		Details: map[string]string{"current_status": currentStatus},
	}
}

// Busy reports a per-pair lock that could not be acquired in time. Callers
// should retry after a short delay.
func Busy() *Error {
	return &Error{Code: CodeBusy, Status: http.StatusServiceUnavailable, Message: "resource busy, please retry"}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal error", Err: err}
}

// From extracts an *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
