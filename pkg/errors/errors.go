// Package errors defines the error values shared by the storefront's
// services and HTTP layer. An *AppError carries the code and status that
// reach the client; sentinels let callers match with errors.Is.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for the error classes the API distinguishes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrUnprocessable  = errors.New("unprocessable")
	ErrServiceUnavail = errors.New("service unavailable")
)

var sentinelStatus = map[error]int{
	ErrNotFound:       http.StatusNotFound,
	ErrInvalidInput:   http.StatusBadRequest,
	ErrConflict:       http.StatusConflict,
	ErrUnprocessable:  http.StatusUnprocessableEntity,
	ErrServiceUnavail: http.StatusServiceUnavailable,
}

// AppError is an error with a client-facing code, message and HTTP status.
// Err is the cause; it is logged, never sent.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// New builds an AppError. Domain packages use it for their own codes,
// e.g. PRODUCT_NOT_FOUND.
func New(status int, code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is a 404 NOT_FOUND.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, "NOT_FOUND", message, ErrNotFound)
}

// InvalidInput is a 400 INVALID_INPUT.
func InvalidInput(message string) *AppError {
	return New(http.StatusBadRequest, "INVALID_INPUT", message, ErrInvalidInput)
}

// Conflict is a 409 CONFLICT.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

// Unprocessable is a 422 with a domain code such as EMPTY_CART. A nil
// cause defaults to ErrUnprocessable.
func Unprocessable(code, message string, cause error) *AppError {
	if cause == nil {
		cause = ErrUnprocessable
	}
	return New(http.StatusUnprocessableEntity, code, message, cause)
}

// ServiceUnavailable is a 503 SERVICE_UNAVAILABLE. A nil cause defaults to
// ErrServiceUnavail.
func ServiceUnavailable(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrServiceUnavail
	}
	return New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, cause)
}

// HTTPStatus returns the status of the first AppError in err's chain, else
// the status of a matching sentinel, else 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for sentinel, status := range sentinelStatus {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return http.StatusInternalServerError
}
