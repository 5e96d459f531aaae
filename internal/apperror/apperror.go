// Package apperror defines the error taxonomy surfaced by the HTTP layer.
// Services and repositories return these so handlers can map every failure
// onto the uniform response envelope without inspecting error strings.
package apperror

import (
	"errors"
	"net/http"
)

// Code identifies the failure class independently of the HTTP status.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalidToken Code = "invalid_token"
	CodeTokenReused  Code = "token_reused"
	CodeNotFound     Code = "not_found"
	CodeRateLimited  Code = "rate_limited"
	CodeInternal     Code = "internal"
)

// Error carries a failure class, the HTTP status it maps to, a client-safe
// message, and the wrapped cause for logging.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports missing or malformed input (400).
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

// Conflict reports a uniqueness violation (409).
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: message}
}

// Unauthorized reports missing or failed authentication (401).
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// InvalidToken reports a token whose claims do not resolve to a known user (401).
func InvalidToken(message string) *Error {
	return &Error{Code: CodeInvalidToken, Status: http.StatusUnauthorized, Message: message}
}

// TokenReuse reports presentation of a refresh token that has already been
// rotated away (401). Distinct from InvalidToken so reuse can be logged as a
// security signal.
func TokenReuse(message string) *Error {
	return &Error{Code: CodeTokenReused, Status: http.StatusUnauthorized, Message: message}
}

// NotFound reports a missing record (404).
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// RateLimited reports a caller exceeding the request budget (429).
func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: message}
}

// Internal reports an unexpected failure (500), wrapping the cause.
func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// From coerces any error into an *Error, defaulting to Internal so unknown
// failures never leak their text to clients.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("something went wrong", err)
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
