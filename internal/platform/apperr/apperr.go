// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error type that crosses the service to HTTP boundary.

Services return an [*AppError] for every outcome the client should see. Its
code and status come from a fixed table, so the same failure always renders
the same way. Anything else that reaches [respond.Error] is treated as a 500.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

// Machine-readable error codes rendered in the "code" member of error bodies.
const (
	CodeBadInput           = "BAD_INPUT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeGone               = "GONE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// MsgInternal is the only message a client ever sees for a 500.
const MsgInternal = "An unexpected error occurred"

var statusByCode = map[string]int{
	CodeBadInput:           http.StatusBadRequest,
	CodeValidation:         http.StatusBadRequest,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeGone:               http.StatusGone,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

// # Error Type

// AppError carries a client-safe message next to the status it renders with.
// Cause is logged server-side and never serialized.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError is one failed field of a VALIDATION_ERROR response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newError(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: statusByCode[code]}
}

// Error returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap exposes Cause to [errors.Is] and [errors.As].
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// BadInput is a 400 for missing or malformed request data.
func BadInput(msg string) *AppError { return newError(CodeBadInput, msg) }

// ValidationError is a 400 listing the offending fields.
func ValidationError(msg string, details ...FieldError) *AppError {
	err := newError(CodeValidation, msg)
	err.Details = details
	return err
}

// Forbidden is a 403: bad credentials, invalid tokens, unknown users at login.
func Forbidden(msg string) *AppError { return newError(CodeForbidden, msg) }

// NotFound is a 404.
func NotFound(msg string) *AppError { return newError(CodeNotFound, msg) }

// Conflict is a 409: duplicates, or a resource already in the target state.
func Conflict(msg string) *AppError { return newError(CodeConflict, msg) }

// Gone is a 410 for a credential that was valid but has expired.
func Gone(msg string) *AppError { return newError(CodeGone, msg) }

// RateLimited is a 429 telling the client when to retry.
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(CodeRateLimited, fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal is a 500. The cause is kept for the log only.
func Internal(cause error) *AppError {
	err := newError(CodeInternal, MsgInternal)
	err.Cause = cause
	return err
}

// ServiceUnavailable is a 503, e.g. while the record store circuit is open.
func ServiceUnavailable(msg string) *AppError { return newError(CodeServiceUnavailable, msg) }

// # Helpers

// IsAppError reports whether err's chain holds an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// As extracts the [*AppError] from err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// StatusOf returns the status err renders with: its own, or 500.
func StatusOf(err error) int {
	if appErr := As(err); appErr != nil {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
