// Package apperr defines the error taxonomy shared by the store and the HTTP
// layer. Every error a handler returns to a client is one of these; anything
// else is logged and collapsed to a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structured error carrying the HTTP status it maps to.
type Error struct {
	HTTP    int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

// Unwrap exposes the underlying cause (if any) for logging.
func (e *Error) Unwrap() error { return e.cause }

// Validation is a malformed or missing request field (400).
func Validation(format string, args ...any) error {
	return &Error{HTTP: http.StatusBadRequest, Code: "ValidationError", Message: fmt.Sprintf(format, args...)}
}

// NotFound is a missing player/card/planet or an empty deck (404).
func NotFound(format string, args ...any) error {
	return &Error{HTTP: http.StatusNotFound, Code: "NotFound", Message: fmt.Sprintf(format, args...)}
}

// Conflict is a duplicate player name (409).
func Conflict(format string, args ...any) error {
	return &Error{HTTP: http.StatusConflict, Code: "Conflict", Message: fmt.Sprintf(format, args...)}
}

// Store wraps an underlying query failure (500). The wrapped cause is for
// logs only and never reaches the client.
func Store(err error) error {
	return &Error{HTTP: http.StatusInternalServerError, Code: "StoreError", Message: "internal store error", cause: err}
}

// As unwraps err into *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
