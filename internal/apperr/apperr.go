// Package apperr defines the domain errors that cross from the service
// layer to the HTTP boundary. Every error carries an HTTP-style status
// code; anything that is not an *Error is treated as unexpected and
// re-wrapped before it reaches a client.
package apperr

import "net/http"

// Error is a domain error with a client-safe message.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Validation reports bad input (400).
func Validation(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

// Unauthorized reports a missing or invalid session, or bad credentials (401).
func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message}
}

// NotFound reports a missing user or task (404).
func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

// Conflict reports an integrity violation such as a duplicate username (409).
func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message}
}

// Internal reports an unexpected failure with the detail suppressed (500).
func Internal(message string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message}
}

// Convert passes domain errors through unchanged and re-wraps anything
// else under the given client-safe message. Service methods call this on
// every failure path so raw storage errors never cross the boundary.
func Convert(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return Internal(message)
}

// From classifies an arbitrary error for the HTTP layer.
func From(err error) *Error {
	return Convert(err, "an unexpected error occurred")
}
