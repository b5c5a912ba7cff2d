package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP class of a chat failure. Message is safe to show to
// callers; Err is only logged.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

func internal(message string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message, Err: err}
}

// StatusCode maps any error returned by this package to an HTTP status.
func StatusCode(err error) int {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Code
	}
	return http.StatusInternalServerError
}

// PublicMessage is the caller facing text for err.
func PublicMessage(err error) string {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Message
	}
	return "Internal server error"
}
