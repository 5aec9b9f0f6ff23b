package models

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindBadRequest             ErrorKind = "bad_request"
	KindNotFound               ErrorKind = "not_found"
	KindConflict               ErrorKind = "conflict"
	KindGone                   ErrorKind = "gone"
	KindPoolExhausted          ErrorKind = "pool_exhausted"
	KindInvariantViolation     ErrorKind = "invariant_violation"
	KindPersistenceUnavailable ErrorKind = "persistence_unavailable"
	KindUnauthorized           ErrorKind = "unauthorized"
	KindInternal               ErrorKind = "internal"
)

var ValidErrorKinds = map[ErrorKind]bool{
	KindBadRequest:             true,
	KindNotFound:               true,
	KindConflict:               true,
	KindGone:                   true,
	KindPoolExhausted:          true,
	KindInvariantViolation:     true,
	KindPersistenceUnavailable: true,
	KindUnauthorized:           true,
	KindInternal:               true,
}

// Error carries a machine-readable kind plus a human message. Handlers map
// kinds to HTTP statuses; internals never leak onto the wire.
type Error struct {
	Kind    ErrorKind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: err}
}

// KindOf extracts the error kind, defaulting to internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the user-visible message, defaulting to a generic one.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error kind to its wire status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindPoolExhausted:
		return http.StatusConflict
	case KindInvariantViolation, KindInternal:
		return http.StatusInternalServerError
	case KindPersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind,omitempty"`
}
