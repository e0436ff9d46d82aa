package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business-rule violation so the HTTP layer can map it to a
// status code without inspecting message strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidInput
	KindInvalidActor
	KindAlreadyExists
	KindUnauthenticated
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidActor:
		return "invalid_actor"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindServer:
		return "server_error"
	}
	return "unknown"
}

// HTTPStatus maps a kind to the status code the API contract uses.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInvalidInput, KindInvalidActor, KindAlreadyExists:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Error carries a kind plus a user-facing message. Internal detail goes into
// Err and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func InvalidInput(message string) *Error    { return New(KindInvalidInput, message) }
func InvalidActor(message string) *Error    { return New(KindInvalidActor, message) }
func AlreadyExists(message string) *Error   { return New(KindAlreadyExists, message) }
func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Server(message string, err error) *Error {
	return Wrap(KindServer, message, err)
}

// KindOf extracts the kind from any error in the chain. Unclassified errors
// are treated as server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// MessageOf returns the user-facing message for an error. Unclassified errors
// get a generic message so internals never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
