package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an error with the category the dashboard reacts to
type Kind string

const (
	KindNetwork    Kind = "network_failure"
	KindServer     Kind = "server_error"
	KindValidation Kind = "validation_error"
	KindConflict   Kind = "conflict"
)

// GenericServerMessage is shown when the service gives no usable message
const GenericServerMessage = "The optimization service returned an error. Please try again."

// Error is the discriminated failure returned by gateway and editor operations
type Error struct {
	Kind       Kind   `json:"kind"`
	Op         string `json:"op,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Network creates a NetworkFailure for a request that could not complete
func Network(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Op:      op,
		Message: "Could not reach the optimization service.",
		Err:     err,
	}
}

// Server creates a ServerError. An empty message falls back to the generic copy.
func Server(op string, status int, message string) *Error {
	if message == "" {
		message = GenericServerMessage
	}
	return &Error{
		Kind:       KindServer,
		Op:         op,
		StatusCode: status,
		Message:    message,
	}
}

// Validation creates a client-side ValidationError
func Validation(op, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: message,
	}
}

// Conflict reports that server data changed since the client loaded it
func Conflict(op, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Op:      op,
		Message: message,
	}
}

// KindOf returns the kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing copy for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return GenericServerMessage
}

// HTTPStatus maps an error kind onto the status the local API responds with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindServer:
		var appErr *Error
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
