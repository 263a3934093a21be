// Package apperror defines the error taxonomy shared by services and handlers.
// Services return *Error values; handlers map the Kind to an HTTP status and
// render the message into the response envelope.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindUnavailable
	KindConflict
	KindInsufficientStock
	KindPartialApplicationPrevented
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindUnavailable:
		return "service_unavailable"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindPartialApplicationPrevented:
		return "partial_application_prevented"
	default:
		return "internal"
	}
}

// Error is a domain error carrying its Kind and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error   { return newError(KindValidation, msg) }
func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func InvalidState(msg string) *Error { return newError(KindInvalidState, msg) }
func Unavailable(msg string) *Error  { return newError(KindUnavailable, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }

func InsufficientStock(msg string) *Error {
	return newError(KindInsufficientStock, msg)
}

// PartialApplicationPrevented wraps the entry-level failure that aborted a batch.
func PartialApplicationPrevented(msg string, cause error) *Error {
	return &Error{Kind: KindPartialApplicationPrevented, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure, keeping its message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// HTTPStatus maps an error to the status code used in the response envelope.
// Unclassified failures are reported as 400 with their message.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindConflict, KindInsufficientStock, KindPartialApplicationPrevented:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
