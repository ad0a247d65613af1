// Package result carries the outcome of a service operation from the service
// boundary to the wire. Services return plain (value, error) pairs whose errors
// are always *Error; handlers fold them into a Result and render the Envelope.
package result

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// Kind classifies a failed operation.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind onto the status code used in the envelope.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Messages shared by both services.
const (
	MsgInternal        = "Internal Server error"
	MsgUnavailable     = "Service temporarily unavailable"
	MsgInvalidID       = "The Supplied ID cannot be cast to Object ID, please ensure that you are using a valid ID"
	MsgSignInRequired  = "You need to be signed in to perform this action. Kindly login to continue"
	MsgInvalidRequest  = "Invalid request data"
	MsgInvalidCoords   = "The coordinates values entered is invalid. Please Enter a valid coordinate. Latitudes are between -90 and 90 while longitides are between -180 and 180"
	MsgUserNotFound    = "user with specified id not found"
	MsgApartmentAbsent = "Apartment with the specified id not found"
)

// Error is the only error type a service operation returns.
// Detail carries diagnostic text (the underlying failure for internal errors).
type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func BadRequest(message string) *Error   { return NewError(KindBadRequest, message) }
func Unauthorized(message string) *Error { return NewError(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return NewError(KindForbidden, message) }
func NotFound(message string) *Error     { return NewError(KindNotFound, message) }
func Conflict(message string) *Error     { return NewError(KindConflict, message) }

// Internal wraps an unexpected failure, keeping its text as the detail.
func Internal(err error) *Error {
	e := &Error{Kind: KindInternal, Message: MsgInternal}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// Unavailable reports a transient failure such as a store timeout.
func Unavailable(err error) *Error {
	e := &Error{Kind: KindUnavailable, Message: MsgUnavailable}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// Failure classifies an unexpected store or transport error. Deadline hits
// are reported as Unavailable, anything else as Internal.
func Failure(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err)
	}
	return Internal(err)
}

// AsError returns err as *Error, folding anything else into an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Result is either Ok(value) or Err(kind, message).
type Result[T any] struct {
	value T
	err   *Error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](e *Error) Result[T] {
	if e == nil {
		e = Internal(nil)
	}
	return Result[T]{err: e}
}

// From converts a service return pair into a Result.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](AsError(err))
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the payload; it is the zero value for an Err result.
func (r Result[T]) Value() T { return r.value }

// Error returns the failure, or nil for an Ok result.
func (r Result[T]) Error() *Error { return r.err }

// Envelope is the uniform response wrapper shared by every operation.
type Envelope struct {
	Success      bool    `json:"success"`
	StatusCode   string  `json:"statusCode"`
	Message      string  `json:"message"`
	ErrorMessage *string `json:"errorMessage"`
}

// Status returns the numeric form of StatusCode, or 500 when it cannot be parsed.
func (e Envelope) Status() int {
	code, err := strconv.Atoi(e.StatusCode)
	if err != nil {
		return http.StatusInternalServerError
	}
	return code
}

// Envelope renders the result. okStatus and okMessage describe success.
func (r Result[T]) Envelope(okStatus int, okMessage string) Envelope {
	if r.err == nil {
		return Envelope{
			Success:    true,
			StatusCode: strconv.Itoa(okStatus),
			Message:    okMessage,
		}
	}
	env := Envelope{
		Success:    false,
		StatusCode: strconv.Itoa(r.err.Kind.HTTPStatus()),
		Message:    r.err.Message,
	}
	if r.err.Detail != "" {
		detail := r.err.Detail
		env.ErrorMessage = &detail
	}
	return env
}
