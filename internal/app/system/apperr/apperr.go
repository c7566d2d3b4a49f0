// Package apperr defines the error kinds surfaced by services and their
// mapping to HTTP status codes.
//
// Services return *Error values for every expected failure. Anything else
// reaching a handler is treated as Internal and its detail is never written
// to the response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	Authentication
	Authorization
	NotFound
	Validation
	StateConflict
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case StateConflict:
		return "state_conflict"
	case Upstream:
		return "upstream"
	case Internal:
		return "internal"
	}
	return "internal"
}

// Error is a classified failure with a stable code and a caller-safe message.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Conceal reports an authorization failure as unauthenticated so the
	// caller cannot tell whether the resource exists.
	Conceal bool

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind and Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func newErr(k Kind, code, msg string) *Error {
	return &Error{Kind: k, Code: code, Message: msg}
}

func Unauthenticated(msg string) *Error {
	if msg == "" {
		msg = "Unauthorized"
	}
	return newErr(Authentication, "unauthenticated", msg)
}

func Forbidden(code, msg string) *Error { return newErr(Authorization, code, msg) }

// Concealed is an authorization failure reported as 401.
func Concealed(code, msg string) *Error {
	e := newErr(Authorization, code, msg)
	e.Conceal = true
	return e
}

func NotFoundf(format string, args ...any) *Error {
	return newErr(NotFound, "not_found", fmt.Sprintf(format, args...))
}

func Invalid(code, msg string) *Error { return newErr(Validation, code, msg) }

func Conflict(code, msg string) *Error { return newErr(StateConflict, code, msg) }

// UpstreamFailure wraps a collaborator failure behind a generic message.
func UpstreamFailure(msg string, err error) *Error {
	e := newErr(Upstream, "upstream", msg)
	e.Err = err
	return e
}

// Wrap classifies err as Internal unless it already is an *Error.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Internal, Code: "internal", Message: msg, Err: err}
}

// KindOf returns the Kind of err, or Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		if ae.Conceal {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation, StateConflict:
		return http.StatusBadRequest
	case Upstream:
		return http.StatusBadGateway
	case Internal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Public returns the code and message safe to show the caller.
func Public(err error) (code, msg string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Internal {
		return ae.Code, ae.Message
	}
	return "internal", "Internal Server Error"
}
