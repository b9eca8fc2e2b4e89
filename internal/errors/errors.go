package errors

import (
	"errors"
)

// Error kinds shared by the services and mapped to HTTP status codes by the server
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
)

// Public is an error whose message is safe to return to a client.
type Public struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Public) Error() string {
	return e.Message
}

func (e *Public) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func newPublic(kind error, message string, cause []error) error {
	p := &Public{Kind: kind, Message: message}
	if len(cause) > 0 {
		p.Cause = cause[0]
	}
	return p
}

// Conflict returns an ErrConflict error carrying message
func Conflict(message string, cause ...error) error {
	return newPublic(ErrConflict, message, cause)
}

// Unauthorized returns an ErrUnauthorized error carrying message
func Unauthorized(message string, cause ...error) error {
	return newPublic(ErrUnauthorized, message, cause)
}

// Forbidden returns an ErrForbidden error carrying message
func Forbidden(message string, cause ...error) error {
	return newPublic(ErrForbidden, message, cause)
}

// BadRequest returns an ErrBadRequest error carrying message
func BadRequest(message string, cause ...error) error {
	return newPublic(ErrBadRequest, message, cause)
}

// NotFound returns an ErrNotFound error carrying message
func NotFound(message string, cause ...error) error {
	return newPublic(ErrNotFound, message, cause)
}

// Message returns the client safe message of the first Public error in err's chain,
// or fallback when there is none.
func Message(err error, fallback string) string {
	var p *Public
	if errors.As(err, &p) {
		return p.Message
	}
	return fallback
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
