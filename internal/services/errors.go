package services

import "errors"

// Error kinds returned by the services. Match them with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Error pairs an error kind with a short message that is safe to show to
// the caller.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}
