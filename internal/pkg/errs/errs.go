package errs

import "errors"

// Sentinel errors crossing the repo/service boundary. Handlers map them
// onto response codes; everything else surfaces as an internal error.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid request")
	ErrConflict     = errors.New("conflict")
)
