package errors

import "errors"

// Sign-in faults. Each maps to a distinct message shown to the operator.
var (
	ErrUnknownAccount  = errors.New("unknown account")
	ErrWrongCredential = errors.New("wrong credential")
	ErrMalformedEmail  = errors.New("malformed email")
	ErrAccountDisabled = errors.New("account disabled")
	ErrRateLimited     = errors.New("too many sign-in attempts")
)

var (
	ErrInvalidSession  = errors.New("invalid or expired session")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrEmailTaken      = errors.New("email already registered")
)
