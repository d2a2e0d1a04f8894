package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID")

	ErrUnknownService = errors.New("booking references an unknown service")
)
