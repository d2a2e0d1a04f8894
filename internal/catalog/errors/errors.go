package errors

import "errors"

var (
	ErrNotFound    = errors.New("service not found")
	ErrInvalidID   = errors.New("invalid service ID")
	ErrEmptyUpdate = errors.New("no fields to update")
)
