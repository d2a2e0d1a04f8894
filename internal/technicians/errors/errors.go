package errors

import "errors"

var (
	ErrNotFound = errors.New("technician not found")

	ErrInvalidID = errors.New("invalid technician ID")
)
