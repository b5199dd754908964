// Package apperr defines the sentinel error set shared across services.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDecode is returned when a persisted collection file cannot be parsed.
	ErrDecode = errors.New("decode failed")
	// ErrAlreadyExists is returned when creating a record that is already present.
	ErrAlreadyExists = errors.New("already exists")
)
