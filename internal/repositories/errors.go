package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate username or
	// email uniqueness (or a duplicate subscription edge).
	ErrConflict = errors.New("record conflict")
)
