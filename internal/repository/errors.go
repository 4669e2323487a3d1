package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches a lookup, including
	// rows that exist but belong to another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an insert violates the unique
	// email index.
	ErrDuplicateEmail = errors.New("email already registered")
)
