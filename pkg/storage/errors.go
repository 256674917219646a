package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when the requested user or course does not exist.
	ErrNotFound = errors.New("record not found")
)
