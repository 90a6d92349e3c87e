package db

import "errors"

var (
	// ErrNotFound is returned when the targeted record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAccessDenied is returned when a caller targets a record owned by
	// someone else.
	ErrAccessDenied = errors.New("access denied")
)
