package history

import "errors"

var (
	// ErrNotFound is returned when no invocation with the given id is retained.
	ErrNotFound = errors.New("invocation not found")
)
