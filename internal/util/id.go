package util

import "github.com/google/uuid"

// NewID returns a random (v4) UUID string used for invocation and sandbox
// task identifiers.
func NewID() string {
	return uuid.NewString()
}
