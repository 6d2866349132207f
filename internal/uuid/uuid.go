// Package uuid generates and checks the request ids carried in X-Request-Id.
package uuid

import (
	"github.com/google/uuid"
)

// New generates a new UUID v4 string.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical hyphenated UUID of any version.
// Upper case is accepted; braces and the urn: prefix are not.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
