package utils

import (
	"crypto/subtle"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier. Space tokens use the same generator.
func NewID() string {
	return uuid.NewString()
}

// TokenEquals compares a supplied token with a stored secret byte for byte.
// No trimming or case folding; an empty stored secret never matches.
func TokenEquals(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
