package utils

import "github.com/google/uuid"

// GenerateID returns a new random (v4) identifier for stored rows and token ids
func GenerateID() string {
	return uuid.NewString()
}

// IsID reports whether s is a canonical identifier produced by GenerateID
func IsID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.String() == s
}
