package ids

import "github.com/google/uuid"

// NewSessionID returns an opaque, random (v4) session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
