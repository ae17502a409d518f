package security

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var entityIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NewEntityID returns a 24-character hex identifier for guardians, players,
// teams and payments. The payment backend only accepts ids of this shape.
func NewEntityID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:12])
}

// IsEntityID reports whether s has the persisted identifier shape
func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(s)
}

// NewRequestID returns an id used to correlate log lines of one request
func NewRequestID() string {
	return uuid.NewString()
}
