package pkg

import (
	"strings"

	"github.com/google/uuid"
)

const roomIDLength = 6

// GenerateRoomID returns a short, join-code friendly room identifier.
func GenerateRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:roomIDLength]
}

// GenerateSessionID returns a fresh connection session identifier.
func GenerateSessionID() string {
	return uuid.NewString()
}
