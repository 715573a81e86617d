package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// HashUserKey returns a filesystem-safe identifier for a user ID or token.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NewObjectID returns a random hex identifier used to prefix stored files.
func NewObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
