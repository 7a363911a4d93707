package service

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// newRawToken is the share secret itself, so it comes from a dedicated
// high-entropy source rather than the generic id helper.
func newRawToken() string {
	return uuid.NewString()
}
