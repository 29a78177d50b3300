package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID mints a random identifier, optionally prefixed with an entity kind.
// Creation keys are minted client-side so a retried create writes to the
// same key instead of producing a duplicate record.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
