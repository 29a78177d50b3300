package util

import (
	"crypto/rand"
	"fmt"
)

// RandomColor picks a background color for a new workspace. Channels are
// kept in the mid range so generated boards stay readable with both light
// and dark text.
func RandomColor() string {
	bytes := make([]byte, 3)
	_, _ = rand.Read(bytes)
	r := 64 + int(bytes[0])%128
	g := 64 + int(bytes[1])%128
	b := 64 + int(bytes[2])%128
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
