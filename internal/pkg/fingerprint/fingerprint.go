// Package fingerprint derives fixed-width identity keys from unbounded text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Size is the length of a non-empty fingerprint in hex characters.
const Size = sha256.Size * 2

// Title returns the hex SHA-256 of the trimmed title. An empty or
// whitespace-only title yields "" so untitled records never collide on a
// shared hash.
func Title(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
