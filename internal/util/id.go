package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier like "case_9f2c...". An empty prefix
// yields the bare hex, used for the refresh-token second half.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
