package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier, optionally namespaced by a prefix
// ("post" -> "post_3f2a...").
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// NewRev returns an opaque revision token. Revisions are only ever
// compared for equality, never ordered.
func NewRev() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return "rev-" + hex.EncodeToString(bytes)
}
