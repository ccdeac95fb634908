package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key identifies one cached result.
type Key struct {
	Path string
	Hash string
}

// KeyFor builds the key for path and content. The hash is the first 128
// bits of the content's SHA-256, hex encoded.
func KeyFor(path, content string) Key {
	sum := sha256.Sum256([]byte(content))
	return Key{Path: path, Hash: hex.EncodeToString(sum[:16])}
}

func (k Key) String() string {
	return k.Path + "@" + k.Hash
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}
