// Package cache stores fetched documents in memory and on disk so repeated
// discovery and download passes do not hit municipal sites twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores raw bytes by key with a per-entry TTL. A zero TTL means the
// implementation's default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a file-system-safe key for a fetched URL
func Key(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return "landlock-fetch-v1-" + hex.EncodeToString(hash[:])
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
