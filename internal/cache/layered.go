package cache

import (
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"go.uber.org/zap"
)

// Layered reads memory first, then disk, and writes through to both
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered combines two caches
func NewLayered(memory, disk Cache) *Layered {
	return &Layered{memory: memory, disk: disk}
}

// FromConfig builds the fetch cache, or Nop when caching is disabled
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewLayered(
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		NewDiskCache(cfg.Dir, cfg.DiskTTL),
	)
}

// Get checks memory, then disk, promoting disk hits into memory
func (c *Layered) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	v, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	if err := c.memory.Set(key, v, 0); err != nil {
		zap.L().Debug("cache: promote failed", zap.String("key", key), zap.Error(err))
	}
	return v, true
}

// Set writes both layers; a disk failure is returned after memory is updated
func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes the key from both layers
func (c *Layered) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear empties both layers
func (c *Layered) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
