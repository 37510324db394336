package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/maktabalabs/maktaba/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key. Namespaces keep probe outcomes,
// search results, and robots data from colliding.
func Key(namespace, value string) string {
	hash := sha256.Sum256([]byte(value))
	return "maktaba:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds a cache from configuration: memory-only by default, layered
// memory-over-disk when a directory is configured, a no-op when disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cfg.Dir != "" {
		return NewLayeredCache(ttl, cfg.Dir, ttl)
	}
	return NewMemoryCache(ttl, 10*time.Minute)
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
