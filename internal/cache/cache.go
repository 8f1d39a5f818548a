// Package cache stores validated inference responses so repeated reviews of
// the same page content do not re-spend LLM calls.
package cache

import "time"

// Cache is the storage contract shared by the memory, disk, and layered
// implementations. Values are opaque bytes; callers marshal their own types.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}
