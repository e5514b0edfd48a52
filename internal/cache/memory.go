// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired in-memory entries are purged.
const DefaultCleanupInterval = 30 * time.Minute

type (
	// Manager is a typed key/value cache with per-entry expiration.
	Manager[K ~string, V any] interface {
		Get(key K) (V, bool)
		Set(key K, value V, ttl time.Duration)
		Delete(keys ...K)
		Flush()
	}

	// InMemoryManager is a Manager backed by go-cache. It lives for the
	// duration of the process only.
	InMemoryManager[K ~string, V any] struct {
		cache *gocache.Cache
	}
)

// NewInMemoryManager creates an in-memory cache whose entries expire after defaultExpiration.
func NewInMemoryManager[K ~string, V any](defaultExpiration, cleanupInterval time.Duration) *InMemoryManager[K, V] {
	return &InMemoryManager[K, V]{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

// Get returns the value stored under key. Values of the wrong type count as a miss.
func (m *InMemoryManager[K, V]) Get(key K) (V, bool) {
	var zero V
	value, found := m.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores value under key for ttl.
func (m *InMemoryManager[K, V]) Set(key K, value V, ttl time.Duration) {
	m.cache.Set(string(key), value, ttl)
}

// Delete removes keys.
func (m *InMemoryManager[K, V]) Delete(keys ...K) {
	for _, key := range keys {
		m.cache.Delete(string(key))
	}
}

// Flush removes every entry.
func (m *InMemoryManager[K, V]) Flush() {
	m.cache.Flush()
}
