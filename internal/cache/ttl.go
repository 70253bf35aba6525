package cache

import (
	"sync"
	"time"
)

// Cache is a small key/value store with per-entry expiry.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	now   func() time.Time
}

func NewTTLCache[K comparable, V any]() Cache[K, V] {
	return &ttlCache[K, V]{
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.Delete(key)
		return zero, false
	}
	return item.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
