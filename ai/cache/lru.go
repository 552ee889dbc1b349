// Package cache memoizes query embeddings so repeated searches skip the provider.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// LRUCache is a size-bounded LRU cache with per-entry TTL.
type LRUCache[K comparable, V any] struct {
	cache      map[K]*entry[K, V]
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex
}

type entry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache[K comparable, V any](capacity int, defaultTTL time.Duration) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &LRUCache[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[K]*entry[K, V]),
		order:      list.New(),
	}
}

// Get retrieves a value and marks it as most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		var zero V
		return zero, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value; ttl <= 0 uses the default TTL.
func (c *LRUCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// Size returns the number of entries in the cache, expired or not.
func (c *LRUCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Capacity returns the maximum capacity of the cache.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *LRUCache[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	if e, ok := oldest.Value.(*entry[K, V]); ok {
		c.removeEntry(e)
	}
}

// removeEntry must be called with lock held.
func (c *LRUCache[K, V]) removeEntry(e *entry[K, V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}

// EmbeddingCache maps input text to its embedding.
// Keys are SHA-256 digests so long inputs do not pin large strings in memory.
type EmbeddingCache struct {
	lru *LRUCache[string, []float32]
}

// NewEmbeddingCache creates an embedding cache holding up to capacity vectors.
func NewEmbeddingCache(capacity int, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{lru: NewLRUCache[string, []float32](capacity, ttl)}
}

// Get returns a copy of the cached embedding for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	vec, ok := c.lru.Get(digest(text))
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vec...), true
}

// Set stores a copy of embedding for text.
func (c *EmbeddingCache) Set(text string, embedding []float32) {
	c.lru.Set(digest(text), append([]float32(nil), embedding...), 0)
}

// Size returns the number of cached embeddings.
func (c *EmbeddingCache) Size() int {
	return c.lru.Size()
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
