package inmemory

import (
	"github.com/botirk38/semsim/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUBackend implements MemoBackend with a bounded LRU eviction policy.
// The underlying lru.Cache is already safe for concurrent use.
type LRUBackend[K comparable, V any] struct {
	cache    *lru.Cache[K, V]
	capacity int
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend[K comparable, V any](config types.BackendConfig) (*LRUBackend[K, V], error) {
	lruCache, err := lru.New[K, V](config.Capacity)
	if err != nil {
		return nil, err
	}

	return &LRUBackend[K, V]{
		cache:    lruCache,
		capacity: config.Capacity,
	}, nil
}

// Get retrieves a value and marks it recently used
func (b *LRUBackend[K, V]) Get(key K) (V, bool) {
	return b.cache.Get(key)
}

// Set stores a value, evicting the least recently used entry when full
func (b *LRUBackend[K, V]) Set(key K, value V) {
	b.cache.Add(key, value)
}

// Delete removes an entry
func (b *LRUBackend[K, V]) Delete(key K) {
	b.cache.Remove(key)
}

// Len returns the number of resident entries
func (b *LRUBackend[K, V]) Len() int {
	return b.cache.Len()
}

// Keys returns resident keys from oldest to newest
func (b *LRUBackend[K, V]) Keys() []K {
	return b.cache.Keys()
}

// Purge clears all entries
func (b *LRUBackend[K, V]) Purge() {
	b.cache.Purge()
}

// Capacity returns the configured bound
func (b *LRUBackend[K, V]) Capacity() int {
	return b.capacity
}
