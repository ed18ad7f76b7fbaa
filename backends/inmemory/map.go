package inmemory

import (
	"sync"

	"github.com/botirk38/semsim/types"
)

// MapBackend implements MemoBackend as an unbounded map. Entries live until
// deleted or purged, which is what a Frozen cache needs.
type MapBackend[K comparable, V any] struct {
	mu      *sync.RWMutex
	entries map[K]V
}

// NewMapBackend creates a new unbounded map backend
func NewMapBackend[K comparable, V any](config types.BackendConfig) (*MapBackend[K, V], error) {
	size := max(config.Capacity, 0)
	return &MapBackend[K, V]{
		mu:      &sync.RWMutex{},
		entries: make(map[K]V, size),
	}, nil
}

// Get retrieves a value
func (b *MapBackend[K, V]) Get(key K) (V, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.entries[key]
	return v, ok
}

// Set stores a value
func (b *MapBackend[K, V]) Set(key K, value V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = value
}

// Delete removes an entry
func (b *MapBackend[K, V]) Delete(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, key)
}

// Len returns the number of entries
func (b *MapBackend[K, V]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries)
}

// Keys returns all keys
func (b *MapBackend[K, V]) Keys() []K {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]K, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}
	return keys
}

// Purge clears all entries
func (b *MapBackend[K, V]) Purge() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[K]V)
}

// Capacity returns 0: the map is unbounded
func (b *MapBackend[K, V]) Capacity() int {
	return 0
}
