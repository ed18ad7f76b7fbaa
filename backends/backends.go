// Package backends creates memo backends and snapshot stores by type.
package backends

import (
	"fmt"

	"github.com/botirk38/semsim/backends/file"
	"github.com/botirk38/semsim/backends/inmemory"
	"github.com/botirk38/semsim/backends/local"
	"github.com/botirk38/semsim/backends/remote"
	"github.com/botirk38/semsim/types"
)

// BackendFactory creates memo backends based on type and configuration
type BackendFactory[K comparable, V any] struct{}

// NewBackend creates a new memo backend of the specified type
func (f *BackendFactory[K, V]) NewBackend(backendType types.BackendType, config types.BackendConfig) (types.MemoBackend[K, V], error) {
	switch backendType {
	case types.BackendMap:
		return NewMapBackend[K, V](config)
	case types.BackendLRU:
		return NewLRUBackend[K, V](config)
	default:
		return nil, fmt.Errorf("memo backend %q: %w", backendType, types.ErrUnsupportedBackend)
	}
}

// NewMapBackend creates a new unbounded map backend
func NewMapBackend[K comparable, V any](config types.BackendConfig) (types.MemoBackend[K, V], error) {
	return inmemory.NewMapBackend[K, V](config)
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend[K comparable, V any](config types.BackendConfig) (types.MemoBackend[K, V], error) {
	return inmemory.NewLRUBackend[K, V](config)
}

// NewSnapshotStore creates a snapshot store of the specified type
func NewSnapshotStore(backendType types.BackendType, config types.BackendConfig) (types.SnapshotStore, error) {
	switch backendType {
	case types.BackendFile:
		return NewFileStore(config)
	case types.BackendRedis:
		return NewRedisStore(config)
	case types.BackendBadger:
		return NewBadgerStore(config)
	default:
		return nil, fmt.Errorf("snapshot store %q: %w", backendType, types.ErrUnsupportedBackend)
	}
}

// NewFileStore creates a TSV file store
func NewFileStore(config types.BackendConfig) (types.SnapshotStore, error) {
	return file.NewFileStore(config)
}

// NewRedisStore creates a Redis store
func NewRedisStore(config types.BackendConfig) (types.SnapshotStore, error) {
	return remote.NewRedisStore(config)
}

// NewBadgerStore creates an embedded Badger store
func NewBadgerStore(config types.BackendConfig) (types.SnapshotStore, error) {
	return local.NewBadgerStore(config)
}
