// Package options provides functional options for configuring Engine instances.
package options

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/botirk38/semsim/backends"
	"github.com/botirk38/semsim/lcs"
	"github.com/botirk38/semsim/metrics"
	"github.com/botirk38/semsim/types"
)

// Default thresholds and tolerances.
const (
	DefaultEpsilon         = 1e-3
	DefaultMinimumMaxIC    = 4.0
	DefaultMinimumLCSIC    = 2.0
	DefaultMinimumSimJ     = 0.25
	DefaultMinimumAsymSimJ = 0.25
)

// Option represents a configuration option for an Engine
type Option func(*Config) error

// Thresholds filter element pair comparisons.
type Thresholds struct {
	MinimumMaxIC    float64
	MinimumLCSIC    float64
	MinimumSimJ     float64
	MinimumAsymSimJ float64
}

// Config holds the configuration for building an Engine
type Config struct {
	Reasoner types.Reasoner
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// CorpusSize overrides the element count as the IC denominator when > 0
	CorpusSize int

	// InferredCacheSize bounds the per-element inferred attribute memo; 0 is unbounded
	InferredCacheSize int

	LCSBackend    lcs.MemoFactory
	SnapshotStore types.SnapshotStore

	Epsilon            float64
	Workers            int
	IgnoreSubClassesOf []types.Term
	Thresholds         Thresholds
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Logger:     slog.New(slog.DiscardHandler),
		LCSBackend: lcs.DefaultMemoFactory,
		Epsilon:    DefaultEpsilon,
		Workers:    runtime.GOMAXPROCS(0),
		Thresholds: Thresholds{
			MinimumMaxIC:    DefaultMinimumMaxIC,
			MinimumLCSIC:    DefaultMinimumLCSIC,
			MinimumSimJ:     DefaultMinimumSimJ,
			MinimumAsymSimJ: DefaultMinimumAsymSimJ,
		},
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Reasoner == nil {
		return fmt.Errorf("%w - use WithReasoner", types.ErrNilReasoner)
	}
	if c.LCSBackend == nil {
		return errors.New("LCS backend is required - use WithLCSBackend or WithCustomLCSBackend")
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("epsilon must not be negative, got %g", c.Epsilon)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// WithReasoner sets the hierarchy the engine queries
func WithReasoner(r types.Reasoner) Option {
	return func(cfg *Config) error {
		if r == nil {
			return types.ErrNilReasoner
		}
		cfg.Reasoner = r
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}

// WithMetrics records cache activity in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *Config) error {
		cfg.Metrics = m
		return nil
	}
}

// WithCorpusSize uses n instead of the number of elements as the IC denominator
func WithCorpusSize(n int) Option {
	return func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("corpus size must be positive, got %d", n)
		}
		cfg.CorpusSize = n
		return nil
	}
}

// WithInferredCacheSize bounds the inferred attribute memo with an LRU of n entries
func WithInferredCacheSize(n int) Option {
	return func(cfg *Config) error {
		if n < 0 {
			return fmt.Errorf("inferred cache size must not be negative, got %d", n)
		}
		cfg.InferredCacheSize = n
		return nil
	}
}

// WithLCSBackend memoizes LCS pairs in backends of the given type. capacity
// applies to each of the memo's shards.
func WithLCSBackend(backendType types.BackendType, capacity int) Option {
	return func(cfg *Config) error {
		config := types.BackendConfig{Capacity: capacity}
		factory := &backends.BackendFactory[types.PairKey, types.ScoreAttributePair]{}
		// fail on a bad type or capacity now rather than at engine construction
		if _, err := factory.NewBackend(backendType, config); err != nil {
			return err
		}
		cfg.LCSBackend = func() (types.MemoBackend[types.PairKey, types.ScoreAttributePair], error) {
			return factory.NewBackend(backendType, config)
		}
		return nil
	}
}

// WithCustomLCSBackend allows using pre-configured LCS memo shards
func WithCustomLCSBackend(factory lcs.MemoFactory) Option {
	return func(cfg *Config) error {
		if factory == nil {
			return errors.New("LCS backend factory cannot be nil")
		}
		cfg.LCSBackend = factory
		return nil
	}
}

// WithSnapshotStore sets the store used by Save and Load
func WithSnapshotStore(store types.SnapshotStore) Option {
	return func(cfg *Config) error {
		if store == nil {
			return errors.New("snapshot store cannot be nil")
		}
		cfg.SnapshotStore = store
		return nil
	}
}

// WithFileStore keeps snapshots as TSV files in dir
func WithFileStore(dir string) Option {
	return WithStore(types.BackendFile, types.BackendConfig{Path: dir})
}

// WithRedisStore keeps snapshots in Redis hashes
func WithRedisStore(addr string, db int) Option {
	return WithStore(types.BackendRedis, types.BackendConfig{
		ConnectionString: addr,
		Database:         db,
	})
}

// WithBadgerStore keeps snapshots in an embedded Badger database at path
func WithBadgerStore(path string) Option {
	return WithStore(types.BackendBadger, types.BackendConfig{Path: path})
}

// WithStore opens a snapshot store of the given type with config
func WithStore(backendType types.BackendType, config types.BackendConfig) Option {
	return func(cfg *Config) error {
		store, err := backends.NewSnapshotStore(backendType, config)
		if err != nil {
			return err
		}
		cfg.SnapshotStore = store
		return nil
	}
}

// WithEpsilon sets the tolerance under which two scores count as tied
func WithEpsilon(epsilon float64) Option {
	return func(cfg *Config) error {
		if epsilon < 0 {
			return fmt.Errorf("epsilon must not be negative, got %g", epsilon)
		}
		cfg.Epsilon = epsilon
		return nil
	}
}

// WithWorkers sets how many goroutines batch comparisons use
func WithWorkers(n int) Option {
	return func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		cfg.Workers = n
		return nil
	}
}

// WithIgnoreSubClassesOf drops element types that are strict subclasses of terms
func WithIgnoreSubClassesOf(terms ...types.Term) Option {
	return func(cfg *Config) error {
		cfg.IgnoreSubClassesOf = append(cfg.IgnoreSubClassesOf, terms...)
		return nil
	}
}

// WithThresholds sets the filters applied by CompareElements
func WithThresholds(t Thresholds) Option {
	return func(cfg *Config) error {
		cfg.Thresholds = t
		return nil
	}
}
