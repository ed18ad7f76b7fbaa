package options

import (
	"log/slog"
	"testing"

	"github.com/botirk38/semsim/backends/inmemory"
	"github.com/botirk38/semsim/reasoner"
	"github.com/botirk38/semsim/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCreation(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := NewConfig()
		assert.NotNil(t, cfg.Logger)
		assert.NotNil(t, cfg.LCSBackend)
		assert.Nil(t, cfg.Reasoner)
		assert.Nil(t, cfg.SnapshotStore)
		assert.Equal(t, DefaultEpsilon, cfg.Epsilon)
		assert.Positive(t, cfg.Workers)
		assert.Equal(t, Thresholds{
			MinimumMaxIC:    4,
			MinimumLCSIC:    2,
			MinimumSimJ:     0.25,
			MinimumAsymSimJ: 0.25,
		}, cfg.Thresholds)
	})

	t.Run("Validation", func(t *testing.T) {
		cfg := NewConfig()
		assert.ErrorIs(t, cfg.Validate(), types.ErrNilReasoner)

		require.NoError(t, cfg.Apply(WithReasoner(reasoner.NewHierarchy(reasoner.DefaultTop))))
		assert.NoError(t, cfg.Validate())

		cfg.Workers = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestReasonerOptions(t *testing.T) {
	t.Run("NilReasoner", func(t *testing.T) {
		err := NewConfig().Apply(WithReasoner(nil))
		assert.ErrorIs(t, err, types.ErrNilReasoner)
	})

	t.Run("IgnoreSubClassesOf", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Apply(WithIgnoreSubClassesOf("Organism"), WithIgnoreSubClassesOf("Taxon")))
		assert.Equal(t, []types.Term{"Organism", "Taxon"}, cfg.IgnoreSubClassesOf)
	})
}

func TestBackendOptions(t *testing.T) {
	t.Run("LRUBackend", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Apply(WithLCSBackend(types.BackendLRU, 10)))

		shard, err := cfg.LCSBackend()
		require.NoError(t, err)
		assert.Equal(t, 10, shard.Capacity())
	})

	t.Run("MapBackend", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Apply(WithLCSBackend(types.BackendMap, 0)))

		shard, err := cfg.LCSBackend()
		require.NoError(t, err)
		assert.Equal(t, 0, shard.Capacity())
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		cfg := NewConfig()
		assert.Error(t, cfg.Apply(WithLCSBackend(types.BackendLRU, 0)))
		assert.ErrorIs(t, cfg.Apply(WithLCSBackend("memcached", 10)), types.ErrUnsupportedBackend)
	})

	t.Run("CustomBackend", func(t *testing.T) {
		cfg := NewConfig()
		calls := 0
		require.NoError(t, cfg.Apply(WithCustomLCSBackend(func() (types.MemoBackend[types.PairKey, types.ScoreAttributePair], error) {
			calls++
			return inmemory.NewMapBackend[types.PairKey, types.ScoreAttributePair](types.BackendConfig{})
		})))
		_, err := cfg.LCSBackend()
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("NilBackend", func(t *testing.T) {
		assert.Error(t, NewConfig().Apply(WithCustomLCSBackend(nil)))
	})

	t.Run("FileStore", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Apply(WithFileStore(t.TempDir())))
		require.NotNil(t, cfg.SnapshotStore)
		assert.NoError(t, cfg.SnapshotStore.Close())
	})

	t.Run("BadgerStore", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Apply(WithBadgerStore(t.TempDir())))
		require.NotNil(t, cfg.SnapshotStore)
		assert.NoError(t, cfg.SnapshotStore.Close())
	})

	t.Run("NilSnapshotStore", func(t *testing.T) {
		assert.Error(t, NewConfig().Apply(WithSnapshotStore(nil)))
	})
}

func TestTuningOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{"Epsilon", WithEpsilon(0.01), false},
		{"NegativeEpsilon", WithEpsilon(-1), true},
		{"Workers", WithWorkers(4), false},
		{"ZeroWorkers", WithWorkers(0), true},
		{"CorpusSize", WithCorpusSize(100), false},
		{"ZeroCorpusSize", WithCorpusSize(0), true},
		{"InferredCacheSize", WithInferredCacheSize(1000), false},
		{"NegativeInferredCacheSize", WithInferredCacheSize(-1), true},
		{"Logger", WithLogger(slog.New(slog.DiscardHandler)), false},
		{"NilLogger", WithLogger(nil), true},
		{"Metrics", WithMetrics(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig().Apply(tt.opt)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	cfg := NewConfig()
	require.NoError(t, cfg.Apply(
		WithEpsilon(0.01),
		WithWorkers(4),
		WithCorpusSize(100),
		WithThresholds(Thresholds{MinimumSimJ: 0.5}),
	))
	assert.Equal(t, 0.01, cfg.Epsilon)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 100, cfg.CorpusSize)
	assert.Equal(t, 0.5, cfg.Thresholds.MinimumSimJ)
}
