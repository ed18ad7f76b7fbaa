package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/botirk38/semsim/options"
	"github.com/botirk38/semsim/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
hierarchy: "testdata/animals.tsv"
corpus_size: 1000
epsilon: 0.01
workers: 2
ignore_subclasses_of: ["NCBITaxon:1"]
thresholds:
  minimum_max_ic: 3.5
  minimum_simj: 0.5
lcs:
  type: lru
  capacity: 4096
backend:
  type: badger
  path: "/var/lib/semsim"
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "semsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "testdata/animals.tsv", s.Hierarchy)
	assert.Equal(t, 1000, s.CorpusSize)
	assert.Equal(t, 0.01, s.Epsilon)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, []string{"NCBITaxon:1"}, s.IgnoreSubClassesOf)
	assert.Equal(t, 3.5, s.Thresholds.MinimumMaxIC)
	assert.Equal(t, 0.5, s.Thresholds.MinimumSimJ)
	assert.Equal(t, options.DefaultMinimumLCSIC, s.Thresholds.MinimumLCSIC, "unset keys keep their defaults")
	assert.Equal(t, MemoSettings{Type: "lru", Capacity: 4096}, s.LCS)
	assert.Equal(t, "badger", s.Backend.Type)
	assert.True(t, s.Backend.Enabled())
	assert.Equal(t, LogSettings{Level: "debug", Format: "json"}, s.Log)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		s, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, options.DefaultEpsilon, s.Epsilon)
		assert.Positive(t, s.Workers)
		assert.Equal(t, ThresholdSettings{
			MinimumMaxIC:    4,
			MinimumLCSIC:    2,
			MinimumSimJ:     0.25,
			MinimumAsymSimJ: 0.25,
		}, s.Thresholds)
		assert.Equal(t, "map", s.LCS.Type)
		assert.Equal(t, "file", s.Backend.Type)
		assert.False(t, s.Backend.Enabled())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("SEMSIM_EPSILON", "0.05")
		t.Setenv("SEMSIM_THRESHOLDS_MINIMUM_SIMJ", "0.8")
		t.Setenv("SEMSIM_BACKEND_TYPE", "redis")
		t.Setenv("SEMSIM_BACKEND_ADDR", "localhost:6379")
		t.Setenv("SEMSIM_BACKEND_DB", "3")

		s, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 0.05, s.Epsilon)
		assert.Equal(t, 0.8, s.Thresholds.MinimumSimJ)
		assert.True(t, s.Backend.Enabled())

		cfg := s.StoreConfig(nil)
		assert.Equal(t, "localhost:6379", cfg.ConnectionString)
		assert.Equal(t, 3, cfg.Database)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("SEMSIM_WORKERS", "7")
		s, err := Load(writeConfig(t, validConfigYAML))
		require.NoError(t, err)
		assert.Equal(t, 7, s.Workers)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"NegativeEpsilon", "epsilon: -1\n"},
		{"ZeroWorkers", "workers: 0\n"},
		{"UnknownMemo", "lcs:\n  type: fifo\n"},
		{"LRUWithoutCapacity", "lcs:\n  type: lru\n"},
		{"UnknownStore", "backend:\n  type: s3\n"},
		{"BadLevel", "log:\n  level: loud\n"},
		{"BadFormat", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "backend:\n  type: s3\n"))
	assert.ErrorIs(t, err, types.ErrUnsupportedBackend)
}

func TestSettingsOptions(t *testing.T) {
	s, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	s.Backend.Path = t.TempDir()

	cfg := options.NewConfig()
	require.NoError(t, cfg.Apply(s.Options()...))
	t.Cleanup(func() { _ = cfg.SnapshotStore.Close() })

	assert.Equal(t, 0.01, cfg.Epsilon)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1000, cfg.CorpusSize)
	assert.Equal(t, []types.Term{"NCBITaxon:1"}, cfg.IgnoreSubClassesOf)
	assert.Equal(t, 3.5, cfg.Thresholds.MinimumMaxIC)
	require.NotNil(t, cfg.SnapshotStore)

	shard, err := cfg.LCSBackend()
	require.NoError(t, err)
	assert.Equal(t, 4096, shard.Capacity())
}

func TestSettingsLogger(t *testing.T) {
	var buf bytes.Buffer
	s := &Settings{Log: LogSettings{Level: "warn", Format: "json"}}
	logger := s.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "term", "Dog")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"term":"Dog"`)
}
