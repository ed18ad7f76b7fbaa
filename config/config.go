// Package config loads engine settings from a YAML file and SEMSIM_*
// environment variables and turns them into engine options.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/botirk38/semsim/options"
	"github.com/botirk38/semsim/types"
	"github.com/spf13/viper"
)

// Settings is the file/env form of options.Config.
type Settings struct {
	Hierarchy          string   `mapstructure:"hierarchy"`
	CorpusSize         int      `mapstructure:"corpus_size"`
	InferredCacheSize  int      `mapstructure:"inferred_cache_size"`
	Epsilon            float64  `mapstructure:"epsilon"`
	Workers            int      `mapstructure:"workers"`
	IgnoreSubClassesOf []string `mapstructure:"ignore_subclasses_of"`

	Thresholds ThresholdSettings `mapstructure:"thresholds"`
	LCS        MemoSettings      `mapstructure:"lcs"`
	Backend    BackendSettings   `mapstructure:"backend"`
	Log        LogSettings       `mapstructure:"log"`
}

// ThresholdSettings mirrors options.Thresholds.
type ThresholdSettings struct {
	MinimumMaxIC    float64 `mapstructure:"minimum_max_ic"`
	MinimumLCSIC    float64 `mapstructure:"minimum_lcs_ic"`
	MinimumSimJ     float64 `mapstructure:"minimum_simj"`
	MinimumAsymSimJ float64 `mapstructure:"minimum_asym_simj"`
}

// MemoSettings selects the LCS memo backend. Capacity applies per shard.
type MemoSettings struct {
	Type     string `mapstructure:"type"`
	Capacity int    `mapstructure:"capacity"`
}

// BackendSettings selects the snapshot store. The store is only opened when
// Path (file, badger) or Addr (redis) is set.
type BackendSettings struct {
	Type     string `mapstructure:"type"`
	Path     string `mapstructure:"path"`
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Enabled reports whether enough is configured to open the store.
func (b BackendSettings) Enabled() bool {
	if types.BackendType(b.Type) == types.BackendRedis {
		return b.Addr != ""
	}
	return b.Path != ""
}

// Validate checks value ranges and backend names.
func (s *Settings) Validate() error {
	var errs []error
	if s.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("epsilon must not be negative, got %g", s.Epsilon))
	}
	if s.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", s.Workers))
	}
	if s.CorpusSize < 0 {
		errs = append(errs, fmt.Errorf("corpus_size must not be negative, got %d", s.CorpusSize))
	}
	if s.InferredCacheSize < 0 {
		errs = append(errs, fmt.Errorf("inferred_cache_size must not be negative, got %d", s.InferredCacheSize))
	}
	switch types.BackendType(s.LCS.Type) {
	case types.BackendMap:
	case types.BackendLRU:
		if s.LCS.Capacity <= 0 {
			errs = append(errs, fmt.Errorf("lcs.capacity must be positive for an lru memo, got %d", s.LCS.Capacity))
		}
	default:
		errs = append(errs, fmt.Errorf("lcs.type %q: %w", s.LCS.Type, types.ErrUnsupportedBackend))
	}
	switch types.BackendType(s.Backend.Type) {
	case types.BackendFile, types.BackendRedis, types.BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("backend.type %q: %w", s.Backend.Type, types.ErrUnsupportedBackend))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", s.Log.Format))
	}
	return errors.Join(errs...)
}

// Logger builds a logger writing to w at the configured level and format.
func (s *Settings) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(s.Log.Level))
	opts := &slog.HandlerOptions{Level: level}
	if s.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options converts the settings to engine options. The logger writes to stderr.
func (s *Settings) Options() []options.Option {
	logger := s.Logger(os.Stderr)
	opts := []options.Option{
		options.WithLogger(logger),
		options.WithEpsilon(s.Epsilon),
		options.WithWorkers(s.Workers),
		options.WithInferredCacheSize(s.InferredCacheSize),
		options.WithLCSBackend(types.BackendType(s.LCS.Type), s.LCS.Capacity),
		options.WithThresholds(options.Thresholds{
			MinimumMaxIC:    s.Thresholds.MinimumMaxIC,
			MinimumLCSIC:    s.Thresholds.MinimumLCSIC,
			MinimumSimJ:     s.Thresholds.MinimumSimJ,
			MinimumAsymSimJ: s.Thresholds.MinimumAsymSimJ,
		}),
	}
	if s.CorpusSize > 0 {
		opts = append(opts, options.WithCorpusSize(s.CorpusSize))
	}
	if len(s.IgnoreSubClassesOf) > 0 {
		terms := make([]types.Term, len(s.IgnoreSubClassesOf))
		for i, t := range s.IgnoreSubClassesOf {
			terms[i] = types.Term(t)
		}
		opts = append(opts, options.WithIgnoreSubClassesOf(terms...))
	}
	if s.Backend.Enabled() {
		opts = append(opts, options.WithStore(types.BackendType(s.Backend.Type), s.StoreConfig(logger)))
	}
	return opts
}

// StoreConfig returns the snapshot store configuration.
func (s *Settings) StoreConfig(logger *slog.Logger) types.BackendConfig {
	cfg := types.BackendConfig{
		Path:     s.Backend.Path,
		Username: s.Backend.Username,
		Password: s.Backend.Password,
		Database: s.Backend.DB,
		Logger:   logger,
	}
	if types.BackendType(s.Backend.Type) == types.BackendRedis {
		cfg.ConnectionString = s.Backend.Addr
	}
	if s.Backend.Prefix != "" {
		cfg.Options = map[string]any{"prefix": s.Backend.Prefix}
	}
	return cfg
}

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// setDefaults registers every key so SEMSIM_* variables are seen by Unmarshal
// even when no file sets them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("hierarchy", "")
	v.SetDefault("corpus_size", 0)
	v.SetDefault("inferred_cache_size", 0)
	v.SetDefault("epsilon", options.DefaultEpsilon)
	v.SetDefault("workers", defaultWorkers())
	v.SetDefault("ignore_subclasses_of", []string{})

	v.SetDefault("thresholds.minimum_max_ic", options.DefaultMinimumMaxIC)
	v.SetDefault("thresholds.minimum_lcs_ic", options.DefaultMinimumLCSIC)
	v.SetDefault("thresholds.minimum_simj", options.DefaultMinimumSimJ)
	v.SetDefault("thresholds.minimum_asym_simj", options.DefaultMinimumAsymSimJ)

	v.SetDefault("lcs.type", string(types.BackendMap))
	v.SetDefault("lcs.capacity", 0)

	v.SetDefault("backend.type", string(types.BackendFile))
	v.SetDefault("backend.path", "")
	v.SetDefault("backend.addr", "")
	v.SetDefault("backend.username", "")
	v.SetDefault("backend.password", "")
	v.SetDefault("backend.db", 0)
	v.SetDefault("backend.prefix", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "SEMSIM"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// Load reads the YAML file at path, applies SEMSIM_* overrides and defaults,
// and validates the result.
func Load(path string) (*Settings, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	return unmarshalAndValidate(v)
}

// LoadFromEnv builds Settings from SEMSIM_* variables and defaults only.
//
//	SEMSIM_<SECTION>_<FIELD>   e.g.  SEMSIM_BACKEND_TYPE, SEMSIM_THRESHOLDS_MINIMUM_SIMJ
func LoadFromEnv() (*Settings, error) {
	return unmarshalAndValidate(newViper())
}

func unmarshalAndValidate(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return s, nil
}
