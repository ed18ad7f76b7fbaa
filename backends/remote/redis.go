package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/botirk38/semsim/backends/codec"
	"github.com/botirk38/semsim/types"
	"github.com/redis/go-redis/v9"
)

// hsetBatch bounds the field/value pairs sent in one HSET.
const hsetBatch = 500

// RedisStore implements SnapshotStore with two Redis hashes:
//
//	<prefix>lcs  field "a\tb"  value "score\tlcs"
//	<prefix>ic   field term    value ic
//
// A save fills a staging hash and renames it over the live one, so readers
// never observe a half-written snapshot.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// parseRedisURL parses a Redis URL and returns redis.Options
func parseRedisURL(connectionString string) (*redis.Options, error) {
	// Handle redis:// or rediss:// URLs
	if strings.HasPrefix(connectionString, "redis://") || strings.HasPrefix(connectionString, "rediss://") {
		parsedURL, err := url.Parse(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}

		opts := &redis.Options{
			Addr: parsedURL.Host,
		}

		if parsedURL.Scheme == "rediss" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		if parsedURL.User != nil {
			opts.Username = parsedURL.User.Username()
			if password, ok := parsedURL.User.Password(); ok {
				opts.Password = password
			}
		}

		// Extract database number from path
		if parsedURL.Path != "" && parsedURL.Path != "/" {
			dbStr := strings.TrimPrefix(parsedURL.Path, "/")
			if db, err := strconv.Atoi(dbStr); err == nil {
				opts.DB = db
			}
		}

		return opts, nil
	}

	// For simple address format (host:port), return minimal options
	return &redis.Options{
		Addr: connectionString,
	}, nil
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(config types.BackendConfig) (*RedisStore, error) {
	opts, err := parseRedisURL(config.ConnectionString)
	if err != nil {
		return nil, err
	}

	// Override with explicit config values if provided
	if config.Username != "" {
		opts.Username = config.Username
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.Database != 0 {
		opts.DB = config.Database
	}

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := "semsim:"
	if prefixOpt, ok := config.Options["prefix"]; ok {
		if p, ok := prefixOpt.(string); ok {
			prefix = p
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

func (s *RedisStore) lcsKey() string { return s.prefix + "lcs" }
func (s *RedisStore) icKey() string  { return s.prefix + "ic" }

// SaveLCS implements SnapshotStore.
func (s *RedisStore) SaveLCS(ctx context.Context, records []types.LCSRecord) error {
	fields := make([]any, 0, 2*len(records))
	for _, r := range records {
		if _, err := codec.FormatLCS(r); err != nil {
			return err
		}
		fields = append(fields, codec.PairField(r), codec.LCSValue(r))
	}
	return s.replace(ctx, s.lcsKey(), fields)
}

// LoadLCS implements SnapshotStore.
func (s *RedisStore) LoadLCS(ctx context.Context) ([]types.LCSRecord, error) {
	var records []types.LCSRecord
	err := s.scan(ctx, s.lcsKey(), func(field, value string) error {
		r, err := codec.ParseLCS(field + "\t" + value)
		if err == nil {
			records = append(records, r)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveIC implements SnapshotStore.
func (s *RedisStore) SaveIC(ctx context.Context, records []types.ICRecord) error {
	fields := make([]any, 0, 2*len(records))
	for _, r := range records {
		if _, err := codec.FormatIC(r); err != nil {
			return err
		}
		fields = append(fields, string(r.Term), codec.FormatScore(r.IC))
	}
	return s.replace(ctx, s.icKey(), fields)
}

// LoadIC implements SnapshotStore.
func (s *RedisStore) LoadIC(ctx context.Context) ([]types.ICRecord, error) {
	var records []types.ICRecord
	err := s.scan(ctx, s.icKey(), func(field, value string) error {
		r, err := codec.ParseIC(field + "\t" + value)
		if err == nil {
			records = append(records, r)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// replace writes fields to a staging hash and renames it over key.
func (s *RedisStore) replace(ctx context.Context, key string, fields []any) error {
	if len(fields) == 0 {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear %s in Redis: %w", key, err)
		}
		return nil
	}

	staging := key + ":staging"
	if err := s.client.Del(ctx, staging).Err(); err != nil {
		return fmt.Errorf("failed to reset %s in Redis: %w", staging, err)
	}
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for start := 0; start < len(fields); start += 2 * hsetBatch {
			end := min(start+2*hsetBatch, len(fields))
			pipe.HSet(ctx, staging, fields[start:end]...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", staging, err)
	}
	if err := s.client.Rename(ctx, staging, key).Err(); err != nil {
		return fmt.Errorf("failed to publish %s in Redis: %w", key, err)
	}
	return nil
}

// scan reads every field of key in field order, so reject positions are
// stable between loads.
func (s *RedisStore) scan(ctx context.Context, key string, parse func(field, value string) error) error {
	all := make(map[string]string)
	var cursor uint64
	for {
		kv, next, err := s.client.HScan(ctx, key, cursor, "*", 1000).Result()
		if err != nil {
			return fmt.Errorf("failed to scan %s in Redis: %w", key, err)
		}
		for i := 0; i+1 < len(kv); i += 2 {
			all[kv[i]] = kv[i+1]
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	fields := make([]string, 0, len(all))
	for f := range all {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	rejects := codec.NewRejects(key)
	for i, f := range fields {
		if err := parse(f, all[f]); err != nil {
			rejects.Add(i+1, err)
		}
	}
	if rejects.Len() > 0 {
		s.logger.Warn("rejected snapshot entries", "key", key, "count", rejects.Len())
	}
	return rejects.Err()
}

// Flush deletes both snapshot hashes
func (s *RedisStore) Flush(ctx context.Context) error {
	if err := s.client.Del(ctx, s.lcsKey(), s.icKey()).Err(); err != nil {
		return fmt.Errorf("failed to flush Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
