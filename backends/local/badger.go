// Package local stores snapshots in an embedded Badger database.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/botirk38/semsim/backends/codec"
	"github.com/botirk38/semsim/types"
	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for the two snapshots.
const (
	lcsPrefix = "lcs/"
	icPrefix  = "ic/"
)

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore implements SnapshotStore on Badger:
//
//	lcs/<a>\t<b>  ->  score\tlcs
//	ic/<term>     ->  ic
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewBadgerStore opens the database at config.Path, or an in-memory one when
// config.InMemory is set.
func NewBadgerStore(config types.BackendConfig) (*BadgerStore, error) {
	if !config.InMemory && config.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(config.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", config.Path, err)
		}
		opts = badger.DefaultOptions(config.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	logger := config.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		logger = slog.New(slog.DiscardHandler)
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// SaveLCS implements SnapshotStore.
func (s *BadgerStore) SaveLCS(ctx context.Context, records []types.LCSRecord) error {
	entries := make(map[string]string, len(records))
	for _, r := range records {
		if _, err := codec.FormatLCS(r); err != nil {
			return err
		}
		entries[lcsPrefix+codec.PairField(r)] = codec.LCSValue(r)
	}
	return s.replace(ctx, lcsPrefix, entries)
}

// LoadLCS implements SnapshotStore.
func (s *BadgerStore) LoadLCS(ctx context.Context) ([]types.LCSRecord, error) {
	var records []types.LCSRecord
	err := s.scan(ctx, lcsPrefix, func(key, value string) error {
		r, err := codec.ParseLCS(key + "\t" + value)
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
func (s *BadgerStore) SaveIC(ctx context.Context, records []types.ICRecord) error {
	entries := make(map[string]string, len(records))
	for _, r := range records {
		if _, err := codec.FormatIC(r); err != nil {
			return err
		}
		entries[icPrefix+string(r.Term)] = codec.FormatScore(r.IC)
	}
	return s.replace(ctx, icPrefix, entries)
}

// LoadIC implements SnapshotStore.
func (s *BadgerStore) LoadIC(ctx context.Context) ([]types.ICRecord, error) {
	var records []types.ICRecord
	err := s.scan(ctx, icPrefix, func(key, value string) error {
		r, err := codec.ParseIC(key + "\t" + value)
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

func (s *BadgerStore) replace(ctx context.Context, prefix string, entries map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(prefix)); err != nil {
		return fmt.Errorf("drop %s snapshot: %w", prefix, err)
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for k, v := range entries {
		if err := wb.Set([]byte(k), []byte(v)); err != nil {
			return fmt.Errorf("write %s snapshot: %w", prefix, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush %s snapshot: %w", prefix, err)
	}
	return nil
}

// scan visits every key under prefix in key order with the prefix removed.
func (s *BadgerStore) scan(ctx context.Context, prefix string, parse func(key, value string) error) error {
	rejects := codec.NewRejects(strings.TrimSuffix(prefix, "/"))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		n := 0
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), prefix)
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := parse(key, string(value)); err != nil {
				rejects.Add(n, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read %s snapshot: %w", prefix, err)
	}
	if rejects.Len() > 0 {
		s.logger.Warn("rejected snapshot entries", "prefix", prefix, "count", rejects.Len())
	}
	return rejects.Err()
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
