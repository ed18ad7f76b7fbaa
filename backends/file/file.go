// Package file stores snapshots as TSV files in a directory.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/botirk38/semsim/backends/codec"
	"github.com/botirk38/semsim/types"
)

// File names inside the snapshot directory.
const (
	LCSFile = "lcs.tsv"
	ICFile  = "ic.tsv"
)

// FileStore implements SnapshotStore with one TSV file per cache. Saves
// write a temporary file and rename it into place.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a store rooted at config.Path, creating the directory
// if needed.
func NewFileStore(config types.BackendConfig) (*FileStore, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for file snapshot store")
	}
	if err := os.MkdirAll(config.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", config.Path, err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{dir: config.Path, logger: logger}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// SaveLCS implements SnapshotStore.
func (s *FileStore) SaveLCS(ctx context.Context, records []types.LCSRecord) error {
	return s.write(ctx, LCSFile, func(w io.Writer) error {
		return WriteLCS(w, records)
	})
}

// LoadLCS implements SnapshotStore.
func (s *FileStore) LoadLCS(ctx context.Context) ([]types.LCSRecord, error) {
	var records []types.LCSRecord
	err := s.read(ctx, LCSFile, func(r io.Reader) error {
		var err error
		records, err = ReadLCS(r, LCSFile)
		return err
	})
	return records, err
}

// SaveIC implements SnapshotStore.
func (s *FileStore) SaveIC(ctx context.Context, records []types.ICRecord) error {
	return s.write(ctx, ICFile, func(w io.Writer) error {
		return WriteIC(w, records)
	})
}

// LoadIC implements SnapshotStore.
func (s *FileStore) LoadIC(ctx context.Context) ([]types.ICRecord, error) {
	var records []types.ICRecord
	err := s.read(ctx, ICFile, func(r io.Reader) error {
		var err error
		records, err = ReadIC(r, ICFile)
		return err
	})
	return records, err
}

// Close implements SnapshotStore. The file store holds no resources.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) write(ctx context.Context, name string, fn func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := fn(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) read(ctx context.Context, name string, fn func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	err = fn(f)
	var malformed *types.MalformedSnapshotError
	if errors.As(err, &malformed) {
		s.logger.Warn("rejected snapshot lines", "file", name, "count", len(malformed.Lines), "first_line", malformed.Lines[0])
	}
	return err
}

// WriteLCS writes records as LCS TSV lines.
func WriteLCS(w io.Writer, records []types.LCSRecord) error {
	for _, r := range records {
		line, err := codec.FormatLCS(r)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadLCS reads LCS TSV lines. Blank lines are skipped; any other line that
// does not parse fails the whole read with a *types.MalformedSnapshotError
// naming every bad line.
func ReadLCS(r io.Reader, source string) ([]types.LCSRecord, error) {
	var records []types.LCSRecord
	err := scan(r, source, func(line string) error {
		rec, err := codec.ParseLCS(line)
		if err == nil {
			records = append(records, rec)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WriteIC writes records as IC TSV lines.
func WriteIC(w io.Writer, records []types.ICRecord) error {
	for _, r := range records {
		line, err := codec.FormatIC(r)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadIC reads IC TSV lines with the same rules as ReadLCS.
func ReadIC(r io.Reader, source string) ([]types.ICRecord, error) {
	var records []types.ICRecord
	err := scan(r, source, func(line string) error {
		rec, err := codec.ParseIC(line)
		if err == nil {
			records = append(records, rec)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func scan(r io.Reader, source string, parse func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	rejects := codec.NewRejects(source)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := parse(line); err != nil {
			rejects.Add(lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return rejects.Err()
}
