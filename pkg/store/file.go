package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
)

// fileRecord is the on-disk layout of one stored map.
type fileRecord struct {
	Summary Summary         `json:"summary"`
	Map     json.RawMessage `json:"map"`
}

// FileStore is a file-based map store for CLI applications.
// Maps are stored as JSON files in a data directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a new file-based map store.
// If baseDir is empty, defaults to ~/.config/railgen/maps/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "railgen", "maps")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create map dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore) mapPath(id string) (string, error) {
	if err := errors.ValidateMapID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

// Save writes m under a new ID and returns the ID.
func (s *FileStore) Save(ctx context.Context, m *generator.Map) (string, error) {
	data, err := mapio.Marshal(m)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "encode map")
	}
	id := NewID()
	rec, err := json.MarshalIndent(fileRecord{Summary: summarize(id, m, s.now()), Map: data}, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "encode record")
	}

	path, err := s.mapPath(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, rec, 0600); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write map file")
	}
	return id, nil
}

func (s *FileStore) read(id string) (fileRecord, error) {
	var rec fileRecord
	path, err := s.mapPath(id)
	if err != nil {
		return rec, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rec, notFound(id)
		}
		return rec, errors.Wrap(errors.ErrCodeStorage, err, "read map file")
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, errors.Wrap(errors.ErrCodeInvalidMap, err, "parse map file %s", id)
	}
	return rec, nil
}

// Load reads the map stored under id.
func (s *FileStore) Load(ctx context.Context, id string) (*generator.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return mapio.Unmarshal(rec.Map)
}

// List returns summaries of all stored maps, newest first.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read map dir")
	}

	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		rec, err := s.read(name[:len(name)-len(".json")])
		if err != nil {
			continue
		}
		out = append(out, rec.Summary)
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes the map stored under id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.mapPath(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "remove map file")
	}
	return nil
}

// Close is a no-op; files are closed after every call.
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for map files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
