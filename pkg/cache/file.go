package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry kinds. FileCache keeps each kind in its own subdirectory so maps and
// artifacts can be inspected and cleared separately.
const (
	KindMap      = "map"
	KindArtifact = "artifact"
	KindOther    = "other"
)

// Kinds lists the entry kinds in display order.
var Kinds = []string{KindMap, KindArtifact, KindOther}

// FileCache stores one JSON file per entry under dir/<kind>/.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk form of one entry.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the entry stored under key. Expired and corrupt entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores data under key. A zero ttl never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete removes the entry stored under key.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op.
func (c *FileCache) Close() error {
	return nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string {
	return c.dir
}

// Usage summarizes the entries of one kind.
type Usage struct {
	Entries int
	Expired int
	Bytes   int64
}

// Usage reports entry counts and sizes per kind. Kinds without entries are
// omitted.
func (c *FileCache) Usage() (map[string]Usage, error) {
	out := make(map[string]Usage)
	now := time.Now()
	for _, kind := range Kinds {
		err := c.walk(kind, func(path string, info fs.FileInfo) error {
			u := out[kind]
			u.Entries++
			u.Bytes += info.Size()
			if entry, err := readEntry(path); err != nil || entry.expired(now) {
				u.Expired++
			}
			out[kind] = u
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clear removes every entry of the given kinds, or of all kinds when none is
// given, and returns the number removed.
func (c *FileCache) Clear(kinds ...string) (int, error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	removed := 0
	for _, kind := range kinds {
		err := c.walk(kind, func(path string, _ fs.FileInfo) error {
			if err := os.Remove(path); err == nil {
				removed++
			}
			return nil
		})
		if err != nil {
			return removed, err
		}
		pruneEmptyDirs(filepath.Join(c.dir, kind))
	}
	return removed, nil
}

// Prune removes expired and unreadable entries of all kinds and returns the
// number removed.
func (c *FileCache) Prune() (int, error) {
	now := time.Now()
	removed := 0
	for _, kind := range Kinds {
		err := c.walk(kind, func(path string, _ fs.FileInfo) error {
			if entry, err := readEntry(path); err == nil && !entry.expired(now) {
				return nil
			}
			if err := os.Remove(path); err == nil {
				removed++
			}
			return nil
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// walk calls fn for every entry file of kind. A missing kind directory is
// empty.
func (c *FileCache) walk(kind string, fn func(path string, info fs.FileInfo) error) error {
	root := filepath.Join(c.dir, kind)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
	return err
}

// path maps key to dir/<kind>/<h[:2]>/<h[2:]>.json, where h is the hash of
// the full key so scoped keys never collide.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, keyKind(key), h[:2], h[2:]+".json")
}

func readEntry(path string) (fileEntry, error) {
	var entry fileEntry
	raw, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(raw, &entry)
	return entry, err
}

// pruneEmptyDirs removes the empty shard directories below root.
func pruneEmptyDirs(root string) {
	shards, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, s := range shards {
		if s.IsDir() {
			_ = os.Remove(filepath.Join(root, s.Name()))
		}
	}
}

var _ Cache = (*FileCache)(nil)
