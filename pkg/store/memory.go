package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
)

type memEntry struct {
	summary Summary
	data    []byte
}

// MemoryStore keeps maps in process memory. Maps are held in serialized form
// so callers never share a grid with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Save(ctx context.Context, m *generator.Map) (string, error) {
	data, err := mapio.Marshal(m)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "encode map")
	}
	id := NewID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memEntry{summary: summarize(id, m, s.now()), data: data}
	return id, nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*generator.Map, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return mapio.Unmarshal(e.data)
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.summary)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return notFound(id)
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func sortNewestFirst(xs []Summary) {
	slices.SortFunc(xs, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
