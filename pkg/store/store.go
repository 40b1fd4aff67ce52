// Package store persists generated maps.
//
// Maps are stored as the JSON document defined in [io] together with a small
// summary used for listings. Three backends implement [Store]:
//   - memory: in-process storage for tests and the standalone server
//   - file: one JSON file per map, used by the CLI
//   - mongo: a MongoDB collection for shared deployments
//
// Map IDs are random UUIDs assigned on Save.
//
// [io]: github.com/matzehuels/railgen/pkg/io
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
)

// Summary describes a stored map without its grid.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Seed      uint64    `json:"seed"`
	Cities    int       `json:"cities"`
}

// Store is the interface for map storage backends.
type Store interface {
	// Save stores m under a new ID and returns it.
	Save(ctx context.Context, m *generator.Map) (string, error)

	// Load retrieves a map. A missing map yields ErrCodeMapNotFound.
	Load(ctx context.Context, id string) (*generator.Map, error)

	// List returns the summaries of all stored maps, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a map. A missing map yields ErrCodeMapNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewID returns a fresh map ID.
func NewID() string {
	return uuid.New().String()
}

func summarize(id string, m *generator.Map, now time.Time) Summary {
	return Summary{
		ID:        id,
		CreatedAt: now.UTC(),
		Width:     m.Grid.Width(),
		Height:    m.Grid.Height(),
		Seed:      m.Options.Seed,
		Cities:    len(m.Cities),
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeMapNotFound, "map %s not found", id)
}
