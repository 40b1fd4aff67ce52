// Package cache provides byte caches for generated maps and rendered
// artifacts.
//
// Generation is deterministic, so a map is fully identified by its options
// and runtime seed. The pipeline caches the serialized map under a key
// derived from those inputs, and rendered artifacts under a key derived from
// the map hash and the render options.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// MapTTL is how long a generated map stays cached.
	MapTTL = 7 * 24 * time.Hour

	// ArtifactTTL is how long a rendered artifact stays cached.
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was found. Expired entries
	// are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// MapKeyOpts lists every input that affects a generated map.
type MapKeyOpts struct {
	Width                 int    `json:"w"`
	Height                int    `json:"h"`
	MaxCities             int    `json:"c"`
	MaxRailsBetweenCities int    `json:"rb"`
	MaxRailPairsInCity    int    `json:"rp"`
	GridMode              bool   `json:"g"`
	Seed                  uint64 `json:"s"`
}

// ArtifactKeyOpts lists every input that affects a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"f"`
	CellSize int    `json:"cs,omitempty"`
	Grid     bool   `json:"grid,omitempty"`
	Stations bool   `json:"st,omitempty"`
	Detailed bool   `json:"d,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// MapKey returns the key of a generated map.
	MapKey(opts MapKeyOpts) string

	// ArtifactKey returns the key of a rendering of the map with the given
	// content hash.
	ArtifactKey(mapHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MapKey implements Keyer.
func (DefaultKeyer) MapKey(opts MapKeyOpts) string {
	return hashKey("map", opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(mapHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", mapHash, opts)
}
