// Package pipeline provides the generate → render pipeline for railgen.
//
// This package wraps [generator.Generate] with caching and rendering so the
// CLI and the HTTP server behave identically. Generation is deterministic,
// so a cached map is interchangeable with a fresh one.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Generate: build the rail network, or load it from the cache
//  2. Render: produce text, SVG or city graph artifacts
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Width: 40, Height: 40, MaxCities: 5, Seed: pipeline.Seed(1),
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Generate many independent maps concurrently:
//
//	maps, err := runner.GenerateBatch(ctx, opts, 16, 4)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railgen/pkg/cache"
	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default map width in cells.
	DefaultWidth = 40

	// DefaultHeight is the default map height in cells.
	DefaultHeight = 40

	// DefaultMaxCities is the default number of requested cities.
	DefaultMaxCities = 5

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultWorkers bounds concurrent generations in a batch.
	DefaultWorkers = 4

	// MaxWorkers caps the batch worker count.
	MaxWorkers = 8
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON and TOML serialization for API requests and
// config files.
type Options struct {
	// Generation options
	Width                 int     `json:"width,omitempty" toml:"width"`
	Height                int     `json:"height,omitempty" toml:"height"`
	MaxCities             int     `json:"max_cities,omitempty" toml:"max_cities"`
	MaxRailsBetweenCities int     `json:"max_rails_between_cities,omitempty" toml:"max_rails_between_cities"`
	MaxRailPairsInCity    int     `json:"max_rail_pairs_in_city,omitempty" toml:"max_rail_pairs_in_city"`
	GridMode              bool    `json:"grid_mode,omitempty" toml:"grid_mode"`
	Seed                  *uint64 `json:"seed,omitempty" toml:"seed"`
	NumResets             int     `json:"num_resets,omitempty" toml:"num_resets"`
	Refresh               bool    `json:"refresh,omitempty" toml:"-"`

	// Render options
	Formats  []string `json:"formats,omitempty" toml:"formats"`
	CellSize int      `json:"cell_size,omitempty" toml:"cell_size"`
	Stations bool     `json:"stations,omitempty" toml:"stations"`
	Grid     bool     `json:"grid,omitempty" toml:"grid"`
	Detailed bool     `json:"detailed,omitempty" toml:"detailed"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Map is the generated network.
	Map *generator.Map

	// MapHash is the content hash of the serialized map.
	MapHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Cities       int
	Corridors    int
	Failures     int
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool // Whether the map came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, render.Formats...); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// Seed returns a pointer to v for Options.Seed. A nil seed selects
// DefaultSeed, so zero is a seed like any other.
func Seed(v uint64) *uint64 {
	return &v
}

// SeedValue returns the requested seed or DefaultSeed when none is set.
func (o *Options) SeedValue() uint64 {
	if o.Seed == nil {
		return DefaultSeed
	}
	return *o.Seed
}

// SetGenerateDefaults fills in defaults for generation.
func (o *Options) SetGenerateDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MaxCities == 0 {
		o.MaxCities = DefaultMaxCities
	}
	if o.Seed == nil {
		o.Seed = Seed(DefaultSeed)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.CellSize == 0 {
		o.CellSize = render.DefaultCellSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.CellSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cell_size cannot be negative")
	}
	return ValidateFormats(o.Formats)
}

// GeneratorOptions converts o to generator options.
func (o *Options) GeneratorOptions() generator.Options {
	return generator.Options{
		Width:                 o.Width,
		Height:                o.Height,
		MaxCities:             o.MaxCities,
		MaxRailsBetweenCities: o.MaxRailsBetweenCities,
		MaxRailPairsInCity:    o.MaxRailPairsInCity,
		GridMode:              o.GridMode,
		Seed:                  o.SeedValue(),
		NumResets:             o.NumResets,
		Logger:                o.Logger,
	}
}

// MapKeyOpts returns cache key options for map generation. The runtime seed
// is used so equal maps share one entry.
func (o *Options) MapKeyOpts() cache.MapKeyOpts {
	g := o.GeneratorOptions()
	return cache.MapKeyOpts{
		Width:                 o.Width,
		Height:                o.Height,
		MaxCities:             o.MaxCities,
		MaxRailsBetweenCities: o.MaxRailsBetweenCities,
		MaxRailPairsInCity:    o.MaxRailPairsInCity,
		GridMode:              o.GridMode,
		Seed:                  g.RuntimeSeed(),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		CellSize: o.CellSize,
		Grid:     o.Grid,
		Stations: o.Stations,
		Detailed: o.Detailed,
	}
}
