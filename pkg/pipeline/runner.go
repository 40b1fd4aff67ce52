package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/railgen/pkg/cache"
	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetGenerateDefaults()
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Generate
	genStart := time.Now()
	m, hit, err := r.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Map = m
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Cities = len(m.Cities)
	result.Stats.Corridors = m.Report.Corridors
	result.Stats.Failures = m.Report.RoutingFailures
	result.CacheInfo.GenerateHit = hit

	r.Logger.Info("generated map",
		"cities", len(m.Cities),
		"corridors", m.Report.Corridors,
		"failures", m.Report.RoutingFailures,
		"cached", hit,
		"duration", result.Stats.GenerateTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, mapHash, renderHit, err := r.renderWithHash(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.MapHash = mapHash
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo builds a map with caching and returns cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*generator.Map, bool, error) {
	r.applyLogger(&opts)
	opts.SetGenerateDefaults()
	cacheKey := r.Keyer.MapKey(opts.MapKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if m, err := mapio.Unmarshal(data); err == nil {
				// Entries are shared by every seed/reset pair with the same
				// runtime seed; report the options of this request.
				g := opts.GeneratorOptions()
				if err := g.ValidateAndSetDefaults(); err == nil {
					m.Options = g
				}
				observability.Cache().OnCacheHit(ctx, "map")
				return m, true, nil
			}
			// If deserialization fails, fall through to regenerate
		}
		observability.Cache().OnCacheMiss(ctx, "map")
	}

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Width, opts.Height, opts.MaxCities)
	start := time.Now()
	m, err := generator.Generate(opts.GeneratorOptions())
	if err != nil {
		hooks.OnGenerateComplete(ctx, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnGenerateComplete(ctx, m.Report.PlacedCities, m.Report.RoutingFailures, time.Since(start), nil)

	if data, err := mapio.Marshal(m); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.MapTTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "map", len(data))
		}
	}

	return m, false, nil
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*generator.Map, error) {
	m, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return m, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *generator.Map, opts Options) (map[string][]byte, bool, error) {
	artifacts, _, hit, err := r.renderWithHash(ctx, m, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *generator.Map, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

func (r *Runner) renderWithHash(ctx context.Context, m *generator.Map, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from map data
	data, err := mapio.Marshal(m)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize map for cache key: %w", err)
	}
	mapHash := cache.Hash(data)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(mapHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, mapHash, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, m, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(mapHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, mapHash, false, nil
}

// GenerateBatch builds count maps that differ only in their reset index:
// map i uses NumResets = opts.NumResets + i, which is what successive
// environment resets would draw. Each generation owns its grid, so they run
// concurrently on up to workers goroutines. The first error cancels the rest.
func (r *Runner) GenerateBatch(ctx context.Context, opts Options, count, workers int) ([]*generator.Map, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, MaxWorkers)
	r.applyLogger(&opts)
	opts.SetGenerateDefaults()

	maps := make([]*generator.Map, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range count {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := opts
			o.NumResets = opts.NumResets + i
			m, err := r.Generate(ctx, o)
			if err != nil {
				return fmt.Errorf("map %d: %w", i, err)
			}
			maps[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.Logger.Debug("generated batch", "count", count, "workers", workers)
	return maps, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
