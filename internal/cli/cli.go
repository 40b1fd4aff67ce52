// Package cli implements the railgen command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/buildinfo"
	"github.com/matzehuels/railgen/pkg/cache"
	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/pipeline"
	"github.com/matzehuels/railgen/pkg/render"
	"github.com/matzehuels/railgen/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "railgen"

	// configEnv names the environment variable holding a default config path.
	configEnv = "RAILGEN_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *pipeline.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "railgen generates sparse railway networks",
		Long: `railgen builds Flatland-style sparse rail networks: cities placed on a grid,
joined by parallel corridors, with inner-city tracks and train stations.

Generation is deterministic: equal options and seed give the same map.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file (default $"+configEnv+")")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.scheduleCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.mapsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig reads the config file named by --config or $RAILGEN_CONFIG.
// Without either, an empty config is returned.
func (c *CLI) loadConfig() (*pipeline.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	path := c.configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		c.config = &pipeline.Config{}
		return c.config, nil
	}
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path)
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, cfg.Cache.Keyer(), c.Logger), nil
}

func newCache(ctx context.Context, cfg pipeline.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == pipeline.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == pipeline.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// newStore opens the map store selected in the config. The file store is
// the default for the CLI.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg.Store, pipeline.StoreFile, c.Logger)
}

func openStore(ctx context.Context, cfg pipeline.StoreConfig, fallback string, logger *log.Logger) (store.Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = fallback
	}
	switch backend {
	case pipeline.StoreMemory:
		return store.NewMemoryStore(), nil
	case pipeline.StoreMongo:
		ms, err := store.OpenMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return ms, nil
	case pipeline.StoreFile:
		fs, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/railgen/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path. Without an explicit output the
// fallback is used; a known format extension on output is stripped.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := ""
	for _, f := range render.Formats {
		if strings.HasSuffix(output, "."+f) && len(f) > len(ext) {
			ext = f
		}
	}
	if ext != "" {
		return strings.TrimSuffix(output, "."+ext)
	}
	if filepath.Ext(output) == ".json" {
		return strings.TrimSuffix(output, ".json")
	}
	return output
}
