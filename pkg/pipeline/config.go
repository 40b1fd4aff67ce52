package pipeline

import (
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/railgen/pkg/cache"
	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/store"
)

// Cache backends selectable in a config file.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Store backends selectable in a config file.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Config is the content of a railgen TOML config file.
//
//	[map]
//	width = 60
//	height = 40
//	max_cities = 6
//
//	[cache]
//	backend = "redis"
//	prefix = "railgen:"
//	redis.url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo.uri = "mongodb://localhost:27017"
//	mongo.database = "railgen"
type Config struct {
	Map   Options     `toml:"map"`
	Cache CacheConfig `toml:"cache"`
	Store StoreConfig `toml:"store"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Prefix  string            `toml:"prefix"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// Keyer returns the cache keyer for c. A prefix scopes every key so several
// deployments can share one Redis instance.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// StoreConfig selects and configures the map store.
type StoreConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Mongo   store.MongoConfig `toml:"mongo"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and render formats.
func (c *Config) Validate() error {
	if c.Cache.Backend != "" && !slices.Contains([]string{CacheNone, CacheFile, CacheRedis}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Store.Backend != "" && !slices.Contains([]string{StoreMemory, StoreFile, StoreMongo}, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return ValidateFormats(c.Map.Formats)
}

// Merge overlays the non-zero fields of flags onto the config's map options.
// Flags always win over file values.
func (c *Config) Merge(flags Options) Options {
	o := c.Map
	if flags.Width != 0 {
		o.Width = flags.Width
	}
	if flags.Height != 0 {
		o.Height = flags.Height
	}
	if flags.MaxCities != 0 {
		o.MaxCities = flags.MaxCities
	}
	if flags.MaxRailsBetweenCities != 0 {
		o.MaxRailsBetweenCities = flags.MaxRailsBetweenCities
	}
	if flags.MaxRailPairsInCity != 0 {
		o.MaxRailPairsInCity = flags.MaxRailPairsInCity
	}
	if flags.Seed != nil {
		o.Seed = flags.Seed
	}
	if flags.NumResets != 0 {
		o.NumResets = flags.NumResets
	}
	if len(flags.Formats) > 0 {
		o.Formats = flags.Formats
	}
	if flags.CellSize != 0 {
		o.CellSize = flags.CellSize
	}
	o.GridMode = o.GridMode || flags.GridMode
	o.Stations = o.Stations || flags.Stations
	o.Grid = o.Grid || flags.Grid
	o.Detailed = o.Detailed || flags.Detailed
	o.Refresh = flags.Refresh
	if flags.Logger != nil {
		o.Logger = flags.Logger
	}
	return o
}
