package generator

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railgen/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxRailsBetweenCities is the default corridor width.
	DefaultMaxRailsBetweenCities = 2

	// DefaultMaxRailPairsInCity is the default number of station track pairs.
	DefaultMaxRailPairsInCity = 2

	// DefaultMaxPlacementAttempts bounds how often a clustered random layout
	// is thrown away and placed again.
	DefaultMaxPlacementAttempts = 10

	// cityPadding is added to the track-derived radius so tracks are long
	// enough to hold switches.
	cityPadding = 2

	// outRailsPerSide is the number of through points per active side.
	outRailsPerSide = 2

	// cliqueCheckThreshold is the requested city count above which random
	// layouts are checked for cliques.
	cliqueCheckThreshold = 4
)

// =============================================================================
// Options
// =============================================================================

// Options configures a single generation call.
type Options struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`

	// MaxCities is the requested number of cities. Fewer may be placed when
	// the map is crowded.
	MaxCities int `json:"max_cities" toml:"max_cities"`

	// MaxRailsBetweenCities caps the corridor width. It is clamped to twice
	// the number of rail pairs.
	MaxRailsBetweenCities int `json:"max_rails_between_cities,omitempty" toml:"max_rails_between_cities"`

	// MaxRailPairsInCity is the maximum number of parallel track pairs in a
	// city. It also determines the city radius.
	MaxRailPairsInCity int `json:"max_rail_pairs_in_city,omitempty" toml:"max_rail_pairs_in_city"`

	// GridMode places cities on an even lattice instead of randomly.
	GridMode bool `json:"grid_mode,omitempty" toml:"grid_mode"`

	Seed uint64 `json:"seed" toml:"seed"`

	// NumResets is added to Seed, so each environment reset gets a new but
	// reproducible map.
	NumResets int `json:"num_resets,omitempty" toml:"num_resets"`

	// MaxPlacementAttempts bounds clique re-placement in random mode.
	MaxPlacementAttempts int `json:"max_placement_attempts,omitempty" toml:"max_placement_attempts"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// ValidateAndSetDefaults checks the input contract and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "map size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.MaxCities < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "at least 2 cities are required, got %d", o.MaxCities)
	}
	if o.MaxRailsBetweenCities < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_rails_between_cities must be positive")
	}
	if o.MaxRailPairsInCity < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_rail_pairs_in_city must be positive")
	}
	if o.NumResets < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "num_resets cannot be negative")
	}
	if o.MaxRailsBetweenCities == 0 {
		o.MaxRailsBetweenCities = DefaultMaxRailsBetweenCities
	}
	if o.MaxRailPairsInCity == 0 {
		o.MaxRailPairsInCity = DefaultMaxRailPairsInCity
	}
	if o.MaxPlacementAttempts <= 0 {
		o.MaxPlacementAttempts = DefaultMaxPlacementAttempts
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// RuntimeSeed is the seed actually used to draw the map.
func (o Options) RuntimeSeed() uint64 {
	return o.Seed + uint64(o.NumResets)
}

// =============================================================================
// Derived Layout
// =============================================================================

// Layout holds the quantities derived once from Options.
type Layout struct {
	RailPairs          int
	RailsBetweenCities int
	CityRadius         int
	MaxFeasibleCities  int
}

// ComputeLayout derives city geometry and the number of cities that fit.
// It fails with ErrCodeInfeasibleLayout when fewer than two cities fit.
func ComputeLayout(o Options) (Layout, error) {
	pairs := max(1, o.MaxRailPairsInCity)
	if side := min(o.Width, o.Height); pairs > side/2 {
		return Layout{RailPairs: pairs}, errors.New(errors.ErrCodeInfeasibleLayout,
			"%d rail pairs per city do not fit on a %dx%d map", pairs, o.Width, o.Height)
	}
	radius := int(math.Ceil(float64(2*pairs)/2)) + cityPadding
	footprint := 2 * (radius + 1)
	fit := ((o.Height - 2) / footprint) * ((o.Width - 2) / footprint)
	if o.Height < 2 || o.Width < 2 {
		fit = 0
	}

	l := Layout{
		RailPairs:          pairs,
		RailsBetweenCities: min(o.MaxRailsBetweenCities, 2*pairs),
		CityRadius:         radius,
		MaxFeasibleCities:  min(o.MaxCities, fit),
	}
	if l.MaxFeasibleCities < 2 {
		return l, errors.New(errors.ErrCodeInfeasibleLayout,
			"cannot fit two cities of radius %d on a %dx%d map", radius, o.Width, o.Height)
	}
	return l, nil
}
