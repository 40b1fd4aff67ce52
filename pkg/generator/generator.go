package generator

import (
	"math/rand/v2"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// Generate builds a sparse rail network.
//
// All randomness comes from one generator seeded with opts.RuntimeSeed, so
// equal options give bit-identical maps. The only fatal error is an
// infeasible layout; routing problems are logged and counted in the map's
// report instead.
func Generate(opts Options) (*Map, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	layout, err := ComputeLayout(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	rng := newRand(opts.RuntimeSeed())

	report := Report{RequestedCities: opts.MaxCities}
	positions := placeCities(opts, layout, rng, &report)
	report.PlacedCities = len(positions)
	if len(positions) < 2 {
		return nil, errors.New(errors.ErrCodeInfeasibleLayout, "only %d cities could be placed", len(positions))
	}
	if len(positions) < opts.MaxCities {
		logger.Warn("placed fewer cities than requested", "requested", opts.MaxCities, "placed", len(positions))
	}

	grid := rail.NewGrid(opts.Width, opts.Height)
	field := NewHintField(opts.Width, opts.Height)

	cities, cityCells := PlanConnections(positions, layout.CityRadius, layout.RailPairs, opts.GridMode, rng, field)

	connected := ConnectCities(grid, cities, cityCells, logger)
	report.Corridors = connected.Corridors
	report.RoutingFailures = connected.Failures

	freeRails := BuildInnerCities(grid, cities)
	stations := PlaceStations(freeRails)

	cells := make([]geom.Coord, 0, len(cityCells)+len(connected.Paths))
	cells = append(cells, cityCells...)
	cells = append(cells, connected.Paths...)
	report.FixedCells = RepairTransitions(grid, cells, field, rng)

	hints := Hints{
		CityPositions:    make([]geom.Coord, len(cities)),
		CityOrientations: make([]geom.Direction, len(cities)),
		TrainStations:    stations,
	}
	for i, c := range cities {
		hints.CityPositions[i] = c.Position
		hints.CityOrientations[i] = c.Orientation
	}

	logger.Debug("generated map",
		"size", [2]int{opts.Width, opts.Height},
		"cities", len(cities),
		"corridors", report.Corridors,
		"failures", report.RoutingFailures,
		"fixed", report.FixedCells)

	return &Map{
		Grid:      grid,
		Options:   opts,
		Hints:     hints,
		Cities:    cities,
		Links:     connected.Links,
		FreeRails: freeRails,
		Report:    report,
	}, nil
}

// placeCities runs the placement stage. Random layouts with cliques are redrawn up to
// MaxPlacementAttempts times; the last layout is kept if every attempt has
// a clique. A random layout with fewer than two cities falls back to the
// grid layout; city orientation still follows opts.GridMode.
func placeCities(opts Options, layout Layout, rng rail.Rand, report *Report) []geom.Coord {
	n, r := layout.MaxFeasibleCities, layout.CityRadius
	if opts.GridMode {
		return EvenCityPositions(n, r, opts.Width, opts.Height)
	}

	positions := RandomCityPositions(n, r, opts.Width, opts.Height, rng)
	if opts.MaxCities > cliqueCheckThreshold {
		for ContainsCliques(positions) {
			if report.CliqueRetries >= opts.MaxPlacementAttempts {
				opts.Logger.Warn("city layout still contains cliques", "attempts", report.CliqueRetries)
				break
			}
			report.CliqueRetries++
			positions = RandomCityPositions(n, r, opts.Width, opts.Height, rng)
		}
	}

	if len(positions) < 2 {
		opts.Logger.Warn("changing to grid mode to place at least 2 cities", "placed", len(positions))
		report.FellBackToGrid = true
		return EvenCityPositions(n, r, opts.Width, opts.Height)
	}
	return positions
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}
