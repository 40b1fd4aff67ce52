// Package line assigns trains to a generated rail network: where each agent
// starts, which way it faces, where it has to go and how fast it runs.
//
// Agents come in pairs that travel between the same two cities in opposite
// directions. Start and target tracks are picked from the half of a city's
// stations that faces the other city, and the initial heading is one from
// which the target can actually be reached.
package line

import (
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
)

// Network is the part of a rail grid a line generator needs.
type Network interface {
	Width() int
	Height() int
	PathExists(start geom.Coord, heading geom.Direction, target geom.Coord) bool
}

// Line is the schedule for all agents of an episode. All slices are indexed
// by agent handle.
type Line struct {
	Positions  []geom.Coord     `json:"positions"`
	Directions []geom.Direction `json:"directions"`
	Targets    []geom.Coord     `json:"targets"`
	Speeds     []float64        `json:"speeds"`

	// MaxEpisodeSteps is a generous step budget for the episode.
	MaxEpisodeSteps int `json:"max_episode_steps"`
}

// Sparse generates lines for networks built by the generator package.
type Sparse struct {
	// SpeedRatios maps a speed to its share of agents. Shares should add up
	// to one. Without ratios every agent runs at speed 1. Float keys have no
	// JSON or TOML form, so the field is not serialized.
	SpeedRatios map[float64]float64 `json:"-" toml:"-"`

	Seed uint64 `json:"seed" toml:"seed"`
}

const (
	timeDelayFactor = 4
	alpha           = 2
)

// Generate places numAgents agents on the stations listed in hints.
// numResets shifts the seed the same way it does for map generation.
func (s Sparse) Generate(net Network, hints generator.Hints, numAgents, numResets int) (*Line, error) {
	if numAgents < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one agent is required, got %d", numAgents)
	}
	nCities := len(hints.CityPositions)
	if nCities < 2 || len(hints.TrainStations) != nCities || len(hints.CityOrientations) != nCities {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hints must describe at least 2 cities")
	}
	for i, st := range hints.TrainStations {
		if len(st) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "city %d has %d stations, need at least 2", i, len(st))
		}
	}

	seed := s.Seed + uint64(numResets)
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	radius := cityRadius(nCities)

	l := &Line{
		Positions:  make([]geom.Coord, 0, numAgents),
		Directions: make([]geom.Direction, 0, numAgents),
		Targets:    make([]geom.Coord, 0, numAgents),
	}

	var (
		city1, city2          int
		nextStart, nextTarget int
		startIdx, targetIdx   int
		orient1, orient2      []geom.Direction
		start, target         generator.Station
		orientation           geom.Direction
	)

	for agent := range numAgents {
		if agent%2 == 0 {
			city1 = rng.IntN(nCities)
			city2 = rng.IntN(nCities - 1)
			if city2 >= city1 {
				city2++
			}
			o1, o2 := hints.CityOrientations[city1], hints.CityOrientations[city2]
			orient1 = []geom.Direction{o1, o1.Mirror()}
			orient2 = []geom.Direction{o2, o2.Mirror()}

			startIdx, targetIdx, nextStart, nextTarget = pickTracks(rng,
				hints.CityPositions[city1], hints.CityPositions[city2], o1, o2,
				len(hints.TrainStations[city1]), len(hints.TrainStations[city2]), radius)

			start = hints.TrainStations[city1][startIdx]
			target = hints.TrainStations[city2][targetIdx]
			orientation = decideOrientation(net, start.Position, target.Position, orient1, rng)
		} else {
			start = hints.TrainStations[city2][nextStart]
			target = hints.TrainStations[city1][nextTarget]
			orientation = decideOrientation(net, start.Position, target.Position, orient2, rng)
		}

		l.Positions = append(l.Positions, start.Position)
		l.Targets = append(l.Targets, target.Position)
		l.Directions = append(l.Directions, orientation)
	}

	l.Speeds = s.speeds(numAgents, rng)
	l.MaxEpisodeSteps = int(timeDelayFactor * alpha *
		(float64(net.Width()+net.Height()) + float64(numAgents)/float64(nCities)))
	return l, nil
}

// cityRadius estimates how far apart two cities must be before a track on
// the far half of one faces away from the other.
func cityRadius(nCities int) int {
	switch {
	case nCities < 5:
		return 4
	case nCities < 9:
		return 5
	}
	return 6
}

// pickTracks chooses station indices for an agent pair travelling between
// city1 and city2: the first agent's start and target, then the second
// agent's start (in city2) and target (in city1). Each index comes from the
// lower or upper half of the city's stations, whichever faces the other
// city.
func pickTracks(rng *rand.Rand, p1, p2 geom.Coord, o1, o2 geom.Direction, n1, n2, radius int) (start, target, nextStart, nextTarget int) {
	half := func(n int, upper bool) int {
		if upper {
			return rng.IntN(n/2) + n/2
		}
		return rng.IntN(n / 2)
	}
	// pair draws two indices from opposite halves, the first one from the
	// upper half when upper is set.
	pair := func(n int, upper bool) (int, int) {
		a := half(n, upper)
		b := half(n, !upper)
		return a, b
	}

	vertical := func(o geom.Direction) bool { return o == geom.North || o == geom.South }
	dRow, dCol := p2.Row-p1.Row, p2.Col-p1.Col

	if vertical(o1) {
		if dRow > 0 {
			start, nextTarget = pair(n1, false)
			if vertical(o2) {
				target, nextStart = pair(n2, dRow <= radius+1)
			}
		} else {
			start, nextTarget = pair(n1, true)
			if vertical(o2) {
				target, nextStart = pair(n2, dRow < -radius-1)
			}
		}
		if !vertical(o2) {
			target, nextStart = pair(n2, dCol > 0)
		}
		return
	}

	if dCol > 0 {
		start, nextTarget = pair(n1, true)
		if !vertical(o2) {
			target, nextStart = pair(n2, dCol > radius+1)
		}
	} else {
		start, nextTarget = pair(n1, false)
		if !vertical(o2) {
			target, nextStart = pair(n2, dCol >= -radius-1)
		}
	}
	if vertical(o2) {
		target, nextStart = pair(n2, dRow <= 0)
	}
	return
}

// decideOrientation picks a random heading among candidates from which
// target can be reached, or North when none can.
func decideOrientation(net Network, start, target geom.Coord, candidates []geom.Direction, rng *rand.Rand) geom.Direction {
	var feasible []geom.Direction
	for _, o := range candidates {
		if net.PathExists(start, o, target) {
			feasible = append(feasible, o)
		}
	}
	if len(feasible) == 0 {
		return geom.North
	}
	return feasible[rng.IntN(len(feasible))]
}

// speeds draws one speed per agent from the ratio map. Speeds are visited
// in ascending order so the draw is reproducible.
func (s Sparse) speeds(n int, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	if len(s.SpeedRatios) == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	classes := make([]float64, 0, len(s.SpeedRatios))
	var total float64
	for speed, ratio := range s.SpeedRatios {
		classes = append(classes, speed)
		total += ratio
	}
	slices.Sort(classes)

	for i := range out {
		u := rng.Float64() * total
		out[i] = classes[len(classes)-1]
		for _, speed := range classes {
			if u < s.SpeedRatios[speed] {
				out[i] = speed
				break
			}
			u -= s.SpeedRatios[speed]
		}
	}
	return out
}
