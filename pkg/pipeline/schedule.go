package pipeline

import (
	"math/rand/v2"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/line"
	"github.com/matzehuels/railgen/pkg/malfunction"
)

// DefaultAgents is the number of trains placed when none is requested.
const DefaultAgents = 2

// ScheduleOptions configures train placement on a generated map.
type ScheduleOptions struct {
	Agents int `json:"agents,omitempty" toml:"agents"`

	// Seed defaults to the seed the map was generated with.
	Seed      *uint64      `json:"seed,omitempty" toml:"seed"`
	NumResets int          `json:"num_resets,omitempty" toml:"num_resets"`
	Speeds    []SpeedShare `json:"speeds,omitempty" toml:"speeds"`

	// Malfunction names the breakdown model previewed for the schedule.
	// Empty means no preview.
	Malfunction string             `json:"malfunction,omitempty" toml:"malfunction"`
	Params      malfunction.Params `json:"malfunction_params" toml:"malfunction_params"`
}

// SpeedShare is the fraction of trains running at one speed.
type SpeedShare struct {
	Speed float64 `json:"speed" toml:"speed"`
	Share float64 `json:"share" toml:"share"`
}

// Schedule is a line plus the breakdowns drawn for it.
type Schedule struct {
	Line       *line.Line  `json:"line"`
	Breakdowns []Breakdown `json:"breakdowns,omitempty"`
}

// Breakdown is one malfunction of one agent.
type Breakdown struct {
	Agent int `json:"agent"`
	Step  int `json:"step"`
	Steps int `json:"steps"`
}

// BuildSchedule places trains on m and, if a malfunction model is named,
// draws the breakdowns each train would suffer during the episode.
func BuildSchedule(m *generator.Map, opts ScheduleOptions) (*Schedule, error) {
	if opts.Agents == 0 {
		opts.Agents = DefaultAgents
	}
	seed := m.Options.Seed
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	gen, err := malfunction.FromName(opts.Malfunction, opts.Params)
	if err != nil {
		return nil, err
	}
	if m.Grid == nil {
		return nil, errors.New(errors.ErrCodeInvalidMap, "map has no grid")
	}

	sparse := line.Sparse{Seed: seed}
	if len(opts.Speeds) > 0 {
		sparse.SpeedRatios = make(map[float64]float64, len(opts.Speeds))
		for _, s := range opts.Speeds {
			if s.Speed <= 0 || s.Share < 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "invalid speed share %v:%v", s.Speed, s.Share)
			}
			sparse.SpeedRatios[s.Speed] += s.Share
		}
	}
	l, err := sparse.Generate(m.Grid, m.Hints, opts.Agents, opts.NumResets)
	if err != nil {
		return nil, err
	}

	s := &Schedule{Line: l}
	if opts.Malfunction != "" {
		seed += uint64(opts.NumResets)
		s.Breakdowns = previewBreakdowns(l, gen, rand.New(rand.NewPCG(seed, seed^0x5eed)))
	}
	return s, nil
}

// previewBreakdowns draws malfunctions step by step. Movement is not
// simulated: an agent leaves its start after the first step, its travel time
// shrinks by its speed each step it is not broken, and it arrives when the
// travel time reaches zero or the step budget runs out.
func previewBreakdowns(l *line.Line, gen malfunction.Generator, rng malfunction.Rand) []Breakdown {
	n := len(l.Positions)
	remaining := make([]float64, n)
	brokenUntil := make([]int, n)
	for i := range n {
		remaining[i] = float64(geom.Manhattan(l.Positions[i], l.Targets[i]))
	}

	var out []Breakdown
	for step := range l.MaxEpisodeSteps {
		for i := range n {
			if remaining[i] <= 0 || step < brokenUntil[i] {
				continue
			}
			pos := l.Positions[i]
			if step > 0 {
				pos = l.Targets[i]
			}
			mf := gen.Generate(malfunction.AgentState{
				Handle:          i,
				OnMap:           true,
				Active:          true,
				Position:        pos,
				InitialPosition: l.Positions[i],
				TravelTime:      int(remaining[i]),
			}, rng)
			if mf.BrokenSteps > 0 {
				out = append(out, Breakdown{Agent: i, Step: step, Steps: mf.BrokenSteps})
				brokenUntil[i] = step + mf.BrokenSteps
				continue
			}
			if step > 0 {
				remaining[i] -= l.Speeds[i]
			}
		}
	}
	return out
}
