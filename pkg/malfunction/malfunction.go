// Package malfunction decides when trains break down and for how long.
//
// Generators are independent of the rail network: they only look at the
// agent's current state. Each call returns the number of steps the agent
// stays broken, zero meaning no malfunction.
package malfunction

import (
	"math"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/geom"
)

// Rand is the random source a generator draws from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// AgentState is the runtime view of one agent.
type AgentState struct {
	Handle int

	// OnMap is false before departure and after arrival.
	OnMap           bool
	Position        geom.Coord
	InitialPosition geom.Coord

	// Active is true while the agent is moving or stopped on the map.
	Active bool

	// TravelTime is the estimated number of steps left on the shortest
	// path to the target.
	TravelTime int
}

// Malfunction is the outcome of one draw.
type Malfunction struct {
	BrokenSteps int `json:"broken_steps"`
}

// Generator draws malfunctions for agents.
type Generator interface {
	Generate(agent AgentState, rng Rand) Malfunction
}

// Params configures rate-based generators.
type Params struct {
	// Rate is the expected number of malfunctions per agent and step.
	Rate        float64 `json:"rate" toml:"rate"`
	MinDuration int     `json:"min_duration" toml:"min_duration"`
	MaxDuration int     `json:"max_duration" toml:"max_duration"`
}

// Validate checks that durations form a valid range.
func (p Params) Validate() error {
	if p.Rate < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "malfunction rate cannot be negative")
	}
	if p.MinDuration < 0 || p.MaxDuration < p.MinDuration {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid malfunction duration range [%d, %d]", p.MinDuration, p.MaxDuration)
	}
	return nil
}

// Probability converts a Poisson rate into the chance of at least one event
// in a single step.
func Probability(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate)
}

// =============================================================================
// Delay Model
// =============================================================================

const (
	maxDelay = 50

	// minBrokenSteps is the shortest malfunction. A single broken step
	// breaks trajectory bookkeeping downstream.
	minBrokenSteps = 2
)

// brokenSteps maps a uniform draw onto a duration from an exponential
// distribution with mean 10*expectedDelay, truncated to 1..50
// steps.
func brokenSteps(expectedDelay, u float64) int {
	param := 1 / (10 * expectedDelay)
	norm := 1 - math.Exp(-param*maxDelay)
	var cum [maxDelay]float64
	for i := range cum {
		cum[i] = (1 - math.Exp(-param*float64(i+1))) / norm
	}
	for i := 0; i < maxDelay-1; i++ {
		if cum[i] < u && u < cum[i+1] {
			return i + 2
		}
	}
	return minBrokenSteps
}

// Delay models departure and running time extensions. Agents waiting at
// their initial position rarely get a short departure delay; running agents
// break with a probability that shrinks with the remaining travel time.
//
// Every call draws exactly three numbers, so the random stream does not
// depend on the outcome.
type Delay struct {
	Params Params
}

// Generate implements Generator.
func (d Delay) Generate(agent AgentState, rng Rand) Malfunction {
	u0, u1, u2 := rng.Float64(), rng.Float64(), rng.Float64()

	var prob, delay float64
	if agent.Position == agent.InitialPosition {
		prob = 0.05
		switch {
		case u0 <= 0.48:
			delay = 0.2
		case u0 <= 0.8:
			delay = 0.5
		default:
			delay = 1
		}
	} else {
		scale := float64(agent.TravelTime + 1)
		switch {
		case u0 <= 0.48:
			prob, delay = 0.2/scale, 1.3
		case u0 <= 0.8:
			prob, delay = 0.5/scale, 2
		default:
			prob, delay = 0.5/scale, 5
		}
	}

	if !agent.OnMap || u1 >= prob {
		return Malfunction{}
	}
	return Malfunction{BrokenSteps: brokenSteps(delay, u2)}
}

// Fixed breaks on-map agents with a constant small probability and a mean
// delay of two. It is meant for tests and benchmarks.
type Fixed struct{}

const (
	fixedProbability = 0.2 / 15
	fixedDelay       = 2
)

// Generate implements Generator.
func (Fixed) Generate(agent AgentState, rng Rand) Malfunction {
	if !agent.OnMap {
		return Malfunction{}
	}
	if rng.Float64() >= fixedProbability {
		return Malfunction{}
	}
	return Malfunction{BrokenSteps: brokenSteps(fixedDelay, rng.Float64())}
}

// None never breaks anything.
type None struct{}

// Generate implements Generator.
func (None) Generate(AgentState, Rand) Malfunction { return Malfunction{} }

// Poisson breaks agents at Params.Rate and draws the duration uniformly from
// [MinDuration, MaxDuration].
type Poisson struct {
	Params Params
}

// Generate implements Generator.
func (p Poisson) Generate(_ AgentState, rng Rand) Malfunction {
	if rng.Float64() >= Probability(p.Params.Rate) {
		return Malfunction{}
	}
	span := p.Params.MaxDuration - p.Params.MinDuration + 1
	return Malfunction{BrokenSteps: rng.IntN(span) + p.Params.MinDuration}
}

// Single breaks exactly one active agent per episode, on or after its
// Earliest-th call. Call Reset between episodes. A Single must not be shared
// between concurrent episodes.
type Single struct {
	Earliest int
	Duration int

	fired bool
	calls map[int]int
}

// Generate implements Generator.
func (s *Single) Generate(agent AgentState, _ Rand) Malfunction {
	if s.fired {
		return Malfunction{}
	}
	if s.calls == nil {
		s.calls = make(map[int]int)
	}
	s.calls[agent.Handle]++
	if agent.Active && s.calls[agent.Handle] >= s.Earliest {
		s.fired = true
		return Malfunction{BrokenSteps: s.Duration}
	}
	return Malfunction{}
}

// Reset forgets earlier calls and allows another malfunction.
func (s *Single) Reset() {
	s.fired = false
	s.calls = nil
}

// FromName returns the generator registered under name. Recognized names
// are "none", "delay", "fixed" and "poisson".
func FromName(name string, p Params) (Generator, error) {
	switch name {
	case "", "none":
		return None{}, nil
	case "delay":
		return Delay{Params: p}, nil
	case "fixed":
		return Fixed{}, nil
	case "poisson":
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return Poisson{Params: p}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown malfunction generator %q", name)
}
