package pipeline

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/line"
	"github.com/matzehuels/railgen/pkg/malfunction"
)

func scheduleMap(t *testing.T) *generator.Map {
	t.Helper()
	m, err := generator.Generate(generator.Options{
		Width:              40,
		Height:             40,
		MaxCities:          4,
		MaxRailPairsInCity: 1,
		GridMode:           true,
		Seed:               42,
	})
	require.NoError(t, err)
	return m
}

func TestBuildSchedule(t *testing.T) {
	m := scheduleMap(t)

	s, err := BuildSchedule(m, ScheduleOptions{Agents: 4})
	require.NoError(t, err)
	assert.Len(t, s.Line.Positions, 4)
	assert.Len(t, s.Line.Targets, 4)
	assert.Empty(t, s.Breakdowns)

	again, err := BuildSchedule(m, ScheduleOptions{Agents: 4})
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestBuildScheduleDefaultsAgents(t *testing.T) {
	s, err := BuildSchedule(scheduleMap(t), ScheduleOptions{})
	require.NoError(t, err)
	assert.Len(t, s.Line.Positions, DefaultAgents)
}

func TestBuildScheduleUnknownMalfunction(t *testing.T) {
	_, err := BuildSchedule(scheduleMap(t), ScheduleOptions{Malfunction: "meteor"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func testLine() *line.Line {
	return &line.Line{
		Positions:       []geom.Coord{{Row: 0, Col: 0}, {Row: 5, Col: 5}},
		Targets:         []geom.Coord{{Row: 0, Col: 3}, {Row: 5, Col: 9}},
		Speeds:          []float64{1, 1},
		Directions:      []geom.Direction{geom.East, geom.East},
		MaxEpisodeSteps: 20,
	}
}

func TestPreviewBreakdownsSingle(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	got := previewBreakdowns(testLine(), &malfunction.Single{Earliest: 1, Duration: 3}, rng)
	assert.Equal(t, []Breakdown{{Agent: 0, Step: 0, Steps: 3}}, got)
}

func TestPreviewBreakdownsNone(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	assert.Empty(t, previewBreakdowns(testLine(), malfunction.None{}, rng))
}

func TestPreviewBreakdownsAlwaysBroken(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	gen := malfunction.Poisson{Params: malfunction.Params{Rate: 100, MinDuration: 2, MaxDuration: 2}}

	got := previewBreakdowns(testLine(), gen, rng)

	// A train that breaks on every draw never moves, so it breaks again as
	// soon as each repair finishes.
	require.Len(t, got, 20)
	for _, b := range got {
		assert.Equal(t, 2, b.Steps)
		assert.Zero(t, b.Step%2)
	}
}

func TestBuildScheduleSpeeds(t *testing.T) {
	m := scheduleMap(t)

	s, err := BuildSchedule(m, ScheduleOptions{Agents: 4, Speeds: []SpeedShare{{Speed: 0.5, Share: 1}}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, s.Line.Speeds)

	_, err = BuildSchedule(m, ScheduleOptions{Speeds: []SpeedShare{{Speed: 0, Share: 1}}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
