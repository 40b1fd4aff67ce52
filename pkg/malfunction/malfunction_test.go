package malfunction

import (
	"testing"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/geom"
)

// seqRand replays fixed floats and always returns 0 from IntN.
type seqRand struct {
	floats []float64
	drawn  int
}

func (r *seqRand) Float64() float64 {
	f := r.floats[r.drawn%len(r.floats)]
	r.drawn++
	return f
}

func (r *seqRand) IntN(int) int { return 0 }

func TestProbability(t *testing.T) {
	if got := Probability(0); got != 0 {
		t.Errorf("Probability(0) = %v, want 0", got)
	}
	if got := Probability(-1); got != 0 {
		t.Errorf("Probability(-1) = %v, want 0", got)
	}
	if got := Probability(1); got < 0.632 || got > 0.633 {
		t.Errorf("Probability(1) = %v, want 1-1/e", got)
	}
}

func TestBrokenSteps(t *testing.T) {
	tests := []struct {
		delay float64
		u     float64
		want  int
	}{
		{2, 0.001, 2},
		{2, 0.06, 2},
		{2, 0.2, 5},
		{2, 0.999, 50},
		{0.2, 0.5, 2},
		{5, 0.2, 7},
	}
	for _, tt := range tests {
		if got := brokenSteps(tt.delay, tt.u); got != tt.want {
			t.Errorf("brokenSteps(%v, %v) = %d, want %d", tt.delay, tt.u, got, tt.want)
		}
	}
}

func TestDelay(t *testing.T) {
	home := geom.C(3, 4)
	waiting := AgentState{OnMap: true, Position: home, InitialPosition: home}
	running := AgentState{OnMap: true, Position: geom.C(5, 5), InitialPosition: home, TravelTime: 9}

	tests := []struct {
		name   string
		agent  AgentState
		floats []float64
		want   int
	}{
		{"departure delay", waiting, []float64{0.1, 0.01, 0.5}, 2},
		{"no departure delay", waiting, []float64{0.1, 0.9, 0.5}, 0},
		{"running delay", running, []float64{0.9, 0.04, 0.2}, 7},
		{"running without delay", running, []float64{0.9, 0.06, 0.2}, 0},
		{"off map", AgentState{}, []float64{0.1, 0.0, 0.5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &seqRand{floats: tt.floats}
			got := Delay{}.Generate(tt.agent, rng)
			if got.BrokenSteps != tt.want {
				t.Errorf("BrokenSteps = %d, want %d", got.BrokenSteps, tt.want)
			}
			if rng.drawn != 3 {
				t.Errorf("drew %d numbers, want 3", rng.drawn)
			}
		})
	}
}

func TestFixed(t *testing.T) {
	agent := AgentState{OnMap: true}
	if got := (Fixed{}).Generate(agent, &seqRand{floats: []float64{0.001, 0.2}}); got.BrokenSteps != 5 {
		t.Errorf("BrokenSteps = %d, want 5", got.BrokenSteps)
	}
	if got := (Fixed{}).Generate(agent, &seqRand{floats: []float64{0.5}}); got.BrokenSteps != 0 {
		t.Errorf("BrokenSteps = %d, want 0", got.BrokenSteps)
	}
	if got := (Fixed{}).Generate(AgentState{}, &seqRand{floats: []float64{0}}); got.BrokenSteps != 0 {
		t.Errorf("off-map agent broke for %d steps", got.BrokenSteps)
	}
}

func TestPoisson(t *testing.T) {
	p := Poisson{Params: Params{Rate: 1, MinDuration: 3, MaxDuration: 8}}
	if got := p.Generate(AgentState{}, &seqRand{floats: []float64{0.1}}); got.BrokenSteps != 3 {
		t.Errorf("BrokenSteps = %d, want 3", got.BrokenSteps)
	}
	if got := p.Generate(AgentState{}, &seqRand{floats: []float64{0.9}}); got.BrokenSteps != 0 {
		t.Errorf("BrokenSteps = %d, want 0", got.BrokenSteps)
	}

	never := Poisson{Params: Params{Rate: 0, MinDuration: 1, MaxDuration: 2}}
	if got := never.Generate(AgentState{}, &seqRand{floats: []float64{0}}); got.BrokenSteps != 0 {
		t.Errorf("zero rate broke an agent for %d steps", got.BrokenSteps)
	}
}

func TestNone(t *testing.T) {
	if got := (None{}).Generate(AgentState{OnMap: true}, &seqRand{floats: []float64{0}}); got.BrokenSteps != 0 {
		t.Errorf("None broke an agent for %d steps", got.BrokenSteps)
	}
}

func TestSingle(t *testing.T) {
	s := &Single{Earliest: 2, Duration: 6}
	active := AgentState{Handle: 1, Active: true}

	if got := s.Generate(active, nil); got.BrokenSteps != 0 {
		t.Fatalf("first call broke the agent")
	}
	if got := s.Generate(AgentState{Handle: 2}, nil); got.BrokenSteps != 0 {
		t.Fatalf("inactive agent broke")
	}
	if got := s.Generate(active, nil); got.BrokenSteps != 6 {
		t.Fatalf("second call BrokenSteps = %d, want 6", got.BrokenSteps)
	}
	if got := s.Generate(active, nil); got.BrokenSteps != 0 {
		t.Fatalf("a second malfunction fired")
	}

	s.Reset()
	s.Generate(active, nil)
	if got := s.Generate(active, nil); got.BrokenSteps != 6 {
		t.Errorf("after Reset BrokenSteps = %d, want 6", got.BrokenSteps)
	}
}

func TestFromName(t *testing.T) {
	for _, name := range []string{"", "none", "delay", "fixed", "poisson"} {
		if _, err := FromName(name, Params{Rate: 0.1, MinDuration: 1, MaxDuration: 3}); err != nil {
			t.Errorf("FromName(%q) error = %v", name, err)
		}
	}
	if _, err := FromName("random", Params{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("FromName(random) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if _, err := FromName("poisson", Params{MinDuration: 4, MaxDuration: 2}); err == nil {
		t.Error("FromName accepted an inverted duration range")
	}
}
