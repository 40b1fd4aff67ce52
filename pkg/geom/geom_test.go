package geom

import "testing"

func TestManhattan(t *testing.T) {
	tests := []struct {
		a, b Coord
		want int
	}{
		{C(0, 0), C(0, 0), 0},
		{C(0, 0), C(3, 4), 7},
		{C(5, 2), C(1, 8), 10},
		{C(-1, -1), C(1, 1), 4},
	}
	for _, tt := range tests {
		if got := Manhattan(tt.a, tt.b); got != tt.want {
			t.Errorf("Manhattan(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMirror(t *testing.T) {
	want := map[Direction]Direction{North: South, East: West, South: North, West: East}
	for d, m := range want {
		if got := d.Mirror(); got != m {
			t.Errorf("%v.Mirror() = %v, want %v", d, got, m)
		}
	}
}

func TestStepDirection(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Coord
		want    Direction
		wantErr bool
	}{
		{"north", C(5, 5), C(4, 5), North, false},
		{"east", C(5, 5), C(5, 6), East, false},
		{"south", C(5, 5), C(6, 5), South, false},
		{"west", C(5, 5), C(5, 4), West, false},
		{"diagonal", C(5, 5), C(6, 6), NoDirection, true},
		{"same", C(5, 5), C(5, 5), NoDirection, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StepDirection(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StepDirection() err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("StepDirection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionToPoint(t *testing.T) {
	tests := []struct {
		name string
		a, b Coord
		want Direction
	}{
		{"target above", C(10, 10), C(2, 11), North},
		{"target below", C(10, 10), C(20, 12), South},
		{"target left", C(10, 10), C(9, 1), West},
		{"target right", C(10, 10), C(11, 30), East},
		{"tie prefers rows", C(10, 10), C(5, 15), North},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirectionToPoint(tt.a, tt.b); got != tt.want {
				t.Errorf("DirectionToPoint(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStepRoundTrip(t *testing.T) {
	origin := C(3, 3)
	for _, d := range Directions {
		next := origin.Step(d)
		got, err := StepDirection(origin, next)
		if err != nil || got != d {
			t.Errorf("StepDirection(origin, origin.Step(%v)) = %v, %v", d, got, err)
		}
	}
}
