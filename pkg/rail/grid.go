package rail

import (
	"fmt"

	"github.com/matzehuels/railgen/pkg/geom"
)

// Grid is a height x width array of transition masks.
//
// A Grid is not safe for concurrent mutation. Generators own their grid
// exclusively while drawing and hand it out read-only afterwards.
type Grid struct {
	width  int
	height int
	cells  []Transition
}

// NewGrid returns an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Transition, width*height),
	}
}

// FromRaw rebuilds a grid from row-major transition data.
func FromRaw(width, height int, raw []uint16) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(raw) != width*height {
		return nil, fmt.Errorf("raw grid has %d cells, want %d", len(raw), width*height)
	}
	g := NewGrid(width, height)
	for i, v := range raw {
		g.cells[i] = Transition(v)
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c geom.Coord) bool {
	return c.Row >= 0 && c.Row < g.height && c.Col >= 0 && c.Col < g.width
}

// At returns the mask of cell c. Cells outside the grid are empty.
func (g *Grid) At(c geom.Coord) Transition {
	if !g.InBounds(c) {
		return Empty
	}
	return g.cells[c.Row*g.width+c.Col]
}

// SetAt overwrites the mask of cell c.
func (g *Grid) SetAt(c geom.Coord, t Transition) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row*g.width+c.Col] = t
}

// Get reports whether a train in c with the given heading may leave with exit.
func (g *Grid) Get(c geom.Coord, heading, exit geom.Direction) bool {
	return g.At(c).Get(heading, exit)
}

// SetTransition switches a single (heading, exit) bit of cell c.
func (g *Grid) SetTransition(c geom.Coord, heading, exit geom.Direction, on bool) {
	g.SetAt(c, g.At(c).Set(heading, exit, on))
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := NewGrid(g.width, g.height)
	copy(out.cells, g.cells)
	return out
}

// Raw returns the row-major transition data.
func (g *Grid) Raw() []uint16 {
	raw := make([]uint16, len(g.cells))
	for i, t := range g.cells {
		raw[i] = uint16(t)
	}
	return raw
}

// Equal reports whether two grids have identical size and content.
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// RailCells returns every non-empty cell in row-major order.
func (g *Grid) RailCells() []geom.Coord {
	var out []geom.Coord
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			if g.cells[r*g.width+c] != Empty {
				out = append(out, geom.C(r, c))
			}
		}
	}
	return out
}

// incoming reports, for each direction, whether the neighbour on that side
// has any transition leading into c.
func (g *Grid) incoming(c geom.Coord) [4]bool {
	var in [4]bool
	for _, d := range geom.Directions {
		n := c.Step(d)
		if !g.InBounds(n) {
			continue
		}
		t := g.At(n)
		for _, heading := range geom.Directions {
			if t.Get(heading, d.Mirror()) {
				in[d] = true
				break
			}
		}
	}
	return in
}
