package rail

import (
	"github.com/matzehuels/railgen/pkg/geom"
)

// Rand is the random source used to break ties when repairing cells.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// CellNeighboursValid reports whether cell c is consistent with its
// neighbourhood: every direction the cell can be left through must lead to
// an in-bounds neighbour that accepts a train arriving with that heading,
// and an empty cell must not have neighbours pointing into it. With
// checkThis set, the mask itself must also be a legal element.
func (g *Grid) CellNeighboursValid(c geom.Coord, checkThis bool) bool {
	t := g.At(c)
	if checkThis && !IsValid(t) {
		return false
	}

	for _, out := range t.OutboundDirections() {
		n := c.Step(out)
		if !g.InBounds(n) {
			return false
		}
		if !g.At(n).HasExits(out) {
			return false
		}
	}

	if t == Empty {
		for _, in := range g.incoming(c) {
			if in {
				return false
			}
		}
	}
	return true
}

// InvalidCells returns every cell of the grid that fails
// CellNeighboursValid, in row-major order.
func (g *Grid) InvalidCells() []geom.Coord {
	var out []geom.Coord
	for r := 0; r < g.height; r++ {
		for col := 0; col < g.width; col++ {
			c := geom.C(r, col)
			if !g.CellNeighboursValid(c, true) {
				out = append(out, c)
			}
		}
	}
	return out
}

// FixTransitions rewrites cell c from the neighbours that lead into it.
//
// One incoming side turns a railed cell into a dead end (an empty cell stays
// empty). Two sides are joined by a straight or a curve. Three sides become a
// simple switch whose diverging leg follows hint, the preferred heading for
// the cell, or a random choice when hint is NoDirection or does not decide.
// Four sides become a double slip in a random orientation.
func (g *Grid) FixTransitions(c geom.Coord, hint geom.Direction, rng Rand) {
	in := g.incoming(c)
	var sides []geom.Direction
	for _, d := range geom.Directions {
		if in[d] {
			sides = append(sides, d)
		}
	}

	switch len(sides) {
	case 1:
		if g.At(c) == Empty {
			return
		}
		d := sides[0]
		g.SetAt(c, Empty.Set(d.Mirror(), d, true))

	case 2:
		a, b := sides[0], sides[1]
		t := Empty.Set(a.Mirror(), b, true).Set(b.Mirror(), a, true)
		g.SetAt(c, t)

	case 3:
		var hole geom.Direction
		for _, d := range geom.Directions {
			if !in[d] {
				hole = d
				break
			}
		}
		var t Transition
		switch switchKind(hint, hole) {
		case 0:
			t = switchWestSouth
		case 2:
			t = switchEastSouth
		default:
			if rng.IntN(2) == 0 {
				t = switchEastSouth
			} else {
				t = switchWestSouth
			}
		}
		g.SetAt(c, t.Rotate(int(hole)*90))

	case 4:
		g.SetAt(c, DoubleSlip.Rotate(rng.IntN(2)*90))
	}
}

// switchKind maps the preferred heading relative to the missing side onto
// the switch variant. Only 0 and 2 pick a fixed variant.
func switchKind(hint, hole geom.Direction) int {
	if !hint.Valid() {
		return -1
	}
	return int((hint - hole + 3) % 4)
}

// PathExists reports whether a train in start with the given heading can
// reach target by following the grid's transitions.
func (g *Grid) PathExists(start geom.Coord, heading geom.Direction, target geom.Coord) bool {
	type state struct {
		pos     geom.Coord
		heading geom.Direction
	}
	visited := make(map[state]bool)
	stack := []state{{start, heading}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.pos == target {
			return true
		}
		if visited[s] {
			continue
		}
		visited[s] = true
		for _, exit := range g.At(s.pos).Exits(s.heading) {
			next := s.pos.Step(exit)
			if g.InBounds(next) {
				stack = append(stack, state{next, exit})
			}
		}
	}
	return false
}
