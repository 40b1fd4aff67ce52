// Package geom provides integer grid coordinates and compass directions.
//
// Coordinates are (row, column) pairs. Row 0 is the top edge of the map and
// column 0 the left edge, so heading North decreases the row index and
// heading East increases the column index.
package geom

import "fmt"

// Coord is a cell position on the grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// C is shorthand for constructing a Coord.
func C(row, col int) Coord {
	return Coord{Row: row, Col: col}
}

// String implements fmt.Stringer.
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
}

// Sub returns c - d.
func (c Coord) Sub(d Coord) Coord {
	return Coord{Row: c.Row - d.Row, Col: c.Col - d.Col}
}

// Step returns the neighbouring cell in direction d.
func (c Coord) Step(d Direction) Coord {
	return c.Add(d.Offset())
}

// Manhattan returns the L1 distance between a and b.
func Manhattan(a, b Coord) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// =============================================================================
// Directions
// =============================================================================

// Direction is one of the four compass headings.
type Direction int

const (
	North Direction = 0
	East  Direction = 1
	South Direction = 2
	West  Direction = 3

	// NoDirection marks an unset heading.
	NoDirection Direction = -1
)

// Directions lists the four headings in index order.
var Directions = [4]Direction{North, East, South, West}

var offsets = [4]Coord{
	North: {Row: -1, Col: 0},
	East:  {Row: 0, Col: 1},
	South: {Row: 1, Col: 0},
	West:  {Row: 0, Col: -1},
}

// Offset returns the unit step for the direction.
func (d Direction) Offset() Coord {
	return offsets[d]
}

// Mirror returns the opposite heading.
func (d Direction) Mirror() Direction {
	return (d + 2) % 4
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return "-"
}

// StepDirection returns the heading that moves from a to the adjacent cell b.
// It fails when a and b are not 4-neighbours.
func StepDirection(a, b Coord) (Direction, error) {
	diff := b.Sub(a)
	for _, d := range Directions {
		if offsets[d] == diff {
			return d, nil
		}
	}
	return NoDirection, fmt.Errorf("cells %s and %s are not adjacent", a, b)
}

// DirectionToPoint returns the dominant heading pointing from a towards b.
// The axis with the larger absolute difference wins; rows win ties.
func DirectionToPoint(a, b Coord) Direction {
	dr := a.Row - b.Row
	dc := a.Col - b.Col
	if dr*dr >= dc*dc {
		if dr > 0 {
			return North
		}
		return South
	}
	if dc > 0 {
		return West
	}
	return East
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
