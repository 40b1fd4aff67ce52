package generator

import (
	"slices"

	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// HintField stores a preferred heading per cell. Cells outside cities
// have none; inside a city every cell points towards the centre line along
// the city's axis. Transition repair uses it to orient switches.
type HintField struct {
	width int
	cells []geom.Direction
}

// NewHintField returns a field with no preferred headings.
func NewHintField(width, height int) *HintField {
	cells := make([]geom.Direction, width*height)
	for i := range cells {
		cells[i] = geom.NoDirection
	}
	return &HintField{width: width, cells: cells}
}

// At returns the preferred heading of c, or NoDirection.
func (f *HintField) At(c geom.Coord) geom.Direction {
	i := c.Row*f.width + c.Col
	if c.Row < 0 || c.Col < 0 || c.Col >= f.width || i >= len(f.cells) {
		return geom.NoDirection
	}
	return f.cells[i]
}

// Set records the preferred heading of c.
func (f *HintField) Set(c geom.Coord, d geom.Direction) {
	i := c.Row*f.width + c.Col
	if c.Row < 0 || c.Col < 0 || c.Col >= f.width || i >= len(f.cells) {
		return
	}
	f.cells[i] = d
}

// AlignCellToCity returns the heading that points from cell back towards the
// centre line of a city with the given orientation. Cells on the centre line
// itself have no preferred heading.
func AlignCellToCity(center geom.Coord, orientation geom.Direction, cell geom.Coord) geom.Direction {
	if orientation%2 == 0 {
		switch {
		case center.Row > cell.Row:
			return orientation.Mirror()
		case center.Row < cell.Row:
			return orientation
		}
		return geom.NoDirection
	}
	switch {
	case center.Col > cell.Col:
		return orientation.Mirror()
	case center.Col < cell.Col:
		return orientation
	}
	return geom.NoDirection
}

// cityCells lists every cell of the city square in row-major order and
// records the preferred heading of each in field.
func cityCells(center geom.Coord, radius int, orientation geom.Direction, field *HintField) []geom.Coord {
	cells := make([]geom.Coord, 0, (2*radius+1)*(2*radius+1))
	for r := center.Row - radius; r <= center.Row+radius; r++ {
		for c := center.Col - radius; c <= center.Col+radius; c++ {
			cell := geom.C(r, c)
			cells = append(cells, cell)
			field.Set(cell, AlignCellToCity(center, orientation, cell))
		}
	}
	return cells
}

// nearestCities returns all city indices sorted by Manhattan distance from
// city i, the city itself first. Ties keep index order.
func nearestCities(positions []geom.Coord, i int) []int {
	order := make([]int, len(positions))
	for j := range order {
		order[j] = j
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return geom.Manhattan(positions[i], positions[a]) - geom.Manhattan(positions[i], positions[b])
	})
	return order
}

// PlanConnections orients every city and computes its connection points.
//
// A city faces its nearest neighbour (a random side in grid mode) and gets
// the same even number of points, between 2 and 2*railPairs, on that side
// and the opposite one. Slot offsets grow away from the centre line so the
// parallel tracks fan out; the two centre slots also get an outer point on
// the border. The returned cells cover every city square and are the cells
// corridors must route around.
func PlanConnections(positions []geom.Coord, radius, railPairs int, gridMode bool, rng rail.Rand, field *HintField) ([]City, []geom.Coord) {
	cities := make([]City, 0, len(positions))
	var cells []geom.Coord

	for i, pos := range positions {
		var orientation geom.Direction
		if gridMode {
			orientation = geom.Direction(rng.IntN(4))
		} else {
			orientation = geom.DirectionToPoint(pos, positions[nearestCities(positions, i)[1]])
		}
		city := City{Position: pos, Radius: radius, Orientation: orientation}
		cells = append(cells, cityCells(pos, radius, orientation, field)...)

		nPoints := (rng.IntN(railPairs) + 1) * 2
		startIdx := (nPoints - outRailsPerSide) / 2

		for _, side := range []geom.Direction{orientation, orientation.Mirror()} {
			for k := range nPoints {
				slot := k - startIdx
				dist := k - nPoints/2
				offset := abs(dist) + min(max(dist, 0), 1) + 1

				inner, outer := connectionPoint(pos, radius, side, slot, offset)
				city.Inner[side] = append(city.Inner[side], inner)
				if k >= startIdx && k < startIdx+outRailsPerSide {
					city.Outer[side] = append(city.Outer[side], outer)
				}
			}
		}
		cities = append(cities, city)
	}
	return cities, cells
}

// connectionPoint returns the inner and outer point of one slot on a side.
func connectionPoint(center geom.Coord, radius int, side geom.Direction, slot, offset int) (inner, outer geom.Coord) {
	r, c := center.Row, center.Col
	switch side {
	case geom.North:
		return geom.C(r-radius+offset, c+slot), geom.C(r-radius, c+slot)
	case geom.East:
		return geom.C(r+slot, c+radius-offset), geom.C(r+slot, c+radius)
	case geom.South:
		return geom.C(r+radius-offset, c+slot), geom.C(r+radius, c+slot)
	default:
		return geom.C(r+slot, c-radius+offset), geom.C(r+slot, c-radius)
	}
}
