package generator

import (
	"math"

	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// RandomCityPositions places up to n cities by sampling uniformly from the
// cells that are still allowed. Each placed city blocks a square of
// half-side 2*(radius+1) around itself, which keeps city squares apart.
// Fewer than n positions are returned when the mask runs out.
func RandomCityPositions(n, radius, width, height int, rng rail.Rand) []geom.Coord {
	pad := radius + 1
	allowed := make([]bool, width*height)
	for r := pad; r < height-pad; r++ {
		for c := pad; c < width-pad; c++ {
			allowed[r*width+c] = true
		}
	}

	positions := make([]geom.Coord, 0, n)
	for range n {
		var candidates []int
		for i, ok := range allowed {
			if ok {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			break
		}
		idx := candidates[rng.IntN(len(candidates))]
		row, col := idx/width, idx%width

		rowStart, colStart := max(0, row-2*pad), max(0, col-2*pad)
		rowEnd, colEnd := min(height, row+2*pad+1), min(width, col+2*pad+1)
		for r := rowStart; r < rowEnd; r++ {
			for c := colStart; c < colEnd; c++ {
				allowed[r*width+c] = false
			}
		}
		positions = append(positions, geom.C(row, col))
	}
	return positions
}

// EvenCityPositions places up to n cities on a lattice whose shape follows
// the map's aspect ratio. The result does not depend on any seed.
func EvenCityPositions(n, radius, width, height int) []geom.Coord {
	const padding = 2
	aspect := float64(height) / float64(width)
	citySize := 2 * (radius + 1)
	maxPerRow := (height - padding) / citySize
	maxPerCol := (width - padding) / citySize

	perRow := min(int(math.Ceil(math.Sqrt(float64(n)*aspect))), maxPerRow)
	if perRow < 1 {
		return nil
	}
	perCol := min(int(math.Ceil(float64(n)/float64(perRow))), maxPerCol)
	count := min(n, perRow*perCol)

	rows := linspace(radius+2, height-(radius+2), perRow)
	cols := linspace(radius+2, width-(radius+2), perCol)

	positions := make([]geom.Coord, 0, count)
	for i := range count {
		positions = append(positions, geom.C(rows[i%perRow], cols[i/perRow]))
	}
	return positions
}

// linspace returns k evenly spaced integers from start to stop inclusive,
// truncated toward zero.
func linspace(start, stop, k int) []int {
	if k <= 0 {
		return nil
	}
	out := make([]int, k)
	if k == 1 {
		out[0] = start
		return out
	}
	step := float64(stop-start) / float64(k-1)
	for i := range k {
		out[i] = int(float64(start) + float64(i)*step)
	}
	out[k-1] = stop
	return out
}
