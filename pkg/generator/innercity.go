package generator

import (
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// BuildInnerCities draws the parallel station tracks of every city and joins
// the through tracks to the city's outer points.
//
// Tracks run between matching inner points on the two active sides. Their
// ends are bent into curves where they meet a neighbouring track, and the
// centre tracks are extended straight out to the border. The result holds
// one cell list per track per city, ordered by track index.
func BuildInnerCities(grid *rail.Grid, cities []City) [][][]geom.Coord {
	freeRails := make([][][]geom.Coord, len(cities))
	for ci, city := range cities {
		sides := city.ActiveSides()
		if len(sides) == 0 {
			continue
		}
		border := sides[0]
		opposite := border.Mirror()

		inner := city.Inner[border]
		nOut := len(city.Outer[border])
		startIdx := (len(inner) - nOut) / 2

		for k := range inner {
			track := grid.DrawStraight(inner[k], city.Inner[opposite][k])
			freeRails[ci] = append(freeRails[ci], track)
		}

		for k := range inner {
			source, target := inner[k], city.Inner[opposite][k]
			grid.FixInnerNode(source)
			grid.FixInnerNode(target)
			if k >= startIdx && k < startIdx+nOut {
				grid.DrawStraight(source, city.Outer[border][k-startIdx])
				grid.DrawStraight(target, city.Outer[opposite][k-startIdx])
			}
		}
	}
	return freeRails
}
