package generator

import (
	"slices"

	"github.com/matzehuels/railgen/pkg/geom"
)

// ContainsCliques reports whether the layout has three or four cities that
// are each other's nearest neighbours. Such groups only connect among
// themselves and split the network.
//
// For every city the "triple" is the city plus its two nearest neighbours.
// A 3-clique exists when both neighbours have the same triple. When the three
// triples span exactly four cities, the fourth city's triple is checked for
// closure over those four. A closed group of four only counts when some city
// lies outside it; four cities on their own cannot split anything.
func ContainsCliques(positions []geom.Coord) bool {
	n := len(positions)
	if n < 3 {
		return false
	}

	nearest := make([][]int, n)
	for i := range positions {
		order := make([]int, n)
		for j := range order {
			order[j] = j
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return geom.Manhattan(positions[i], positions[a]) - geom.Manhattan(positions[i], positions[b])
		})
		nearest[i] = order
	}

	triple := func(i int) []int {
		t := slices.Clone(nearest[i][:3])
		slices.Sort(t)
		return t
	}

	for i := range positions {
		c := triple(i)
		c1 := triple(c[1])
		c2 := triple(c[2])
		if slices.Equal(c, c1) && slices.Equal(c, c2) {
			return true
		}

		cluster := uniqueInOrder(slices.Concat(c, c1, c2))
		if len(cluster) != 4 || n == 4 {
			continue
		}
		var extra int
		for _, m := range cluster {
			if !slices.Contains(c, m) {
				extra = m
				break
			}
		}
		if slices.Equal(cluster, uniqueInOrder(slices.Concat(cluster, triple(extra)))) {
			return true
		}
	}
	return false
}

func uniqueInOrder(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
