package generator

import (
	"maps"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// =============================================================================
// Claims
// =============================================================================

// PointKey identifies one outer connection point.
type PointKey struct {
	City int
	Side geom.Direction
	Slot int
}

// ClaimSet records the outer points already used as corridor targets.
type ClaimSet map[PointKey]bool

type slotPoint struct {
	slot int
	pos  geom.Coord
}

// unclaimed returns the free outer points of one side, in slot order.
func (s ClaimSet) unclaimed(cities []City, city int, side geom.Direction) []slotPoint {
	var out []slotPoint
	for slot, p := range cities[city].Outer[side] {
		if !s[PointKey{City: city, Side: side, Slot: slot}] {
			out = append(out, slotPoint{slot: slot, pos: p})
		}
	}
	return out
}

// Connection is an ordered pair of city indices joined by a corridor.
type Connection struct {
	From int
	To   int
}

// Route is one track of a corridor, drawn from From to To.
type Route struct {
	From geom.Coord
	To   geom.Coord
}

// =============================================================================
// Matching
// =============================================================================

// SideMatch is the outcome of matching one side of a city against a
// neighbour.
type SideMatch struct {
	// Routes are the tracks to draw, in drawing order.
	Routes []Route

	// Claims is the claim set after matching. The input set is not modified.
	Claims ClaimSet

	// Connections lists the city pairs this side connected.
	Connections []Connection

	// Index is the running point counter after matching. The counter
	// carries over between the sides of one city so pairs stay aligned.
	Index int

	// Skipped counts outer points that found no usable partner.
	Skipped int
}

// MatchSide pairs the outer points on one side of city src with outer points
// of city nbr.
//
// Points are processed in pairs. For the first point of a pair the closest
// unclaimed outer point of the neighbour, on any of its sides, selects the
// target side; the two points of that side are assigned so the resulting
// tracks run parallel, and one of them is claimed. The second point of the
// pair then emits both routes, ordered so the first route does not cut
// across the second. A pair is skipped when nbr already connected back to
// src.
//
// Matching is greedy and reads nothing but city metadata, so it can be run
// without a grid.
func MatchSide(cities []City, src int, side geom.Direction, nbr int, index int, claims ClaimSet, connected map[Connection]bool) SideMatch {
	m := SideMatch{Claims: maps.Clone(claims), Index: index}
	if m.Claims == nil {
		m.Claims = ClaimSet{}
	}

	cityPos := cities[src].Position
	nbrPos := cities[nbr].Position

	var (
		cityDir       geom.Direction
		nbrPt, nextPt geom.Coord
		lastOut       geom.Coord
		paired        bool
	)

	for _, out := range cities[src].Outer[side] {
		if m.Index%2 == 0 {
			paired = false
			best := -1
			var bestPt geom.Coord
			var bestSide geom.Direction
			for _, d := range geom.Directions {
				for _, sp := range m.Claims.unclaimed(cities, nbr, d) {
					if dist := geom.Manhattan(out, sp.pos); best < 0 || dist < best {
						best, bestPt, bestSide = dist, sp.pos, d
					}
				}
			}
			if best < 0 {
				m.Skipped++
				m.Index += 2
				continue
			}

			cityDir = geom.DirectionToPoint(cityPos, out)
			nbrDir := geom.DirectionToPoint(nbrPos, bestPt)

			if connected[Connection{From: nbr, To: src}] {
				m.Index += 2
				continue
			}

			pts := m.Claims.unclaimed(cities, nbr, bestSide)
			if len(pts) < 2 {
				m.Skipped++
				m.Index += 2
				continue
			}
			first, second := pts[0], pts[1]
			if sum := cityDir + nbrDir; sum == 1 || sum == 5 || cityDir == nbrDir {
				first, second = pts[1], pts[0]
			}
			nbrPt, nextPt = first.pos, second.pos
			m.Claims[PointKey{City: nbr, Side: bestSide, Slot: first.slot}] = true
			lastOut = out
			paired = true
		} else if paired {
			conn := Connection{From: src, To: nbr}
			if crosses(cityDir, nbrPt, lastOut) {
				m.Routes = append(m.Routes, Route{From: out, To: nextPt}, Route{From: lastOut, To: nbrPt})
			} else {
				m.Routes = append(m.Routes, Route{From: lastOut, To: nbrPt}, Route{From: out, To: nextPt})
			}
			m.Connections = append(m.Connections, conn)
		}
		m.Index++
	}
	return m
}

// crosses reports whether drawing the first track of a pair before the
// second would make the second cut across it.
func crosses(cityDir geom.Direction, nbrPt, lastOut geom.Coord) bool {
	anti := (nbrPt.Row < lastOut.Row && nbrPt.Col > lastOut.Col) ||
		(nbrPt.Row > lastOut.Row && nbrPt.Col < lastOut.Col)
	diag := (nbrPt.Row < lastOut.Row && nbrPt.Col < lastOut.Col) ||
		(nbrPt.Row > lastOut.Row && nbrPt.Col > lastOut.Col)
	if cityDir == geom.North || cityDir == geom.East {
		return anti
	}
	return diag
}

// connectionSides picks the two sides of city i that get corridors and the
// neighbour each side connects to. Both sides are equal when only one pass
// is needed.
func connectionSides(cities []City, positions []geom.Coord, i int) (sides [2]geom.Direction, nbrs [2]int) {
	order := nearestCities(positions, i)
	n1 := order[1]
	n2 := n1
	if len(order) > 2 {
		n2 = order[2]
	}

	closest := geom.DirectionToPoint(positions[i], positions[n1])
	var second geom.Direction
	if len(cities[i].Outer[closest]) == 0 {
		closest = (closest + 1) % 4
		second = (closest + 2) % 4
	} else {
		second = geom.DirectionToPoint(positions[i], positions[n2])
		if len(cities[i].Outer[second]) == 0 {
			second = (closest + 2) % 4
		}
	}
	return [2]geom.Direction{closest, second}, [2]int{n1, n2}
}

// =============================================================================
// Drawing
// =============================================================================

// Link is a corridor between two cities and the number of tracks that were
// drawn for it.
type Link struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Tracks int `json:"tracks"`
}

// ConnectResult summarizes the corridors drawn by ConnectCities.
type ConnectResult struct {
	Paths     []geom.Coord
	Links     []Link
	Corridors int
	Failures  int
}

// ConnectCities routes corridors from every city towards its two nearest
// neighbours and draws them into grid. Routes never pass through city
// squares and prefer cells without rail. A route that cannot be drawn is
// logged and skipped.
func ConnectCities(grid *rail.Grid, cities []City, cityCells []geom.Coord, logger *log.Logger) ConnectResult {
	var res ConnectResult

	forbidden := make(map[geom.Coord]bool, len(cityCells))
	for _, c := range cityCells {
		forbidden[c] = true
	}
	opts := rail.RouteOptions{AvoidRail: true, Forbidden: forbidden}

	positions := make([]geom.Coord, len(cities))
	for i, c := range cities {
		positions[i] = c.Position
	}

	connected := map[Connection]bool{}
	linkIdx := map[Connection]int{}
	for i := range cities {
		sides, nbrs := connectionSides(cities, positions, i)
		index := 0
		for pass := range 2 {
			if pass == 1 && sides[1] == sides[0] {
				break
			}
			m := MatchSide(cities, i, sides[pass], nbrs[pass], index, nil, connected)
			index = m.Index
			res.Failures += m.Skipped
			for _, c := range m.Connections {
				connected[c] = true
			}
			for k, r := range m.Routes {
				path := grid.ConnectRail(r.From, r.To, opts)
				switch {
				case len(path) == 0:
					logger.Warn("no line added between stations", "from", r.From, "to", r.To)
					res.Failures++
				case path[0] != r.From || path[len(path)-1] != r.To:
					logger.Warn("unable to connect requested stations", "from", r.From, "to", r.To)
					res.Failures++
				default:
					res.Corridors++
					res.addTrack(linkIdx, m.Connections[k/2])
				}
				res.Paths = append(res.Paths, path...)
			}
		}
	}
	return res
}

func (r *ConnectResult) addTrack(idx map[Connection]int, c Connection) {
	i, ok := idx[c]
	if !ok {
		i = len(r.Links)
		idx[c] = i
		r.Links = append(r.Links, Link{From: c.From, To: c.To})
	}
	r.Links[i].Tracks++
}
