package rail

import (
	"container/heap"

	"github.com/matzehuels/railgen/pkg/geom"
)

// =============================================================================
// Straight Tracks
// =============================================================================

// DrawStraight lays a two-way straight track between a and b, which must
// share a row or a column. The returned cells are ordered from the smaller
// to the larger index, independent of argument order. Existing transitions
// are kept and the straight bits are added to them.
func (g *Grid) DrawStraight(a, b geom.Coord) []geom.Coord {
	dir := geom.DirectionToPoint(a, b)
	var path []geom.Coord
	if dir == geom.North || dir == geom.South {
		lo, hi := min(a.Row, b.Row), max(a.Row, b.Row)
		for r := lo; r <= hi; r++ {
			path = append(path, geom.C(r, a.Col))
		}
	} else {
		lo, hi := min(a.Col, b.Col), max(a.Col, b.Col)
		for c := lo; c <= hi; c++ {
			path = append(path, geom.C(a.Row, c))
		}
	}
	for _, c := range path {
		t := g.At(c).Set(dir, dir, true).Set(dir.Mirror(), dir.Mirror(), true)
		g.SetAt(c, t)
	}
	return path
}

// FixInnerNode turns the end cell of a straight track into a curve when
// exactly two of its neighbours carry rail. The dead-end bits the two
// neighbours had pointing back at c are cleared.
func (g *Grid) FixInnerNode(c geom.Coord) {
	var corners []geom.Direction
	for _, d := range geom.Directions {
		if g.At(c.Step(d)) != Empty {
			corners = append(corners, d)
		}
	}
	if len(corners) != 2 {
		return
	}
	a, b := corners[0], corners[1]
	g.SetAt(c, Empty.Set(a.Mirror(), b, true).Set(b.Mirror(), a, true))
	g.SetTransition(c.Step(a), a, a.Mirror(), false)
	g.SetTransition(c.Step(b), b, b.Mirror(), false)
}

// =============================================================================
// Routed Paths
// =============================================================================

// RouteOptions controls ConnectRail.
type RouteOptions struct {
	// AvoidRail adds a unit penalty to the heuristic of cells that already
	// carry rail, so routes prefer open ground without forbidding crossings.
	AvoidRail bool

	// Forbidden cells are never entered, except when they are the start or
	// the end of the route.
	Forbidden map[geom.Coord]bool
}

// ConnectRail routes a path from start to end and draws it.
//
// Interior cells get both the forward and the backward transition. An
// endpoint that is still empty is left empty so a later stage can decide how
// it joins its track; an endpoint that already carries rail is extended
// straight into the route. The route is returned start first, or nil when no
// route of at least two cells exists.
func (g *Grid) ConnectRail(start, end geom.Coord, opts RouteOptions) []geom.Coord {
	path := g.AStar(start, end, opts)
	if len(path) < 2 {
		return nil
	}

	curDir, _ := geom.StepDirection(path[0], path[1])
	for i := 0; i < len(path)-1; i++ {
		cur, next := path[i], path[i+1]
		newDir, err := geom.StepDirection(cur, next)
		if err != nil {
			return nil
		}

		t := g.At(cur)
		if i == 0 {
			if t != Empty {
				t = t.Set(curDir, newDir, true)
			}
		} else {
			t = t.Set(curDir, newDir, true).Set(newDir.Mirror(), curDir.Mirror(), true)
		}
		g.SetAt(cur, t)

		if next == end {
			if te := g.At(end); te != Empty {
				g.SetAt(end, te.Set(newDir, newDir, true))
			}
		}
		curDir = newDir
	}
	return path
}

// AStar finds a shortest 4-connected route from start to end without drawing
// it. Ties between equally promising cells go to the one discovered first,
// which makes the result a pure function of the grid and the endpoints.
func (g *Grid) AStar(start, end geom.Coord, opts RouteOptions) []geom.Coord {
	if !g.InBounds(start) || !g.InBounds(end) {
		return nil
	}

	parent := map[geom.Coord]geom.Coord{}
	closed := map[geom.Coord]bool{}
	opened := map[geom.Coord]bool{start: true}
	gScore := map[geom.Coord]int{start: 0}

	open := &nodeQueue{}
	seq := 0
	heap.Push(open, &node{pos: start, f: 0, seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		closed[cur.pos] = true

		if cur.pos == end {
			var path []geom.Coord
			for p := end; ; p = parent[p] {
				path = append(path, p)
				if p == start {
					break
				}
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, step := range searchOrder {
			next := cur.pos.Add(step)
			if !g.InBounds(next) {
				continue
			}
			if opts.Forbidden[next] && next != start && next != end {
				continue
			}
			if closed[next] || opened[next] {
				continue
			}
			cost := gScore[cur.pos] + 1
			h := geom.Manhattan(next, end)
			if opts.AvoidRail && g.At(next) != Empty {
				h++
			}
			gScore[next] = cost
			parent[next] = cur.pos
			opened[next] = true
			seq++
			heap.Push(open, &node{pos: next, f: cost + h, seq: seq})
		}
	}
	return nil
}

// searchOrder is the neighbour expansion order: West, East, North, South.
var searchOrder = [4]geom.Coord{{Row: 0, Col: -1}, {Row: 0, Col: 1}, {Row: -1, Col: 0}, {Row: 1, Col: 0}}

type node struct {
	pos geom.Coord
	f   int
	seq int
}

// nodeQueue orders nodes by f, then by discovery order.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*node)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
