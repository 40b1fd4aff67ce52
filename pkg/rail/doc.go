// Package rail implements the cell transition grid that a railway network is
// drawn on.
//
// Every cell holds a 16-bit [Transition] mask. The mask is split into four
// nibbles, one per heading a train can have when it occupies the cell
// (North, East, South, West, most significant nibble first). Within a
// nibble, the bits say which headings the train may leave the cell with,
// again in N, E, S, W order from the most significant bit.
//
// The set of legal masks is fixed: the eleven base elements in [BaseCells]
// (straight, curves, switches, crossings, slips, dead end) and their
// rotations by 90, 180 and 270 degrees. Drawing routines may temporarily
// produce illegal masks; [Grid.CellNeighboursValid] detects them and
// [Grid.FixTransitions] rewrites a cell from its neighbourhood.
//
// # Drawing
//
//   - [Grid.DrawStraight] lays a straight double-ended track along a row or
//     column.
//   - [Grid.ConnectRail] routes a path between two cells with A* and writes
//     forward and backward transitions along it.
//   - [Grid.FixInnerNode] bends the end of a straight track onto the single
//     neighbour it must join.
//
// # Queries
//
// [Grid.PathExists] searches the (cell, heading) state space for a route
// between two cells, which is how agents' initial headings are chosen.
package rail
