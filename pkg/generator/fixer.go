package generator

import (
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// RepairTransitions rewrites every cell among cells whose transitions do not
// agree with its neighbours, using the preferred heading from field. It
// returns the number of repairs made.
//
// Invalid cells are collected first and repaired afterwards in one pass.
// Repairs are not re-checked: the stages run before this one are assumed to
// leave nothing that needs a second pass. A cell listed more than once is
// repaired more than once.
func RepairTransitions(grid *rail.Grid, cells []geom.Coord, field *HintField, rng rail.Rand) int {
	type repair struct {
		cell geom.Coord
		hint geom.Direction
	}
	var todo []repair
	for _, c := range cells {
		if !grid.CellNeighboursValid(c, true) {
			todo = append(todo, repair{cell: c, hint: field.At(c)})
		}
	}
	for _, r := range todo {
		grid.FixTransitions(r.cell, r.hint, rng)
	}
	return len(todo)
}
