// Package render draws generated rail maps.
//
// # Overview
//
// Two renderers work directly on the transition grid:
//
//   - [ASCII] draws one box-drawing character per cell, optionally coloured
//     with lipgloss for terminal output
//   - [SVG] draws every track segment, city squares and stations
//
// The [nodelink] subpackage renders the city connectivity graph with
// Graphviz instead of the grid itself.
//
// # Cell Glyphs
//
// A cell's glyph depends only on which of its four edges carry track, as
// reported by [rail.Transition.Sides]. Straight pieces and curves map to
// the light box-drawing set; switches map to the tee glyphs and crossings
// and slips to a cross. Cells with a single touched edge are dead ends.
//
//	svg := render.SVG(m, render.WithCellSize(12), render.WithStations())
//	txt := render.ASCII(m, render.ASCIIOptions{Stations: true})
//
// [nodelink]: github.com/matzehuels/railgen/pkg/render/nodelink
// [rail.Transition.Sides]: github.com/matzehuels/railgen/pkg/rail.Transition.Sides
package render

import "slices"

// Formats lists the output formats understood by the pipeline.
var Formats = []string{FormatText, FormatSVG, FormatDOT, FormatGraphSVG, FormatGraphPNG}

// Output format names.
const (
	FormatText     = "txt"
	FormatSVG      = "svg"
	FormatDOT      = "dot"
	FormatGraphSVG = "graph.svg"
	FormatGraphPNG = "graph.png"
)

// IsFormat reports whether name is a supported output format.
func IsFormat(name string) bool {
	return slices.Contains(Formats, name)
}
