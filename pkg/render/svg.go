package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// DefaultCellSize is the edge length of one grid cell in SVG units.
const DefaultCellSize = 10

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cellSize int
	grid     bool
	stations bool
}

func WithCellSize(n int) SVGOption { return func(r *svgRenderer) { r.cellSize = n } }
func WithGridLines() SVGOption     { return func(r *svgRenderer) { r.grid = true } }
func WithStations() SVGOption      { return func(r *svgRenderer) { r.stations = true } }

// SVG renders the rail grid. Each touched cell edge becomes a segment from
// the cell centre to the middle of that edge, so neighbouring segments join
// into continuous tracks.
func SVG(m *generator.Map, opts ...SVGOption) []byte {
	r := svgRenderer{cellSize: DefaultCellSize}
	for _, opt := range opts {
		opt(&r)
	}
	if r.cellSize <= 0 {
		r.cellSize = DefaultCellSize
	}
	cs := float64(r.cellSize)
	w := float64(m.Grid.Width()) * cs
	h := float64(m.Grid.Height()) * cs

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="#fafafa"/>`+"\n", w, h)

	for i, c := range m.Cities {
		x := float64(c.Position.Col-c.Radius) * cs
		y := float64(c.Position.Row-c.Radius) * cs
		side := float64(2*c.Radius+1) * cs
		fmt.Fprintf(&buf, `  <rect class="city" id="city-%d" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#d8efe9" stroke="#2a9d8f" stroke-width="%.1f"/>`+"\n",
			i, x, y, side, side, cs/10)
	}

	if r.grid {
		renderGridLines(&buf, m.Grid.Width(), m.Grid.Height(), cs)
	}

	fmt.Fprintf(&buf, `  <g class="rails" stroke="#333" stroke-width="%.1f" stroke-linecap="round">`+"\n", cs/4)
	for row := range m.Grid.Height() {
		for col := range m.Grid.Width() {
			t := m.Grid.At(geom.C(row, col))
			if t == rail.Empty {
				continue
			}
			renderCell(&buf, row, col, t, cs)
		}
	}
	buf.WriteString("  </g>\n")

	if r.stations {
		for i, city := range m.Hints.TrainStations {
			for _, s := range city {
				fmt.Fprintf(&buf, `  <circle class="station" data-city="%d" cx="%.1f" cy="%.1f" r="%.1f" fill="#e9c46a" stroke="#333" stroke-width="%.1f"/>`+"\n",
					i, (float64(s.Position.Col)+0.5)*cs, (float64(s.Position.Row)+0.5)*cs, cs/3, cs/20)
			}
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderCell(buf *bytes.Buffer, row, col int, t rail.Transition, cs float64) {
	cx := (float64(col) + 0.5) * cs
	cy := (float64(row) + 0.5) * cs
	for d, on := range t.Sides() {
		if !on {
			continue
		}
		off := geom.Direction(d).Offset()
		x := cx + float64(off.Col)*cs/2
		y := cy + float64(off.Row)*cs/2
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", cx, cy, x, y)
	}
}

func renderGridLines(buf *bytes.Buffer, w, h int, cs float64) {
	buf.WriteString(`  <g class="grid" stroke="#e0e0e0" stroke-width="0.5">` + "\n")
	for c := 0; c <= w; c++ {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", float64(c)*cs, float64(c)*cs, float64(h)*cs)
	}
	for r := 0; r <= h; r++ {
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", float64(r)*cs, float64(w)*cs, float64(r)*cs)
	}
	buf.WriteString("  </g>\n")
}
