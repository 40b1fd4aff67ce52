package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/railgen/pkg/generator"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the city position, orientation and station count in
	// node labels. When false, only the city index is shown.
	Detailed bool

	// Scale converts grid cells to diagram inches. Defaults to 0.1.
	Scale float64
}

// ToDOT converts the city graph of m to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Cities without any corridor are drawn with a dashed red outline.
func ToDOT(m *generator.Map, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = 0.1
	}

	linked := make([]bool, len(m.Cities))
	for _, l := range m.Links {
		linked[l.From] = true
		linked[l.To] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for i, c := range m.Cities {
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(m, i, opts.Detailed)),
			// Row grows downwards, Graphviz y grows upwards.
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", float64(c.Position.Col)*scale, -float64(c.Position.Row)*scale),
		}
		if !linked[i] {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "color=red")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(i), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range m.Links {
		fmt.Fprintf(&buf, "  %q -- %q [label=\"%d\", penwidth=%d];\n", nodeID(l.From), nodeID(l.To), l.Tracks, l.Tracks)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int) string {
	return "city" + strconv.Itoa(i)
}

func fmtLabel(m *generator.Map, i int, detailed bool) string {
	label := strconv.Itoa(i)
	if !detailed {
		return label
	}
	c := m.Cities[i]
	stations := 0
	if i < len(m.Hints.TrainStations) {
		stations = len(m.Hints.TrainStations[i])
	}
	return fmt.Sprintf("%s\npos: %v\nfacing: %v\nstations: %d", label, c.Position, c.Orientation, stations)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
