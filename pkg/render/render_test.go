package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// lineMap is a 3x5 map with one horizontal track on the middle row and a
// station in its centre.
func lineMap() *generator.Map {
	g := rail.NewGrid(5, 3)
	for c := range 5 {
		g.SetAt(geom.C(1, c), rail.StraightHorizontal)
	}
	return &generator.Map{
		Grid: g,
		Hints: generator.Hints{
			TrainStations: [][]generator.Station{{{Position: geom.C(1, 2)}}},
		},
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		name string
		t    rail.Transition
		want rune
	}{
		{"empty", rail.Empty, '·'},
		{"vertical", rail.StraightVertical, '│'},
		{"horizontal", rail.StraightHorizontal, '─'},
		{"right turn", rail.RightTurn, '┌'},
		{"dead end", rail.DeadEnd, '╷'},
		{"crossing", rail.DiamondCrossing, '┼'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Glyph(tt.t); got != tt.want {
				t.Errorf("Glyph(%v) = %q, want %q", tt.t, got, tt.want)
			}
		})
	}
}

func TestASCII(t *testing.T) {
	m := lineMap()

	got := ASCII(m, ASCIIOptions{})
	want := "·····\n─────\n·····\n"
	if got != want {
		t.Errorf("ASCII() =\n%s\nwant\n%s", got, want)
	}

	got = ASCII(m, ASCIIOptions{Stations: true})
	if lines := strings.Split(got, "\n"); lines[1] != "──S──" {
		t.Errorf("station row = %q, want %q", lines[1], "──S──")
	}
}

func TestASCIIColor(t *testing.T) {
	got := ASCII(lineMap(), ASCIIOptions{Color: true})
	if strings.Count(got, "\n") != 3 {
		t.Errorf("coloured output should keep one line per row, got %q", got)
	}
	if !strings.Contains(got, "─") {
		t.Error("coloured output lost the track glyphs")
	}
}

func TestSVG(t *testing.T) {
	svg := string(SVG(lineMap(), WithCellSize(10), WithStations(), WithGridLines()))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 50.0 30.0"`) {
		t.Errorf("unexpected header: %.80s", svg)
	}
	// Five straight cells, two half segments each.
	rails := svg[strings.Index(svg, `class="rails"`):]
	if n := strings.Count(rails[:strings.Index(rails, "</g>")], "<line"); n != 10 {
		t.Errorf("rail segments = %d, want 10", n)
	}
	if !strings.Contains(svg, `<circle class="station" data-city="0" cx="25.0" cy="15.0"`) {
		t.Error("missing station marker")
	}
	if !strings.Contains(svg, `class="grid"`) {
		t.Error("missing grid lines")
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("unterminated svg")
	}
}

func TestSVGDefaultCellSize(t *testing.T) {
	svg := string(SVG(lineMap(), WithCellSize(0)))
	if !strings.Contains(svg, `viewBox="0 0 50.0 30.0"`) {
		t.Errorf("cell size should default to %d", DefaultCellSize)
	}
	if strings.Contains(svg, "station") {
		t.Error("stations drawn without WithStations")
	}
}

func TestSVGCities(t *testing.T) {
	m := lineMap()
	m.Cities = []generator.City{{Position: geom.C(1, 2), Radius: 1}}
	svg := string(SVG(m))
	if !strings.Contains(svg, `<rect class="city" id="city-0" x="10.0" y="0.0" width="30.0" height="30.0"`) {
		t.Errorf("missing city square:\n%s", svg)
	}
}

func TestIsFormat(t *testing.T) {
	if !IsFormat("svg") || !IsFormat("graph.png") {
		t.Error("IsFormat rejected a supported format")
	}
	if IsFormat("pdf") {
		t.Error("IsFormat accepted pdf")
	}
}
