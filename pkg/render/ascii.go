package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// glyphs maps an edge set (bit 3-d set when edge d is touched) to a
// box-drawing character.
var glyphs = [16]rune{
	0b0000: '·',
	0b1000: '╵', // N
	0b0100: '╶', // E
	0b0010: '╷', // S
	0b0001: '╴', // W
	0b1010: '│',
	0b0101: '─',
	0b1100: '└',
	0b0110: '┌',
	0b0011: '┐',
	0b1001: '┘',
	0b1110: '├',
	0b0111: '┬',
	0b1011: '┤',
	0b1101: '┴',
	0b1111: '┼',
}

// Glyph returns the character drawn for a transition.
func Glyph(t rail.Transition) rune {
	var bits int
	for d, on := range t.Sides() {
		if on {
			bits |= 1 << (3 - d)
		}
	}
	return glyphs[bits]
}

// StationGlyph marks a station cell.
const StationGlyph = 'S'

// ASCIIOptions configures [ASCII].
type ASCIIOptions struct {
	// Stations marks station cells with StationGlyph.
	Stations bool

	// Color styles rails, city squares and stations with ANSI colours.
	Color bool
}

var (
	styleRail    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	styleCity    = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	styleStation = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	styleEmpty   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// ASCII renders the map as text, one line per grid row.
func ASCII(m *generator.Map, opts ASCIIOptions) string {
	stations := stationSet(m)

	var b strings.Builder
	for r := range m.Grid.Height() {
		for c := range m.Grid.Width() {
			cell := geom.C(r, c)
			t := m.Grid.At(cell)

			glyph, style := Glyph(t), styleRail
			switch {
			case opts.Stations && stations[cell]:
				glyph, style = StationGlyph, styleStation
			case t == rail.Empty:
				style = styleEmpty
			case inCity(m, cell):
				style = styleCity
			}

			if opts.Color {
				b.WriteString(style.Render(string(glyph)))
			} else {
				b.WriteRune(glyph)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func stationSet(m *generator.Map) map[geom.Coord]bool {
	set := make(map[geom.Coord]bool)
	for _, city := range m.Hints.TrainStations {
		for _, s := range city {
			set[s.Position] = true
		}
	}
	return set
}

func inCity(m *generator.Map, cell geom.Coord) bool {
	for _, c := range m.Cities {
		if c.Contains(cell) {
			return true
		}
	}
	return false
}
