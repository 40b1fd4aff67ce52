package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/render"
)

// Viewer styles
var (
	viewFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	viewSideStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(colorGray)
	viewEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	viewFooterStyle = lipgloss.NewStyle().Foreground(colorDim)
	viewHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// MapViewModel - Scrollable map viewer
// =============================================================================

// MapViewModel is the bubbletea model for browsing a map in the terminal.
// The map is drawn with box-drawing characters and scrolls when it does not
// fit the window.
type MapViewModel struct {
	Map      *generator.Map
	Title    string
	Stations bool

	rows   [][]rune
	width  int // visible columns
	height int // visible rows
	offRow int
	offCol int
}

// NewMapViewModel creates a viewer for m.
func NewMapViewModel(m *generator.Map, title string) MapViewModel {
	v := MapViewModel{Map: m, Title: title, Stations: true, width: 60, height: 20}
	v.redraw()
	return v
}

// redraw renders the map into rows of runes.
func (m *MapViewModel) redraw() {
	text := strings.TrimRight(render.ASCII(m.Map, render.ASCIIOptions{Stations: m.Stations}), "\n")
	lines := strings.Split(text, "\n")
	m.rows = make([][]rune, len(lines))
	for i, line := range lines {
		m.rows[i] = []rune(line)
	}
}

func (m MapViewModel) Init() tea.Cmd {
	return nil
}

func (m MapViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.offRow--
		case "down", "j":
			m.offRow++
		case "left", "h":
			m.offCol--
		case "right", "l":
			m.offCol++
		case "pgup":
			m.offRow -= m.height
		case "pgdown":
			m.offRow += m.height
		case "g", "home":
			m.offRow, m.offCol = 0, 0
		case "s":
			m.Stations = !m.Stations
			m.redraw()
		}
	case tea.WindowSizeMsg:
		// Border, title, footer and the side panel take the rest.
		m.width = max(msg.Width-sidePanelWidth-4, 10)
		m.height = max(msg.Height-6, 5)
	}
	m.clamp()
	return m, nil
}

const sidePanelWidth = 28

// clamp keeps the viewport inside the map.
func (m *MapViewModel) clamp() {
	maxRow := max(len(m.rows)-m.height, 0)
	maxCol := 0
	if len(m.rows) > 0 {
		maxCol = max(len(m.rows[0])-m.width, 0)
	}
	m.offRow = min(max(m.offRow, 0), maxRow)
	m.offCol = min(max(m.offCol, 0), maxCol)
}

// visible returns the part of the map inside the viewport.
func (m MapViewModel) visible() string {
	var b strings.Builder
	end := min(m.offRow+m.height, len(m.rows))
	for r := m.offRow; r < end; r++ {
		row := m.rows[r]
		last := min(m.offCol+m.width, len(row))
		for _, ch := range row[m.offCol:last] {
			switch ch {
			case render.StationGlyph:
				b.WriteString(StyleStation.Render(string(ch)))
			case render.Glyph(0):
				b.WriteString(viewEmptyStyle.Render(string(ch)))
			default:
				b.WriteRune(ch)
			}
		}
		if r < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sidePanel lists the cities and the generation report.
func (m MapViewModel) sidePanel() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Cities"))
	b.WriteString("\n")
	for i, c := range m.Map.Cities {
		fmt.Fprintf(&b, "%2d %s %s\n", i, StyleValue.Render(c.Position.String()), c.Orientation)
	}
	b.WriteString("\n")
	b.WriteString(StyleTitle.Render("Tracks"))
	b.WriteString("\n")
	for _, l := range m.Map.Links {
		fmt.Fprintf(&b, "%2d %s %2d  %s\n", l.From, iconArrow, l.To, StyleNumber.Render(fmt.Sprint(l.Tracks)))
	}
	if f := m.Map.Report.RoutingFailures; f > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d failed routes", f)))
	}
	return viewSideStyle.Width(sidePanelWidth).Render(b.String())
}

func (m MapViewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("  ")
	b.WriteString(viewHelpStyle.Render("↑/↓/←/→ scroll  s stations  g home  q quit"))
	b.WriteString("\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top, viewFrameStyle.Render(m.visible()), m.sidePanel())
	b.WriteString(body)
	b.WriteString("\n")

	footer := fmt.Sprintf("  %dx%d  row %d  col %d", m.Map.Grid.Width(), m.Map.Grid.Height(), m.offRow, m.offCol)
	b.WriteString(viewFooterStyle.Render(footer))

	return b.String()
}

// =============================================================================
// Command
// =============================================================================

// viewCommand creates the interactive map viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var popts generateOpts
	var stored bool

	cmd := &cobra.Command{
		Use:   "view [map.json | id]",
		Short: "Browse a map in the terminal",
		Long: `Browse a map interactively. Without an argument a map is generated from
the map flags first.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeMapRef,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, title, err := c.viewSource(ctx, args, stored, &popts)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewMapViewModel(m, title), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	addMapFlags(cmd, &popts.pipeline)
	cmd.Flags().BoolVar(&stored, "stored", false, "load the map from the store by ID")
	cmd.Flags().BoolVar(&popts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// viewSource loads the map named by args, or generates one.
func (c *CLI) viewSource(ctx context.Context, args []string, stored bool, opts *generateOpts) (*generator.Map, string, error) {
	if len(args) == 1 {
		m, err := c.loadMap(ctx, args[0], stored)
		return m, args[0], err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, "", err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return nil, "", err
	}
	defer runner.Close()

	popts := cfg.Merge(opts.pipeline)
	m, err := runner.Generate(ctx, popts)
	if err != nil {
		return nil, "", err
	}
	return m, fmt.Sprintf("seed %d", m.Options.Seed), nil
}
