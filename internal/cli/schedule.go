package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/pipeline"
)

// scheduleFlags holds the command-line flags for the schedule command.
type scheduleFlags struct {
	opts   pipeline.ScheduleOptions
	speeds string
	output string
	stored bool
}

// scheduleCommand creates the schedule command.
func (c *CLI) scheduleCommand() *cobra.Command {
	var f scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule [map.json | id]",
		Short: "Place trains on a map",
		Long: `Place trains on the stations of a generated map. Trains travel in pairs
between two cities in opposite directions.

With --malfunction the breakdowns each train would suffer during the episode
are drawn as well. Models: none, delay, fixed, poisson.`,
		Example: `  railgen schedule map.json --agents 6 --speeds 1=0.5,0.5=0.5
  railgen schedule map.json --malfunction poisson --rate 0.01 --min-duration 2 --max-duration 8`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMapRef,
		RunE: func(cmd *cobra.Command, args []string) error {
			speeds, err := parseSpeeds(f.speeds)
			if err != nil {
				return err
			}
			f.opts.Speeds = speeds
			return c.runSchedule(cmd.Context(), args[0], &f)
		},
	}

	cmd.Flags().IntVarP(&f.opts.Agents, "agents", "a", pipeline.DefaultAgents, "number of trains")
	cmd.Flags().Var(seedFlag{&f.opts.Seed}, "seed", "random seed (default: the map's seed)")
	cmd.Flags().IntVar(&f.opts.NumResets, "resets", 0, "number of earlier environment resets, shifts the seed")
	cmd.Flags().StringVar(&f.speeds, "speeds", "", "speed shares as speed=share pairs, e.g. 1=0.75,0.5=0.25")
	cmd.Flags().StringVar(&f.opts.Malfunction, "malfunction", "", "malfunction model to preview: none, delay, fixed, poisson")
	cmd.Flags().Float64Var(&f.opts.Params.Rate, "rate", 0, "malfunctions per train and step (poisson)")
	cmd.Flags().IntVar(&f.opts.Params.MinDuration, "min-duration", 1, "shortest breakdown in steps (poisson)")
	cmd.Flags().IntVar(&f.opts.Params.MaxDuration, "max-duration", 1, "longest breakdown in steps (poisson)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the schedule as JSON to this file")
	cmd.Flags().BoolVar(&f.stored, "stored", false, "load the map from the store by ID")

	return cmd
}

func (c *CLI) runSchedule(ctx context.Context, ref string, f *scheduleFlags) error {
	m, err := c.loadMap(ctx, ref, f.stored)
	if err != nil {
		return err
	}
	s, err := pipeline.BuildSchedule(m, f.opts)
	if err != nil {
		return err
	}

	fmt.Println(scheduleTable(s))
	printKeyValue("Max steps", StyleNumber.Render(strconv.Itoa(s.Line.MaxEpisodeSteps)))
	if f.opts.Malfunction != "" {
		printKeyValue("Breakdowns", StyleNumber.Render(strconv.Itoa(len(s.Breakdowns))))
	}

	if f.output != "" {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("encode schedule: %w", err)
		}
		if err := os.WriteFile(f.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.output, err)
		}
		printFile(f.output)
	}
	return nil
}

// scheduleTable renders one row per train.
func scheduleTable(s *pipeline.Schedule) string {
	broken := make(map[int]int)
	for _, b := range s.Breakdowns {
		broken[b.Agent] += b.Steps
	}

	l := s.Line
	rows := make([][]string, len(l.Positions))
	for i := range l.Positions {
		rows[i] = []string{
			strconv.Itoa(i),
			l.Positions[i].String(),
			l.Directions[i].String(),
			l.Targets[i].String(),
			strconv.FormatFloat(l.Speeds[i], 'g', -1, 64),
			strconv.Itoa(broken[i]),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Train", "Start", "Heading", "Target", "Speed", "Broken").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && rows[row][5] != "0" {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// parseSpeeds parses "speed=share" pairs separated by commas.
func parseSpeeds(s string) ([]pipeline.SpeedShare, error) {
	if s == "" {
		return nil, nil
	}
	var speeds []pipeline.SpeedShare
	for _, pair := range strings.Split(s, ",") {
		speedStr, shareStr, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid speed share %q (want speed=share)", pair)
		}
		speed, err := strconv.ParseFloat(speedStr, 64)
		if err != nil || speed <= 0 {
			return nil, fmt.Errorf("invalid speed %q", speedStr)
		}
		share, err := strconv.ParseFloat(shareStr, 64)
		if err != nil || share < 0 {
			return nil, fmt.Errorf("invalid share %q", shareStr)
		}
		speeds = append(speeds, pipeline.SpeedShare{Speed: speed, Share: share})
	}
	return speeds, nil
}
