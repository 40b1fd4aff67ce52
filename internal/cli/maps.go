package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/store"
)

// mapsCommand creates the command group for stored maps.
func (c *CLI) mapsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maps",
		Short: "Manage stored maps",
		Long: `Manage maps saved with 'railgen generate --save'. The store backend is
taken from the [store] section of the config file and defaults to a directory
under ~/.config/railgen.`,
	}

	cmd.AddCommand(c.mapsListCommand())
	cmd.AddCommand(c.mapsShowCommand())
	cmd.AddCommand(c.mapsDeleteCommand())

	return cmd
}

// mapsListCommand creates the "maps list" subcommand.
func (c *CLI) mapsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored maps, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				printInfo("No stored maps")
				return nil
			}
			fmt.Println(summaryTable(summaries, time.Now()))
			return nil
		},
	}
}

// mapsShowCommand creates the "maps show" subcommand.
func (c *CLI) mapsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored map's details",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeMapIDs(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.loadMap(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			printKeyValue("ID", StyleNumber.Render(args[0]))
			printKeyValue("Size", fmt.Sprintf("%dx%d", m.Grid.Width(), m.Grid.Height()))
			printKeyValue("Seed", strconv.FormatUint(m.Options.Seed, 10))
			printKeyValue("Cities", fmt.Sprintf("%d of %d", m.Report.PlacedCities, m.Report.RequestedCities))
			printKeyValue("Tracks", strconv.Itoa(m.Report.Corridors))
			printKeyValue("Failures", strconv.Itoa(m.Report.RoutingFailures))
			printKeyValue("Repaired", strconv.Itoa(m.Report.FixedCells))
			printNextStep("Render it", "railgen render --stored "+args[0])
			return nil
		},
	}
}

// mapsDeleteCommand creates the "maps delete" subcommand.
func (c *CLI) mapsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>...",
		Short:             "Delete stored maps",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeMapIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

// summaryTable renders stored map summaries as a table.
func summaryTable(summaries []store.Summary, now time.Time) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ID,
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			strconv.Itoa(s.Cities),
			strconv.FormatUint(s.Seed, 10),
			formatRelativeTime(s.CreatedAt, now),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Size", "Cities", "Seed", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 4:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// formatRelativeTime formats t relative to now for listings.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
