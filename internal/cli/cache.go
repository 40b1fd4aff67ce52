package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local generation cache",
		Long: `Manage the file cache of generated maps and rendered artifacts.

A Redis cache configured in [cache] is not touched; entries there expire
on their own.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var maps, artifacts, expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached maps and artifacts",
		Example: `  railgen cache clear
  railgen cache clear --artifacts
  railgen cache clear --expired`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}

			var n int
			switch {
			case expired:
				n, err = fc.Prune()
			case maps || artifacts:
				var kinds []string
				if maps {
					kinds = append(kinds, cache.KindMap)
				}
				if artifacts {
					kinds = append(kinds, cache.KindArtifact)
				}
				n, err = fc.Clear(kinds...)
			default:
				n, err = fc.Clear()
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if n == 0 {
				printInfo("Nothing to remove")
				return nil
			}
			printSuccess("Removed %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&maps, "maps", false, "only remove generated maps")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "only remove rendered artifacts")
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired or unreadable entries")
	cmd.MarkFlagsMutuallyExclusive("expired", "maps")
	cmd.MarkFlagsMutuallyExclusive("expired", "artifacts")

	return cmd
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cached entries per kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			usage, err := fc.Usage()
			if err != nil {
				return err
			}
			if len(usage) == 0 {
				printInfo("Cache is empty")
				return nil
			}
			fmt.Println(usageTable(usage))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			fmt.Println(fc.Dir())
			return nil
		},
	}
}

// fileCache opens the file cache at the configured directory, or the XDG
// default.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		if dir, err = cacheDir(); err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
	}
	return cache.NewFileCache(dir)
}

// usageTable renders per-kind cache usage.
func usageTable(usage map[string]cache.Usage) string {
	var rows [][]string
	for _, kind := range cache.Kinds {
		u, ok := usage[kind]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			kind,
			strconv.Itoa(u.Entries),
			strconv.Itoa(u.Expired),
			formatBytes(u.Bytes),
		})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "Entries", "Expired", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
