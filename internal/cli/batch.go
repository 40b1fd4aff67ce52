package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/pipeline"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	pipeline pipeline.Options
	count    int
	workers  int
	outDir   string
	noCache  bool
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{count: 8, workers: pipeline.DefaultWorkers, outDir: "maps"}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate the maps of successive environment resets",
		Long: `Generate count maps that differ only in their reset index, the way a
training loop would see them after count resets. Maps are built concurrently
and written as <dir>/map-NNN.json.`,
		Example: `  railgen batch --count 32 --workers 8 -n 5 --dir maps`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", opts.count)
			}
			return c.runBatch(cmd.Context(), &opts)
		},
	}

	addMapFlags(cmd, &opts.pipeline)
	cmd.Flags().IntVar(&opts.count, "count", opts.count, "number of maps")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", opts.workers, fmt.Sprintf("concurrent generations (max %d)", pipeline.MaxWorkers))
	cmd.Flags().StringVar(&opts.outDir, "dir", opts.outDir, "output directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, opts *batchOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	popts := cfg.Merge(opts.pipeline)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opts.outDir, err)
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d maps...", opts.count))
	spinner.Start()
	maps, err := runner.GenerateBatch(ctx, popts, opts.count, opts.workers)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}

	failures := 0
	for i, m := range maps {
		spinner.SetMessage(fmt.Sprintf("Writing map %d/%d...", i+1, len(maps)))
		path := filepath.Join(opts.outDir, fmt.Sprintf("map-%03d.json", i))
		if err := mapio.ExportJSON(m, path); err != nil {
			spinner.StopWithError("Writing maps failed")
			return err
		}
		failures += m.Report.RoutingFailures
		logger.Debug("wrote map", "path", path, "cities", len(m.Cities), "failures", m.Report.RoutingFailures)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Generated %d maps", len(maps)))

	printSuccess("Wrote %s maps to %s", StyleNumber.Render(fmt.Sprint(len(maps))), StyleValue.Render(opts.outDir))
	if failures > 0 {
		printWarning("%d tracks could not be routed across the batch", failures)
	}
	return nil
}
