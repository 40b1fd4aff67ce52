package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/pipeline"
	"github.com/matzehuels/railgen/pkg/render"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	pipeline pipeline.Options
	output   string // base path for the map and its artifacts
	noJSON   bool   // skip writing the map document
	noCache  bool   // bypass the generation cache entirely
	save     bool   // also store the map in the configured store
}

// addMapFlags registers the generation flags shared by generate, batch and
// view. Zero values mean "use the config file or the built-in default".
func addMapFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().IntVar(&opts.Width, "width", 0, fmt.Sprintf("map width in cells (default %d)", pipeline.DefaultWidth))
	cmd.Flags().IntVar(&opts.Height, "height", 0, fmt.Sprintf("map height in cells (default %d)", pipeline.DefaultHeight))
	cmd.Flags().IntVarP(&opts.MaxCities, "cities", "n", 0, fmt.Sprintf("number of cities to place (default %d)", pipeline.DefaultMaxCities))
	cmd.Flags().IntVar(&opts.MaxRailsBetweenCities, "rails-between", 0,
		fmt.Sprintf("maximum tracks between two cities (default %d)", generator.DefaultMaxRailsBetweenCities))
	cmd.Flags().IntVar(&opts.MaxRailPairsInCity, "rail-pairs", 0,
		fmt.Sprintf("maximum pairs of parallel tracks inside a city (default %d)", generator.DefaultMaxRailPairsInCity))
	cmd.Flags().BoolVar(&opts.GridMode, "grid", false, "place cities on an even grid instead of at random")
	cmd.Flags().Var(seedFlag{&opts.Seed}, "seed", fmt.Sprintf("random seed (default %d)", pipeline.DefaultSeed))
	cmd.Flags().IntVar(&opts.NumResets, "resets", 0, "number of earlier environment resets, shifts the seed")
}

// seedFlag binds --seed to an optional seed, so an explicit 0 is kept.
type seedFlag struct{ p **uint64 }

func (f seedFlag) String() string {
	if *f.p == nil {
		return ""
	}
	return strconv.FormatUint(**f.p, 10)
}

func (f seedFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f.p = &v
	return nil
}

func (seedFlag) Type() string { return "uint64" }

// addRenderFlags registers the rendering flags shared by generate and render.
func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options, formats *string) {
	cmd.Flags().StringVarP(formats, "format", "f", "", "output format(s): svg (default), txt, dot, graph.svg, graph.png (comma-separated)")
	cmd.Flags().IntVar(&opts.CellSize, "cell-size", 0, fmt.Sprintf("SVG cell size in pixels (default %d)", render.DefaultCellSize))
	cmd.Flags().BoolVar(&opts.Stations, "stations", false, "mark train stations")
	cmd.Flags().BoolVar(&opts.Grid, "grid-lines", false, "draw cell grid lines (svg)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label city graph nodes with positions (dot, graph.*)")
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts
	var formatsStr string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a rail network and render it",
		Long: `Generate a sparse rail network.

The map is written as <output>.json together with one file per requested
format, e.g. map.svg or map.graph.png. Maps are cached by their options, so
generating the same map twice is instant.`,
		Example: `  railgen generate -n 6 --width 60 --height 40 -f svg,txt
  railgen generate --grid --seed 7 --stations -o network`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				opts.pipeline.Formats = parseFormats(formatsStr)
			}
			return c.runGenerate(cmd.Context(), &opts)
		},
	}

	addMapFlags(cmd, &opts.pipeline)
	addRenderFlags(cmd, &opts.pipeline, &formatsStr)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base output path (default \"map\")")
	cmd.Flags().BoolVar(&opts.noJSON, "no-json", false, "do not write the map document")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.pipeline.Refresh, "refresh", false, "regenerate even if the map is cached")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the map for later use with 'railgen maps'")

	return cmd
}

// runGenerate runs the generate → render pipeline and writes the outputs.
func (c *CLI) runGenerate(ctx context.Context, opts *generateOpts) error {
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

	spinner := newSpinnerWithContext(ctx, "Generating map...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	m := result.Map
	printSuccess("Generated %s map", StyleHighlight.Render(fmt.Sprintf("%dx%d", m.Grid.Width(), m.Grid.Height())))
	printStats(result.Stats, result.CacheInfo.GenerateHit)
	if m.Report.FellBackToGrid {
		printWarning("Random placement found fewer than 2 cities; used the grid layout")
	}
	if m.Report.PlacedCities < m.Report.RequestedCities {
		printWarning("Placed %d of %d requested cities", m.Report.PlacedCities, m.Report.RequestedCities)
	}

	base := basePath(opts.output, "map")
	if !opts.noJSON {
		if err := mapio.ExportJSON(m, base+".json"); err != nil {
			return err
		}
		printFile(base + ".json")
	}
	if err := writeArtifacts(base, result.Artifacts); err != nil {
		return err
	}

	if opts.save {
		st, err := c.newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(ctx, m)
		if err != nil {
			return err
		}
		printKeyValue("Map ID", StyleNumber.Render(id))
	}

	if !opts.noJSON {
		printNextStep("Browse it", "railgen view "+base+".json")
	}
	return nil
}

// writeArtifacts writes each artifact to <base>.<format>, in format order.
func writeArtifacts(base string, artifacts map[string][]byte) error {
	for _, format := range slices.Sorted(maps.Keys(artifacts)) {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
