package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
	"github.com/matzehuels/railgen/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	pipeline pipeline.Options
	output   string // base output path
	stored   bool   // treat the argument as a store ID
	noCache  bool
}

// renderCommand creates the render command for previously generated maps.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	var formatsStr string

	cmd := &cobra.Command{
		Use:   "render [map.json | id]",
		Short: "Render a generated map",
		Long: `Render a map document written by 'railgen generate' or a map saved in the
store (with --stored). The map is not regenerated.`,
		Example: `  railgen render map.json -f txt,graph.svg --stations
  railgen render --stored 3f0c9a52-... -f svg -o network`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMapRef,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pipeline.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.pipeline.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	addRenderFlags(cmd, &opts.pipeline, &formatsStr)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base output path (default: input name without extension)")
	cmd.Flags().BoolVar(&opts.stored, "stored", false, "load the map from the store by ID")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, ref string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", ref)

	m, err := c.loadMap(ctx, ref, opts.stored)
	if err != nil {
		return err
	}
	logger.Infof("Loaded map: %dx%d, %d cities", m.Grid.Width(), m.Grid.Height(), len(m.Cities))

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, m, opts.pipeline)
	if err != nil {
		return err
	}
	if hit {
		prog.done("Rendered from cache")
	} else {
		prog.done("Rendered")
	}

	fallback := ref
	if !opts.stored {
		fallback = strings.TrimSuffix(ref, filepath.Ext(ref))
	}
	return writeArtifacts(basePath(opts.output, fallback), artifacts)
}

// loadMap reads a map document from disk, or from the store when stored is
// set.
func (c *CLI) loadMap(ctx context.Context, ref string, stored bool) (*generator.Map, error) {
	if !stored {
		return mapio.ImportJSON(ref)
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, ref)
}
