package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railgen/internal/server"
	"github.com/matzehuels/railgen/pkg/buildinfo"
	"github.com/matzehuels/railgen/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	store   string
	origins []string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: "localhost:8080"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve map generation over HTTP.

Maps created with POST /maps are kept in the store: in memory by default,
or in a directory or MongoDB as configured in the [store] section of the
config file. Generated maps and rendered artifacts go through the cache
configured in [cache], which may be Redis so several instances share it.

GET /events streams map.created and map.deleted events over a websocket.`,
		Example: `  railgen serve --addr :8080
  railgen serve --config railgen.toml --store mongo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.store, "store", "", "store backend: memory (default), file, mongo")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "origin patterns allowed to subscribe to /events")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	storeCfg := cfg.Store
	if opts.store != "" {
		storeCfg.Backend = opts.store
	}
	st, err := openStore(ctx, storeCfg, pipeline.StoreMemory, c.Logger)
	if err != nil {
		return err
	}
	defer st.Close()

	printInfo("Serving railgen %s on %s", buildinfo.Get().Short(), StyleLink.Render("http://"+opts.addr))
	return server.New(runner, st, c.Logger, server.WithOrigins(opts.origins...)).Run(ctx, opts.addr)
}
