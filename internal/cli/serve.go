package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored trees and layouts over HTTP",
		Long: `Serve stored trees and layouts over HTTP.

The store and cache backends come from the config file. Layout, render, cache
and store activity is counted and exposed at GET /api/v1/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			st, err := c.openStore(ctx, runner.Cache)
			if err != nil {
				return err
			}
			defer st.Close()

			counters := observability.NewCounters()
			observability.SetPipelineHooks(counters)
			observability.SetCacheHooks(counters)
			observability.SetStoreHooks(counters)
			observability.SetHTTPHooks(counters)
			defer observability.Reset()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := server.New(st, runner,
				server.WithLogger(c.Logger),
				server.WithCounters(counters),
				server.WithConfig(server.Config{
					Addr:           addr,
					RequestTimeout: cfg.Server.RequestTimeout.Duration,
				}))

			c.Logger.Info("starting server",
				"store", cfg.Store.Backend,
				"cache", cfg.Cache.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
