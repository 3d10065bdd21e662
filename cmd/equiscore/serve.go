package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seenimoa/equiscore/api"
	"github.com/seenimoa/equiscore/internal/datasource"
)

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scoring and price analysis over HTTP",
	Long: `Start the REST API. Symbols resolve against data.dir; snapshots and
bulk company CSVs can also be posted directly.

Endpoints:
  GET  /api/v1/metrics
  GET  /api/v1/score/{symbol}     POST /api/v1/score
  POST /api/v1/bulk               GET  /api/v1/ws (bulk progress)
  GET  /api/v1/technical/{symbol}
  GET  /api/v1/patterns/{symbol}
  GET  /api/v1/market/{symbol}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}
		opts := api.Options{
			Config:   cfg,
			Registry: reg,
			Log:      log,
			Version:  version,
			Prices:   priceOptions(),
		}
		ttl, _ := cmd.Flags().GetDuration("cache-ttl")
		if dir, err := datasource.NewDir(cfg.Data.Dir, ttl, log); err == nil {
			opts.Source = dir
		} else {
			log.WithError(err).Warn("symbol routes disabled")
		}

		srv, err := api.NewServer(opts)
		if err != nil {
			return err
		}

		addr := cfg.API.Addr()
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		fmt.Printf("equiscore API listening on http://%s\n", addr)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port)")
	serveCmd.Flags().Duration("cache-ttl", 0, "cache loaded files for this long, 0 disables caching")
	rootCmd.AddCommand(serveCmd)
}
