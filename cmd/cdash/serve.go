package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/config"
	"github.com/matsen/crimedash/internal/server"
)

var (
	serveAddr string
	serveYear int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: CDASH_LISTEN, listen_addr, or "+config.DefaultListenAddr+")")
	serveCmd.Flags().IntVar(&serveYear, "year", server.DefaultYear, "Default year of the per-year panels")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and JSON API",
	Long: `Serve the crime dashboard over HTTP.

Routes:
  /                                      Sankey diagram for the configured defaults
  /api/sankey?start=&end=&top=&layers=&value=&namespace=
  /api/crimes/top?year=&limit=           /api/districts/top?year=&limit=
  /api/crimes/by-weekday?year=           /api/crimes/by-month?year=
  /api/crimes/locations?year=&type=      /api/crime-types
  /api/categories                        /api/categories/{category}/trend
  /api/categories/{category}/proportions
  /healthz                               /metrics

Requests under /api share a token-bucket rate limit set by rate_limit and
rate_burst in the global config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	db := mustOpenDatabase(root, cfg)
	defer db.Close()

	addr := serveAddr
	if addr == "" {
		addr = config.GetListenAddr()
	}
	limit, burst := config.GetRateLimit()

	srv := server.New(db, server.Options{
		Addr:      addr,
		Sankey:    sankeyQueryFromConfig(cfg),
		Year:      serveYear,
		RateLimit: limit,
		RateBurst: burst,
		Logger:    logger,
	})

	logger.Info("starting dashboard", "addr", addr, "db", cfg.ResolveDBPath(root))
	return srv.Run(cmd.Context())
}
