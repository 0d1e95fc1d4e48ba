// Package main provides the cdash CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/config"
	"github.com/matsen/crimedash/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging on stderr
var verbose bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cdash",
	Short: "Boston crime dashboard and flow-graph builder",
	Long: `cdash loads Boston crime incidents into a local SQLite database and
serves them as a dashboard.

Core features:
  - Import incidents from JSONL exports
  - Build layered flow graphs (district -> year -> category) for Sankey diagrams
  - Summary queries: top crimes, districts, weekday and monthly trends
  - Standalone HTML visualization and an HTTP dashboard with JSON API

All commands output JSON by default; use --human for tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	},
}

func init() {
	config.LoadEnv()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a workspace.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindWorkspace finds the workspace, falling back to the global
// workspace_path, and exits on error.
func mustFindWorkspace() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.ResolveWorkspace(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadConfig loads and validates configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string, cfg *config.Config) *storage.DB {
	db, err := storage.OpenDB(cfg.ResolveDBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// sankeyQueryFromConfig converts the configured flow defaults.
func sankeyQueryFromConfig(cfg *config.Config) storage.SankeyQuery {
	s := cfg.Sankey
	return storage.SankeyQuery{
		StartYear:       s.StartYear,
		EndYear:         s.EndYear,
		TopN:            s.TopN,
		Layers:          s.Layers,
		ValueField:      s.ValueField,
		NamespaceLayers: s.NamespaceLayers,
	}
}
