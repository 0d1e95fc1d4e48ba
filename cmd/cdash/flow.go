package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/config"
	"github.com/matsen/crimedash/internal/sankey"
	"github.com/matsen/crimedash/internal/storage"
	"github.com/matsen/crimedash/internal/store"
)

// flowFlags selects the input and shape of a flow graph.
type flowFlags struct {
	input     string
	layers    string
	value     string
	namespace bool
	start     int
	end       int
	top       int
}

func (f *flowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Build from a JSONL file instead of the database")
	cmd.Flags().StringVar(&f.layers, "layers", "", "Comma-separated layer fields (default from config)")
	cmd.Flags().StringVar(&f.value, "value", "", "Numeric weight field (default from config)")
	cmd.Flags().BoolVar(&f.namespace, "namespace", false, "Prefix labels with their layer name")
	cmd.Flags().IntVar(&f.start, "start", 0, "First year (database input)")
	cmd.Flags().IntVar(&f.end, "end", 0, "Last year (database input)")
	cmd.Flags().IntVar(&f.top, "top", 0, "Categories kept per district and year (database input)")
}

var flowOpts flowFlags

func init() {
	flowOpts.register(flowCmd)
	rootCmd.AddCommand(flowCmd)
}

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Build a layered flow graph",
	Long: `Build the labels and links of a Sankey diagram.

By default the graph is built from the database: the top categories per
district and year, laid out District -> Year -> Crime_Category. With --input,
any JSONL file can be used; each line is one record and --layers names the
fields to chain.

Examples:
  cdash flow
  cdash flow --start 2022 --end 2024 --top 5 --human
  cdash flow --input rows.jsonl --layers Region,Year,Type --value Count`,
	RunE: runFlow,
}

func runFlow(cmd *cobra.Command, args []string) error {
	g := mustBuildFlow(cmd, flowOpts)

	if humanOutput {
		printTable(os.Stdout, []string{"Source", "Target", "Value"}, flowRows(g))
		outputHuman("%d nodes, %d links, total %s\n", len(g.Labels), len(g.Links), g.Total().String())
		return nil
	}
	return outputJSON(g)
}

// mustBuildFlow builds the graph selected by f, exiting on error.
func mustBuildFlow(cmd *cobra.Command, f flowFlags) *sankey.Graph {
	logger := loggerFromContext(cmd.Context())
	p := newProgress(logger)

	var (
		g   *sankey.Graph
		err error
	)
	if f.input != "" {
		g, err = buildFlowFromFile(f)
	} else {
		root := mustFindWorkspace()
		cfg := mustLoadConfig(root)
		g, err = buildFlowFromDB(cmd, root, cfg, f)
	}
	if err != nil {
		exitWithError(flowExitCode(err), "%v", err)
	}

	p.done(fmt.Sprintf("Built flow graph with %d nodes and %d links", len(g.Labels), len(g.Links)))
	return g
}

// buildFlowFromDB builds the configured flow graph from the workspace
// database. The database is closed before returning.
func buildFlowFromDB(cmd *cobra.Command, root string, cfg *config.Config, f flowFlags) (*sankey.Graph, error) {
	db, err := storage.OpenDB(cfg.ResolveDBPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	q := sankeyQueryFromConfig(cfg)
	applyFlowFlags(&q.StartYear, &q.EndYear, &q.TopN, &q.Layers, &q.ValueField, &q.NamespaceLayers, f)
	loggerFromContext(cmd.Context()).Debug("building flow graph", "layers", q.Layers, "start", q.StartYear, "end", q.EndYear, "top", q.TopN)
	return db.SankeyGraph(q)
}

// buildFlowFromFile reads a JSONL file and builds its flow graph. Layer and
// value defaults come from the workspace config when there is one.
func buildFlowFromFile(f flowFlags) (*sankey.Graph, error) {
	cfg := config.Default()
	if start, code := getStartingDirectory(); code == 0 {
		if root, err := config.ResolveWorkspace(start); err == nil {
			if loaded, err := config.Load(root); err == nil {
				cfg = loaded
			}
		}
	}

	s := cfg.Sankey
	applyFlowFlags(&s.StartYear, &s.EndYear, &s.TopN, &s.Layers, &s.ValueField, &s.NamespaceLayers, f)

	if _, err := os.Stat(f.input); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	records, err := store.ReadAllRecords(f.input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.input, err)
	}
	return sankey.BuildWithOptions(records, s.Layers, s.ValueField, sankey.Options{NamespaceLayers: s.NamespaceLayers})
}

// applyFlowFlags overrides defaults with the flags that were set.
func applyFlowFlags(start, end, top *int, layers *[]string, value *string, namespace *bool, f flowFlags) {
	if f.start != 0 {
		*start = f.start
	}
	if f.end != 0 {
		*end = f.end
	}
	if f.top != 0 {
		*top = f.top
	}
	if f.layers != "" {
		*layers = config.ParseLayers(f.layers)
	}
	if f.value != "" {
		*value = f.value
	}
	if f.namespace {
		*namespace = true
	}
}

// flowExitCode maps invalid input to ExitDataError.
func flowExitCode(err error) int {
	switch {
	case errors.Is(err, sankey.ErrInvalidLayerSpec),
		errors.Is(err, sankey.ErrMissingField),
		errors.Is(err, sankey.ErrInvalidValueType),
		errors.Is(err, sankey.ErrInvalidLabel):
		return ExitDataError
	default:
		return ExitError
	}
}
