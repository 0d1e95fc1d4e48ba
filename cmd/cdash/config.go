package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set workspace configuration values.

Usage:
  cdash config                          # Show all config
  cdash config layers                   # Get specific value
  cdash config layers District,Year,Crime_Category
  cdash config top-n 5

Keys:
  db-path           Database path, relative to the workspace root
  layers            Comma-separated flow layers
  value-field       Numeric weight field of the flow graph
  start-year        First year of the flow graph
  end-year          Last year of the flow graph
  top-n             Categories kept per district and year
  namespace-layers  Prefix flow labels with their layer (true/false)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			printTable(cmd.OutOrStdout(), []string{"Key", "Value"}, configRows(cfg))
			return nil
		}
		return outputJSON(cfg)
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
			return nil
		}
		return outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
	}

	// Two args: set value
	if err := setConfigValue(cfg, key, args[1]); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	value, _ := configValue(cfg, key)
	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// configKeys lists the keys in display order.
var configKeys = []string{"db-path", "layers", "value-field", "start-year", "end-year", "top-n", "namespace-layers"}

// normalizeKey accepts snake_case and kebab-case keys.
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

func configValue(cfg *config.Config, key string) (string, bool) {
	s := cfg.Sankey
	switch key {
	case "db-path":
		return cfg.DBPath, true
	case "layers":
		return strings.Join(s.Layers, ","), true
	case "value-field":
		return s.ValueField, true
	case "start-year":
		return strconv.Itoa(s.StartYear), true
	case "end-year":
		return strconv.Itoa(s.EndYear), true
	case "top-n":
		return strconv.Itoa(s.TopN), true
	case "namespace-layers":
		return strconv.FormatBool(s.NamespaceLayers), true
	default:
		return "", false
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch key {
	case "db-path":
		cfg.DBPath = value
	case "layers":
		cfg.Sankey.Layers = config.ParseLayers(value)
	case "value-field":
		cfg.Sankey.ValueField = strings.TrimSpace(value)
	case "start-year":
		cfg.Sankey.StartYear, err = atoi()
	case "end-year":
		cfg.Sankey.EndYear, err = atoi()
	case "top-n":
		cfg.Sankey.TopN, err = atoi()
	case "namespace-layers":
		cfg.Sankey.NamespaceLayers, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("namespace-layers must be true or false, got %q", value)
		}
	default:
		err = fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

func configRows(cfg *config.Config) [][]string {
	rows := make([][]string, 0, len(configKeys))
	for _, k := range configKeys {
		v, _ := configValue(cfg, k)
		rows = append(rows, []string{k, v})
	}
	return rows
}
