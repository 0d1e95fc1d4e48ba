package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "incidents.jsonl", "Output JSONL path")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all incidents to JSONL",
	Long: `Write every incident in the database to a JSONL file using the same
field names 'cdash import' reads, so the file can be re-imported elsewhere.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	db := mustOpenDatabase(root, cfg)
	defer db.Close()

	p := newProgress(loggerFromContext(cmd.Context()))
	n, err := db.ExportJSONL(exportOutput)
	if err != nil {
		exitWithError(ExitError, "exporting incidents: %v", err)
	}
	p.done(fmt.Sprintf("Exported %d incidents", n))

	if humanOutput {
		outputHuman("Exported %d incidents to %s\n", n, exportOutput)
		return nil
	}
	return outputJSON(OutputResponse{Output: exportOutput, Count: n})
}
