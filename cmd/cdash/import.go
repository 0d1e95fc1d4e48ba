package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/storage"
)

var importForce bool

func init() {
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "Re-import even if the file is unchanged")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl>",
	Short: "Import crime incidents from JSONL",
	Long: `Import incidents from a JSONL export, one incident per line, using the
Boston open-data field names:

  {"INCIDENT_NUMBER": "I192000001", "OFFENSE_DESCRIPTION": "LARCENY SHOPLIFTING",
   "CRIME_CATEGORY": "Property", "DISTRICT": "D4", "YEAR": 2023, "MONTH": 5,
   "DAY_OF_WEEK": "Monday", "Lat": 42.35, "Long": -71.06}

Incidents are upserted by INCIDENT_NUMBER. The whole file is validated before
anything is written. A file identical to the previous import is skipped
unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	db := mustOpenDatabase(root, cfg)
	defer db.Close()

	p := newProgress(logger)
	res, err := db.ImportJSONL(args[0], importForce)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidIncident) {
			exitWithError(ExitDataError, "%v", err)
		}
		exitWithError(ExitError, "importing %s: %v", args[0], err)
	}

	if res.Skipped {
		logger.Info("file unchanged since last import, skipping", "file", args[0])
	} else {
		p.done(fmt.Sprintf("Imported %d incidents", res.Imported))
	}

	if humanOutput {
		if res.Skipped {
			outputHuman("%s unchanged, nothing imported (use --force to re-import)\n", args[0])
		} else {
			outputHuman("Imported %d incidents from %s\n", res.Imported, args[0])
		}
		return nil
	}
	return outputJSON(res)
}
