package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/config"
	"github.com/matsen/crimedash/internal/storage"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a crimedash workspace",
	Long: `Create a .crimedash directory holding config.json and an empty
crime database. Running init again keeps the existing config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	} else if cwd, err := os.Getwd(); err == nil {
		root = cwd
	}

	cfg, err := config.Init(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	dbPath := cfg.ResolveDBPath(root)
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "creating database: %v", err)
	}
	defer db.Close()

	loggerFromContext(cmd.Context()).Debug("workspace ready", "root", root, "db", dbPath)

	if humanOutput {
		outputHuman("Initialized crimedash workspace in %s\n", config.WorkspacePath(root))
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: config.WorkspacePath(root)})
}
