package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/storage"
	"github.com/matsen/crimedash/internal/store"
)

var (
	queryYear      int
	queryCrimes    int
	queryDistricts int
	queryCrimeType string
	querySQLOut    string
)

func init() {
	queryCmd.PersistentFlags().IntVar(&queryYear, "year", 2020, "Year to summarize")

	queryTopCrimesCmd.Flags().IntVar(&queryCrimes, "limit", storage.DefaultTopCrimesLimit, "Number of crimes")
	queryTopDistrictsCmd.Flags().IntVar(&queryDistricts, "limit", storage.DefaultTopDistrictsLimit, "Number of districts")
	queryLocationsCmd.Flags().StringVar(&queryCrimeType, "type", storage.AllCrimes, "Offense description to filter by")
	querySQLCmd.Flags().StringVarP(&querySQLOut, "jsonl", "o", "", "Write the rows to a JSONL file")

	queryCmd.AddCommand(
		queryTopCrimesCmd,
		queryTopDistrictsCmd,
		queryWeekdayCmd,
		queryMonthlyCmd,
		queryCategoriesCmd,
		queryTrendCmd,
		queryProportionsCmd,
		queryLocationsCmd,
		queryCrimeTypesCmd,
		querySQLCmd,
	)
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Summary queries over the crime database",
}

var queryTopCrimesCmd = &cobra.Command{
	Use:   "top-crimes",
	Short: "Most frequent offenses (--year 0 for all years)",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.TopCrimes(queryYear, queryCrimes)
		if err != nil {
			return err
		}
		return emit(out, []string{"Crime", "Count"}, labelCountRows(out))
	}),
}

var queryTopDistrictsCmd = &cobra.Command{
	Use:   "top-districts",
	Short: "Districts with the most incidents",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.TopDistricts(queryYear, queryDistricts)
		if err != nil {
			return err
		}
		return emit(out, []string{"District", "Count"}, labelCountRows(out))
	}),
}

var queryWeekdayCmd = &cobra.Command{
	Use:   "weekday",
	Short: "Incidents per day of the week",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.CrimeByDayOfWeek(queryYear)
		if err != nil {
			return err
		}
		return emit(out, []string{"Day", "Count"}, labelCountRows(out))
	}),
}

var queryMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Incidents per month (--year 0 for all years)",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		var (
			out []storage.MonthCount
			err error
		)
		if queryYear == 0 {
			out, err = db.CrimeByMonth()
		} else {
			out, err = db.MonthlyTrend(queryYear)
		}
		if err != nil {
			return err
		}
		rows := make([][]string, len(out))
		for i, m := range out {
			rows[i] = []string{strconv.Itoa(m.Year), strconv.Itoa(m.Month), strconv.FormatInt(m.Count, 10)}
		}
		return emit(out, []string{"Year", "Month", "Count"}, rows)
	}),
}

var queryCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Distinct crime categories",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.Categories()
		if err != nil {
			return err
		}
		return emit(out, []string{"Category"}, singleColumn(out))
	}),
}

var queryTrendCmd = &cobra.Command{
	Use:   "trend <category>",
	Short: "Yearly incidents of one category",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.CategoryTrend(args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, len(out))
		for i, y := range out {
			rows[i] = []string{strconv.Itoa(y.Year), strconv.FormatInt(y.Count, 10)}
		}
		return emit(out, []string{"Year", "Count"}, rows)
	}),
}

var queryProportionsCmd = &cobra.Command{
	Use:   "proportions <category>",
	Short: "One category against all other crimes, per year",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.CategoryProportions(args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, len(out))
		for i, s := range out {
			rows[i] = []string{strconv.Itoa(s.Year), strconv.FormatInt(s.Selected, 10), strconv.FormatInt(s.Other, 10)}
		}
		return emit(out, []string{"Year", args[0], "Other"}, rows)
	}),
}

var queryLocationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Coordinates of incidents in a year",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.CrimeLocations(queryYear, queryCrimeType)
		if err != nil {
			return err
		}
		rows := make([][]string, len(out))
		for i, l := range out {
			rows[i] = []string{strconv.FormatFloat(l.Lat, 'f', 6, 64), strconv.FormatFloat(l.Long, 'f', 6, 64)}
		}
		return emit(out, []string{"Lat", "Long"}, rows)
	}),
}

var queryCrimeTypesCmd = &cobra.Command{
	Use:   "crime-types",
	Short: "Offense descriptions, for use with --type",
	Args:  cobra.NoArgs,
	RunE: withDB(func(db *storage.DB, args []string) error {
		out, err := db.CrimeTypes()
		if err != nil {
			return err
		}
		return emit(out, []string{"Crime type"}, singleColumn(out))
	}),
}

var querySQLCmd = &cobra.Command{
	Use:   "sql <select>",
	Short: "Run a read-only SQL query",
	Long: `Run a SELECT against the crime database. Tables: boston_crime; views:
crime_category_counts, crime_count_by_district_year.

Examples:
  cdash query sql "SELECT DISTRICT, COUNT(*) AS n FROM boston_crime GROUP BY DISTRICT"
  cdash query sql "SELECT * FROM crime_category_counts" --jsonl counts.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(db *storage.DB, args []string) error {
		if !isReadOnlySQL(args[0]) {
			exitWithError(ExitError, "only SELECT and WITH queries are allowed")
		}

		records, err := db.Query(args[0])
		if err != nil {
			return err
		}

		if querySQLOut != "" {
			if err := store.WriteAllRecords(querySQLOut, records); err != nil {
				return fmt.Errorf("writing %s: %w", querySQLOut, err)
			}
			if humanOutput {
				outputHuman("Wrote %d rows to %s\n", len(records), querySQLOut)
				return nil
			}
			return outputJSON(OutputResponse{Output: querySQLOut, Count: len(records)})
		}

		cols, rows := recordRows(records)
		return emit(records, cols, rows)
	}),
}

// withDB opens the workspace database around fn.
func withDB(fn func(db *storage.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		root := mustFindWorkspace()
		cfg := mustLoadConfig(root)
		db := mustOpenDatabase(root, cfg)
		defer db.Close()

		p := newProgress(loggerFromContext(cmd.Context()))
		if err := fn(db, args); err != nil {
			return err
		}
		p.logger.Debugf("%s done in %s", cmd.Name(), p.elapsed())
		return nil
	}
}

// emit writes v as JSON, or the rows as a table with --human.
func emit(v any, headers []string, rows [][]string) error {
	if humanOutput {
		if len(rows) == 0 {
			outputHuman("No results.\n")
			return nil
		}
		printTable(os.Stdout, headers, rows)
		return nil
	}
	return outputJSON(v)
}

func singleColumn(values []string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return rows
}

// isReadOnlySQL reports whether q starts with SELECT or WITH.
func isReadOnlySQL(q string) bool {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return true
	default:
		return false
	}
}
