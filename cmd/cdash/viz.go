package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/crimedash/internal/viz"
)

var (
	vizFlow        flowFlags
	vizOutput      string
	vizTitle       string
	vizOrientation string
	vizHeight      int
)

func init() {
	vizFlow.register(vizCmd)
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizTitle, "title", viz.DefaultOptions().Title, "Diagram title")
	vizCmd.Flags().StringVar(&vizOrientation, "orientation", "h", "Diagram orientation ("+strings.Join(viz.ValidOrientations, ", ")+")")
	vizCmd.Flags().IntVar(&vizHeight, "height", viz.DefaultOptions().Height, "Diagram height in pixels")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate a Sankey diagram as HTML",
	Long: `Generate an interactive HTML page showing the flow graph as a Plotly
Sankey diagram. Accepts the same input flags as 'cdash flow'.

Examples:
  # Generate HTML to stdout
  cdash viz > flow.html

  # Generate to file for a narrower range
  cdash viz --start 2023 --end 2024 --output flow.html

  # Vertical layout from a JSONL file
  cdash viz --input rows.jsonl --layers A,B --value n --orientation v -o flow.html`,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	opts := viz.HTMLOptions{
		Title:       vizTitle,
		Orientation: vizOrientation,
		Height:      vizHeight,
	}

	g := mustBuildFlow(cmd, vizFlow)

	html, err := viz.GenerateHTML(g, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}

	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
		return nil
	}
	return outputJSON(OutputResponse{Output: vizOutput})
}
