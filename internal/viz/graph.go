package viz

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/crimedash/internal/sankey"
)

// Node geometry used for every diagram.
const (
	NodePad       = 15
	NodeThickness = 20
)

// palette cycles through node colors by code.
var palette = []string{
	"#4A90D9", "#E8923A", "#27AE60", "#9B59B6", "#E74C3C",
	"#1ABC9C", "#F1C40F", "#7F8C8D", "#34495E", "#D35400",
}

// NewSankeyTrace converts a flow graph into a Plotly Sankey trace.
func NewSankeyTrace(g *sankey.Graph, orientation string) SankeyTrace {
	if orientation == "" {
		orientation = "h"
	}

	names := g.Names()
	colors := make([]string, len(names))
	for i := range names {
		colors[i] = palette[i%len(palette)]
	}

	links := SankeyLinks{
		Source: make([]int, 0, len(g.Links)),
		Target: make([]int, 0, len(g.Links)),
		Value:  make([]json.Number, 0, len(g.Links)),
	}
	for _, l := range g.Links {
		links.Source = append(links.Source, l.Source)
		links.Target = append(links.Target, l.Target)
		links.Value = append(links.Value, json.Number(l.Value.String()))
	}

	return SankeyTrace{
		Type:        "sankey",
		Orientation: orientation,
		Node: SankeyNodes{
			Pad:       NodePad,
			Thickness: NodeThickness,
			Line:      NodeLine{Color: "black", Width: 0.5},
			Label:     names,
			Color:     colors,
		},
		Link: links,
	}
}

// ToPlotlyJSON returns the Plotly figure for g as JSON.
func ToPlotlyJSON(g *sankey.Graph, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if err := validateOrientation(opts.Orientation); err != nil {
		return "", err
	}

	fig := PlotlyFigure{
		Data: []SankeyTrace{NewSankeyTrace(g, opts.Orientation)},
		Layout: PlotlyLayout{
			Title:  opts.Title,
			Height: opts.Height,
			Font:   Font{Size: 10},
		},
	}

	data, err := json.Marshal(fig)
	if err != nil {
		return "", fmt.Errorf("marshaling Plotly figure to JSON: %w", err)
	}
	return string(data), nil
}
