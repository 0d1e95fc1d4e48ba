// Package viz renders flow graphs as Plotly Sankey diagrams.
package viz

import "encoding/json"

// PlotlyFigure is the data and layout passed to Plotly.newPlot.
type PlotlyFigure struct {
	Data   []SankeyTrace `json:"data"`
	Layout PlotlyLayout  `json:"layout"`
}

// SankeyTrace is a Plotly trace of type "sankey".
type SankeyTrace struct {
	Type        string      `json:"type"`
	Orientation string      `json:"orientation"`
	ValueFormat string      `json:"valueformat,omitempty"`
	Node        SankeyNodes `json:"node"`
	Link        SankeyLinks `json:"link"`
}

// SankeyNodes holds the node attributes, indexed by node code.
type SankeyNodes struct {
	Pad       int      `json:"pad"`
	Thickness int      `json:"thickness"`
	Line      NodeLine `json:"line"`
	Label     []string `json:"label"`
	Color     []string `json:"color,omitempty"`
}

// NodeLine is the outline drawn around each node.
type NodeLine struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// SankeyLinks holds the link attributes as parallel arrays.
type SankeyLinks struct {
	Source []int         `json:"source"`
	Target []int         `json:"target"`
	Value  []json.Number `json:"value"`
}

// PlotlyLayout is the subset of the Plotly layout the page sets.
type PlotlyLayout struct {
	Title  string `json:"title,omitempty"`
	Height int    `json:"height,omitempty"`
	Font   Font   `json:"font"`
}

// Font sets the diagram font.
type Font struct {
	Size int `json:"size"`
}
