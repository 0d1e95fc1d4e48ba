// Package sankey builds layered flow graphs from categorical records.
//
// A flow graph is described by an ordered label list, where the index of a
// label is its node code, and a list of links between codes. Build walks
// every adjacent pair of layers, sums the weights of identical
// (source, target) pairs across all hops, and assigns each distinct label a
// dense integer code.
package sankey

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Record is one row of the input table. Field reports the value stored
// under name and whether the field exists at all.
type Record interface {
	Field(name string) (any, bool)
}

// Row is a map-backed Record.
type Row map[string]any

// Field implements Record.
func (r Row) Field(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// Graph is the renderer-agnostic description of a flow diagram.
type Graph struct {
	// Labels holds one entry per node; the slice index is the node code.
	Labels []any  `json:"labels"`
	Links  []Link `json:"links"`
}

// Link is an aggregated edge between two node codes.
type Link struct {
	Source int             `json:"source"`
	Target int             `json:"target"`
	Value  decimal.Decimal `json:"value"`
}

// MarshalJSON encodes Value as a JSON number rather than a quoted string.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source int         `json:"source"`
		Target int         `json:"target"`
		Value  json.Number `json:"value"`
	}{l.Source, l.Target, json.Number(l.Value.String())})
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Labels) == 0
}

// Names returns the display form of every label, indexed by code.
func (g *Graph) Names() []string {
	names := make([]string, len(g.Labels))
	for i, l := range g.Labels {
		names[i] = LabelString(l)
	}
	return names
}

// Total returns the sum of all link values.
func (g *Graph) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Links {
		total = total.Add(l.Value)
	}
	return total
}

// LabelString formats a label for display. A nil label prints as "null".
func LabelString(label any) string {
	if label == nil {
		return "null"
	}
	return fmt.Sprint(label)
}
