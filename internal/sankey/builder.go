package sankey

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Options adjusts how Build treats labels.
type Options struct {
	// NamespaceLayers prefixes every label with its layer name ("District:A")
	// so equal values from different layers become different nodes. By
	// default labels share one namespace and equal values merge across hops.
	// A namespaced label is a string built from the printed value, so values
	// of one layer that print alike (2020 and "2020") become one node.
	NamespaceLayers bool
}

// edge is a (source, target, value) triple before encoding.
type edge struct {
	source any
	target any
	value  decimal.Decimal
}

type edgeKey struct {
	source any
	target any
}

// Build turns records into a flow graph. Each adjacent pair of layers is one
// hop; every record contributes one edge per hop, edges with the same
// (source, target) labels are summed across all hops, and the surviving
// labels are encoded as dense codes in sorted order.
//
// Build requires at least two layers and every layer and valueField must be
// present on every record. Null layer values are kept as a distinct label;
// callers that do not want them must filter upstream. The records are not
// modified.
func Build[R Record](records []R, layers []string, valueField string) (*Graph, error) {
	return BuildWithOptions(records, layers, valueField, Options{})
}

// BuildWithOptions is Build with explicit Options.
func BuildWithOptions[R Record](records []R, layers []string, valueField string, opts Options) (*Graph, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: need at least two layers, got %d", ErrInvalidLayerSpec, len(layers))
	}

	edges, err := projectHops(records, layers, valueField, opts)
	if err != nil {
		return nil, err
	}

	agg := aggregate(edges)

	set := make(map[any]struct{}, 2*len(agg))
	for _, e := range agg {
		set[e.source] = struct{}{}
		set[e.target] = struct{}{}
	}
	enc := newEncoder(set)

	links := make([]Link, 0, len(agg))
	for _, e := range agg {
		links = append(links, Link{
			Source: enc.codes[e.source],
			Target: enc.codes[e.target],
			Value:  e.value,
		})
	}
	slices.SortFunc(links, func(a, b Link) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})

	return &Graph{Labels: enc.labels, Links: links}, nil
}

// projectHops extracts one edge per record per adjacent layer pair, hop by
// hop, after validating every record's fields.
func projectHops[R Record](records []R, layers []string, valueField string, opts Options) ([]edge, error) {
	rows := make([][]any, len(records))
	values := make([]decimal.Decimal, len(records))

	for i, rec := range records {
		labels, value, err := readRecord(i, rec, layers, valueField, opts)
		if err != nil {
			return nil, err
		}
		rows[i] = labels
		values[i] = value
	}

	edges := make([]edge, 0, len(records)*(len(layers)-1))
	for hop := 0; hop < len(layers)-1; hop++ {
		for i := range rows {
			edges = append(edges, edge{
				source: rows[i][hop],
				target: rows[i][hop+1],
				value:  values[i],
			})
		}
	}
	return edges, nil
}

// readRecord returns the normalized layer labels and the weight of one record.
func readRecord(index int, rec Record, layers []string, valueField string, opts Options) ([]any, decimal.Decimal, error) {
	labels := make([]any, len(layers))
	for j, layer := range layers {
		raw, ok := rec.Field(layer)
		if !ok {
			return nil, decimal.Zero, &FieldError{Index: index, Field: layer, Err: ErrMissingField}
		}
		label, err := normalizeLabel(raw)
		if err != nil {
			return nil, decimal.Zero, &FieldError{Index: index, Field: layer, Value: raw, Err: err}
		}
		if opts.NamespaceLayers {
			label = layer + ":" + LabelString(label)
		}
		labels[j] = label
	}

	raw, ok := rec.Field(valueField)
	if !ok {
		return nil, decimal.Zero, &FieldError{Index: index, Field: valueField, Err: ErrMissingField}
	}
	value, err := toDecimal(raw)
	if err != nil {
		return nil, decimal.Zero, &FieldError{Index: index, Field: valueField, Value: raw, Err: err}
	}
	return labels, value, nil
}

// aggregate groups edges by (source, target) and sums their values. The
// result keeps first-seen order; Build sorts after encoding.
func aggregate(edges []edge) []edge {
	index := make(map[edgeKey]int, len(edges))
	var out []edge
	for _, e := range edges {
		k := edgeKey{source: e.source, target: e.target}
		if i, ok := index[k]; ok {
			out[i].value = out[i].value.Add(e.value)
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}
