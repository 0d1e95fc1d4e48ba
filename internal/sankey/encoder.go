package sankey

import (
	"fmt"
	"slices"
)

// Encoder is a node registry: a bijection between distinct labels and dense
// integer codes in [0, Len()). Codes follow the sorted order of the labels,
// so the same label set always yields the same codes.
//
// An Encoder is immutable once built and must not be shared between graphs
// built from different tables.
type Encoder struct {
	codes  map[any]int
	labels []any
}

// NewEncoder builds an Encoder over the distinct values in labels.
// Duplicates are ignored. An empty input produces an empty Encoder.
func NewEncoder(labels []any) (*Encoder, error) {
	set := make(map[any]struct{}, len(labels))
	for _, l := range labels {
		norm, err := normalizeLabel(l)
		if err != nil {
			return nil, fmt.Errorf("%w: %T", err, l)
		}
		set[norm] = struct{}{}
	}
	return newEncoder(set), nil
}

// newEncoder builds an Encoder from an already-normalized label set.
func newEncoder(set map[any]struct{}) *Encoder {
	labels := make([]any, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, compareLabels)

	codes := make(map[any]int, len(labels))
	for i, l := range labels {
		codes[l] = i
	}
	return &Encoder{codes: codes, labels: labels}
}

// Len returns the number of distinct labels.
func (e *Encoder) Len() int {
	return len(e.labels)
}

// Code returns the code assigned to label.
func (e *Encoder) Code(label any) (int, bool) {
	norm, err := normalizeLabel(label)
	if err != nil {
		return 0, false
	}
	c, ok := e.codes[norm]
	return c, ok
}

// Label returns the label for code.
func (e *Encoder) Label(code int) (any, bool) {
	if code < 0 || code >= len(e.labels) {
		return nil, false
	}
	return e.labels[code], true
}

// Labels returns a copy of the labels indexed by code.
func (e *Encoder) Labels() []any {
	return slices.Clone(e.labels)
}
