package sankey

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayerSpec is returned when fewer than two layers are requested.
	ErrInvalidLayerSpec = errors.New("invalid layers")

	// ErrMissingField is returned when a record lacks a layer or value field.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidValueType is returned when a value field cannot be summed.
	ErrInvalidValueType = errors.New("invalid value type")

	// ErrInvalidLabel is returned when a layer value cannot be used as a node label.
	ErrInvalidLabel = errors.New("invalid label")
)

// FieldError describes a failure tied to one field of one input record.
type FieldError struct {
	Index int    // position of the record in the input
	Field string // field name
	Value any    // offending value, nil for missing fields
	Err   error  // one of the sentinel errors above
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("record %d: %v %q", e.Index, e.Err, e.Field)
	}
	return fmt.Sprintf("record %d: field %q: %v (%T)", e.Index, e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
