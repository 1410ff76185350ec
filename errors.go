package bitmatch

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every *InvalidRecordError through errors.Is.
var ErrInvalidRecord = errors.New("invalid record")

// ErrInvalidConfig is returned when a Config cannot drive a run.
var ErrInvalidConfig = errors.New("invalid config")

// InvalidRecordError identifies a record that violates a data model invariant.
type InvalidRecordError struct {
	Origin   Origin // origin of the sequence the record came from
	Position int    // zero-based position in that sequence
	Field    string // offending field
	Reason   string
	Record   Record
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("%s record #%d: %s: %s", e.Origin, e.Position, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRecord) true.
func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// MarshalJSON implements the json.Marshaler interface for InvalidRecordError.
func (e *InvalidRecordError) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("origin", e.Origin)
	w.Append("position", e.Position)
	w.Append("field", e.Field)
	w.Append("reason", e.Reason)
	return w.MarshalJSON()
}
