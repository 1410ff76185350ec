package bitmatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObjectWriter builds a JSON object whose keys keep the order they are
// written in. The first marshaling error sticks and is returned by
// MarshalJSON. Its zero value is ready to use.
type jsonObjectWriter struct {
	bytes.Buffer
	err error
}

// EmbedFrom inlines the fields of v, which must marshal to a JSON object.
func (w *jsonObjectWriter) EmbedFrom(v any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal for embedding: %w", err)
		return w
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		w.err = fmt.Errorf("cannot embed %T: not a JSON object", v)
		return w
	}
	if fields := raw[1 : len(raw)-1]; len(fields) > 0 {
		w.Write(fields)
		w.WriteString(",")
	}
	return w
}

// Append writes key with the JSON encoding of value.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}
	fmt.Fprintf(w, "%q:", key)
	w.Write(raw)
	w.WriteString(",")
	return w
}

// Optional is Append, skipped when value is its type's zero value.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if v := reflect.ValueOf(value); !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// OptionalQuantity is Append, skipped for a zero quantity. Optional cannot
// tell a zero decimal from an unset one.
func (w *jsonObjectWriter) OptionalQuantity(key string, q Quantity) *jsonObjectWriter {
	if q.IsZero() {
		return w
	}
	return w.Append(key, q)
}

// MarshalJSON returns the object written so far.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	fields := bytes.TrimSuffix(w.Bytes(), []byte(","))
	out := make([]byte, 0, len(fields)+2)
	out = append(out, '{')
	out = append(out, fields...)
	return append(out, '}'), nil
}
