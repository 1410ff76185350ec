package bitmatch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeRecords decodes records from a stream of JSONL data. Records without
// an origin get origin; records with another origin are kept as is and will
// be rejected by Reconcile. Input order is preserved.
func DecodeRecords(r io.Reader, origin Origin) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var rec Record
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			return nil, fmt.Errorf("line %d: could not decode record %q: %w", line, string(lineBytes), err)
		}
		if rec.Origin == "" {
			rec.Origin = origin
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return records, nil
}

// EncodeRecord marshals a single record to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeRecord(w io.Writer, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// EncodeRecords writes records in canonical order in JSONL format. The
// caller's slice is left untouched.
func EncodeRecords(w io.Writer, records []Record) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sortRecords(sorted)
	for _, rec := range sorted {
		if err := EncodeRecord(w, rec); err != nil {
			return err
		}
	}
	return nil
}

// EncodeReport writes the report as an indented JSON document.
func EncodeReport(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
