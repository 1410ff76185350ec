package bitmatch

import (
	"errors"
	"fmt"
)

// Summary counts the outcomes of a reconciliation run. The maps always hold
// every severity and every pattern, with zero counts where nothing matched.
type Summary struct {
	Suggestions int
	BySeverity  map[Severity]int
	ByPattern   map[Pattern]int

	Matched   int
	Conflicts int
	Exclusive int
	Anomalies int
	Rejected  int
}

// Report is the complete output of Reconcile.
type Report struct {
	Matched     []Matched
	Conflicts   []Conflict
	Exclusive   []Exclusive
	Suggestions []CorrectionSuggestion
	Anomalies   []Anomaly
	Rejected    []*InvalidRecordError
	Summary     Summary
}

// Aggregate counts suggestions by severity and pattern, alongside the match
// outcome, anomalies and rejected records. It has no business logic.
func Aggregate(suggestions []CorrectionSuggestion, rec Reconciliation, anomalies []Anomaly, rejected int) Summary {
	s := Summary{
		Suggestions: len(suggestions),
		BySeverity:  make(map[Severity]int, len(Severities)),
		ByPattern:   make(map[Pattern]int, len(Patterns)),
		Matched:     len(rec.Matched),
		Conflicts:   len(rec.Conflicts),
		Exclusive:   len(rec.Exclusive),
		Anomalies:   len(anomalies),
		Rejected:    rejected,
	}
	for _, sev := range Severities {
		s.BySeverity[sev] = 0
	}
	for _, p := range Patterns {
		s.ByPattern[p] = 0
	}
	for _, sg := range suggestions {
		s.BySeverity[sg.Severity]++
		s.ByPattern[sg.Pattern]++
	}
	return s
}

// Reconcile runs the whole engine on the records of both origins.
//
// Records violating an invariant, or sitting in the wrong sequence, are left
// out of the run and listed in Report.Rejected; the returned error then joins
// their *InvalidRecordError so that callers cannot miss them, while the
// report still covers every valid record. An invalid cfg aborts the run.
func Reconcile(exports, chain []Record, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var rejected []*InvalidRecordError
	validExports := accept(exports, LedgerExport, &rejected)
	validChain := accept(chain, ChainFeed, &rejected)

	all := make([]Record, 0, len(validExports)+len(validChain))
	all = append(all, validExports...)
	all = append(all, validChain...)

	groups := GroupRecords(all, cfg)
	suggestions := ClassifyAll(groups, cfg)
	rec := MatchRecords(validExports, validChain, cfg)
	anomalies := DetectAnomalies(all, cfg)

	report := &Report{
		Matched:     rec.Matched,
		Conflicts:   rec.Conflicts,
		Exclusive:   rec.Exclusive,
		Suggestions: suggestions,
		Anomalies:   anomalies,
		Rejected:    rejected,
		Summary:     Aggregate(suggestions, rec, anomalies, len(rejected)),
	}

	if len(rejected) == 0 {
		return report, nil
	}
	errs := make([]error, len(rejected))
	for i, e := range rejected {
		errs[i] = e
	}
	return report, fmt.Errorf("%d record(s) rejected: %w", len(rejected), errors.Join(errs...))
}

// accept returns the records of a sequence that are valid and belong to
// origin, appending an error for every other one.
func accept(records []Record, origin Origin, rejected *[]*InvalidRecordError) []Record {
	valid := make([]Record, 0, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			var ire *InvalidRecordError
			if errors.As(err, &ire) {
				ire.Origin = origin
				ire.Position = i
				*rejected = append(*rejected, ire)
			}
			continue
		}
		if r.Origin != origin {
			*rejected = append(*rejected, &InvalidRecordError{
				Origin:   origin,
				Position: i,
				Field:    "origin",
				Reason:   fmt.Sprintf("%s record in the %s sequence", r.Origin, origin),
				Record:   r,
			})
			continue
		}
		valid = append(valid, r)
	}
	return valid
}
