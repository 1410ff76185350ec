package bitmatch

import (
	"strings"
	"time"
)

// MatchType names the tier that produced a match.
type MatchType string

const (
	ExactID         MatchType = "EXACT_ID"
	FuzzyTimeAmount MatchType = "FUZZY_TIME_AMOUNT"
)

// Issue qualifies a conflict.
type Issue string

const (
	MissingInChainFeed Issue = "MISSING_IN_CHAIN_FEED"
)

// MatchResult is one outcome of the tiered matcher: Matched, Conflict or
// Exclusive.
type MatchResult interface {
	isMatchResult()
}

// Matched pairs an export record with the chain record that confirms it.
type Matched struct {
	Export     Record
	Chain      Record
	Confidence float64
	Type       MatchType
	Deviation  Quantity      // relative amount deviation, zero for exact matches
	TimeDelta  time.Duration // chain timestamp minus export timestamp
}

// Conflict is an export record nothing on chain confirms.
type Conflict struct {
	Export Record
	Issue  Issue
}

// Exclusive is a chain record absent from the export: unreported activity.
type Exclusive struct {
	Record Record
}

func (Matched) isMatchResult()   {}
func (Conflict) isMatchResult()  {}
func (Exclusive) isMatchResult() {}

// Reconciliation is the output of MatchRecords.
type Reconciliation struct {
	Matched   []Matched   // in export input order
	Conflicts []Conflict  // in export input order
	Exclusive []Exclusive // in chain input order
}

// Results returns every result: matches, then conflicts, then exclusives.
func (r Reconciliation) Results() []MatchResult {
	results := make([]MatchResult, 0, len(r.Matched)+len(r.Conflicts)+len(r.Exclusive))
	for _, m := range r.Matched {
		results = append(results, m)
	}
	for _, c := range r.Conflicts {
		results = append(results, c)
	}
	for _, e := range r.Exclusive {
		results = append(results, e)
	}
	return results
}

var (
	one          = Q(1)
	hundred      = Q(100)
	minFuzzyConf = Q(0.9)
)

// MatchRecords reconciles export records against chain records.
//
// Tier 1 pairs records sharing a non-empty external id, with confidence 1.
// Tier 2 pairs each remaining export record with the chain record within
// cfg.MatchWindow whose amount deviates the least, provided the deviation is
// at most cfg.AmountDeviationPct percent; ties go to the smallest time gap,
// then to the earliest chain record in input order. Remaining export records
// are conflicts, remaining chain records are exclusive.
//
// Records are assumed valid. An export record with a zero amount is never
// matched.
func MatchRecords(exports, chain []Record, cfg Config) Reconciliation {
	claimed := make([]bool, len(chain))
	pairs := make([]*Matched, len(exports))

	// Tier 1 runs to completion first so that a fuzzy match never steals a
	// chain record another export identifies exactly.
	chainByID := make(map[string][]int)
	for j, c := range chain {
		if c.ExternalID != "" {
			chainByID[c.ExternalID] = append(chainByID[c.ExternalID], j)
		}
	}
	for i, e := range exports {
		if e.ExternalID == "" || e.Amount.IsZero() {
			continue
		}
		for _, j := range chainByID[e.ExternalID] {
			if claimed[j] {
				continue
			}
			claimed[j] = true
			pairs[i] = &Matched{
				Export:     e,
				Chain:      chain[j],
				Confidence: 1.0,
				Type:       ExactID,
				TimeDelta:  chain[j].Timestamp.Sub(e.Timestamp),
			}
			break
		}
	}

	// Tier 2
	tolerance := cfg.AmountDeviationPct.Div(hundred)
	for i, e := range exports {
		if pairs[i] != nil || e.Amount.IsZero() {
			continue
		}
		best := -1
		var bestDev Quantity
		var bestGap time.Duration
		for j, c := range chain {
			if claimed[j] {
				continue
			}
			gap := absDuration(c.Timestamp.Sub(e.Timestamp))
			if gap > cfg.MatchWindow {
				continue
			}
			if cfg.RequireSameAsset && !strings.EqualFold(c.Asset, e.Asset) {
				continue
			}
			dev := e.Amount.Sub(c.Amount).Abs().Div(e.Amount.Abs())
			if dev.GreaterThan(tolerance) {
				continue
			}
			if best < 0 || dev.LessThan(bestDev) || (dev.Equal(bestDev) && gap < bestGap) {
				best, bestDev, bestGap = j, dev, gap
			}
		}
		if best < 0 {
			continue
		}
		conf := one.Sub(bestDev.Mul(hundred))
		if conf.LessThan(minFuzzyConf) {
			continue
		}
		if conf.GreaterThan(one) {
			conf = one
		}
		claimed[best] = true
		pairs[i] = &Matched{
			Export:     e,
			Chain:      chain[best],
			Confidence: conf.Float(),
			Type:       FuzzyTimeAmount,
			Deviation:  bestDev,
			TimeDelta:  chain[best].Timestamp.Sub(e.Timestamp),
		}
	}

	// Tier 3 and residuals
	var rec Reconciliation
	for i, e := range exports {
		if pairs[i] != nil {
			rec.Matched = append(rec.Matched, *pairs[i])
			continue
		}
		rec.Conflicts = append(rec.Conflicts, Conflict{Export: e, Issue: MissingInChainFeed})
	}
	for j, c := range chain {
		if !claimed[j] {
			rec.Exclusive = append(rec.Exclusive, Exclusive{Record: c})
		}
	}
	return rec
}
