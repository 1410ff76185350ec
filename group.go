package bitmatch

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// GroupBasis tells how the records of an EventGroup were correlated.
type GroupBasis string

const (
	ByExactID    GroupBasis = "EXACT_ID"    // records share an external id
	ByTimeWindow GroupBasis = "TIME_WINDOW" // export bucket plus nearby chain records
	Single       GroupBasis = "SINGLE"      // a chain record nothing correlates with
)

// EventGroup is a set of records believed to represent one real-world
// action. Groups are built by GroupRecords and are read-only afterwards.
type EventGroup struct {
	Key   string
	Basis GroupBasis

	records []Record // canonical order
}

// NewEventGroup creates a group holding a copy of records in canonical order.
func NewEventGroup(key string, basis GroupBasis, records ...Record) EventGroup {
	rs := slices.Clone(records)
	sortRecords(rs)
	return EventGroup{Key: key, Basis: basis, records: rs}
}

// Records returns a copy of the group records.
func (g EventGroup) Records() []Record { return slices.Clone(g.records) }

// Len returns the number of records in the group.
func (g EventGroup) Len() int { return len(g.records) }

// Start returns the timestamp of the earliest record.
func (g EventGroup) Start() time.Time {
	if len(g.records) == 0 {
		return time.Time{}
	}
	return g.records[0].Timestamp
}

// Inbound returns the records with a positive amount, whatever their origin.
func (g EventGroup) Inbound() []Record {
	var in []Record
	for _, r := range g.records {
		if r.IsInbound() {
			in = append(in, r)
		}
	}
	return in
}

// Outbound returns the records with a negative amount, whatever their origin.
func (g EventGroup) Outbound() []Record {
	var out []Record
	for _, r := range g.records {
		if r.IsOutbound() {
			out = append(out, r)
		}
	}
	return out
}

// GroupRecords partitions records from both origins into event groups.
//
//  1. Records sharing an external id with at least one other record form an
//     EXACT_ID group.
//  2. Remaining ledger-export records are bucketed by truncating their
//     timestamp to cfg.BucketSize. Each bucket, in ascending time, attaches
//     every remaining chain record within cfg.GroupWindow of the bucket start.
//  3. Remaining chain records become SINGLE groups.
//
// Every input record ends up in exactly one group. The result is ordered by
// the first record of each group, then by key, and does not depend on the
// input order beyond ties between otherwise identical records.
func GroupRecords(records []Record, cfg Config) []EventGroup {
	pool := slices.Clone(records)
	sortRecords(pool)
	used := make([]bool, len(pool))

	var groups []EventGroup

	// 1. exact correlation
	counts := make(map[string]int)
	for _, r := range pool {
		if r.ExternalID != "" {
			counts[r.ExternalID]++
		}
	}
	byID := make(map[string][]Record)
	var ids []string
	for i, r := range pool {
		if r.ExternalID == "" || counts[r.ExternalID] < 2 {
			continue
		}
		if _, exists := byID[r.ExternalID]; !exists {
			ids = append(ids, r.ExternalID)
		}
		byID[r.ExternalID] = append(byID[r.ExternalID], r)
		used[i] = true
	}
	for _, id := range ids {
		groups = append(groups, EventGroup{Key: "id:" + id, Basis: ByExactID, records: byID[id]})
	}

	// 2. time buckets of export records
	type bucket struct {
		start   time.Time
		members []int
	}
	var buckets []*bucket
	byStart := make(map[int64]*bucket)
	for i, r := range pool {
		if used[i] || r.Origin != LedgerExport {
			continue
		}
		start := r.Timestamp.UTC().Truncate(cfg.BucketSize)
		b, exists := byStart[start.UnixNano()]
		if !exists {
			// pool is sorted, so buckets are created in ascending time.
			b = &bucket{start: start}
			byStart[start.UnixNano()] = b
			buckets = append(buckets, b)
		}
		b.members = append(b.members, i)
		used[i] = true
	}
	for _, b := range buckets {
		var rs []Record
		for _, i := range b.members {
			rs = append(rs, pool[i])
		}
		for i, r := range pool {
			if used[i] || r.Origin != ChainFeed {
				continue
			}
			if absDuration(r.Timestamp.Sub(b.start)) <= cfg.GroupWindow {
				rs = append(rs, r)
				used[i] = true
			}
		}
		sortRecords(rs)
		groups = append(groups, EventGroup{
			Key:     "time:" + b.start.Format(time.RFC3339),
			Basis:   ByTimeWindow,
			records: rs,
		})
	}

	// 3. leftovers
	n := 0
	for i, r := range pool {
		if used[i] {
			continue
		}
		used[i] = true
		key := "id:" + r.ExternalID
		if r.ExternalID == "" {
			key = fmt.Sprintf("%s:%d:%d", originPrefix(r.Origin), r.Timestamp.UnixNano(), n)
			n++
		}
		groups = append(groups, EventGroup{Key: key, Basis: Single, records: []Record{r}})
	}

	slices.SortStableFunc(groups, func(a, b EventGroup) int {
		if c := compareRecords(a.records[0], b.records[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}

func originPrefix(o Origin) string {
	if o == LedgerExport {
		return "export"
	}
	return "chain"
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
