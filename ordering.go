package bitmatch

import (
	"cmp"
	"slices"
	"strings"
)

// compareRecords returns:
//   - negative if a sorts before b
//   - zero if a and b are indistinguishable for ordering
//   - positive if a sorts after b
//
// Order: timestamp, origin (ledger export first), external id, amount.
func compareRecords(a, b Record) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Origin.rank(), b.Origin.rank()); c != 0 {
		return c
	}
	if c := strings.Compare(a.ExternalID, b.ExternalID); c != 0 {
		return c
	}
	return a.Amount.Cmp(b.Amount)
}

// sortRecords orders records canonically. The sort is stable: records that
// compare equal keep their input order.
func sortRecords(records []Record) {
	slices.SortStableFunc(records, compareRecords)
}
