package bitmatch

import (
	"time"
)

// t0 is the reference time of test records.
var t0 = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

// exportRec is a helper for test to create a ledger export record at t0+at.
func exportRec(at time.Duration, amount float64, id string) Record {
	return Record{
		Timestamp:  t0.Add(at),
		Asset:      "BTC",
		Amount:     Q(amount),
		ExternalID: id,
		Kind:       kindOf(amount),
		Origin:     LedgerExport,
	}
}

// chainRec is a helper for test to create a chain feed record at t0+at.
func chainRec(at time.Duration, amount float64, id string) Record {
	r := exportRec(at, amount, id)
	r.Origin = ChainFeed
	return r
}

func kindOf(amount float64) Kind {
	if amount < 0 {
		return Outbound
	}
	return Inbound
}

// withMeta returns r carrying meta.
func withMeta(r Record, meta AssetMeta) Record {
	r.Meta = meta
	return r
}
