// Package bitmatch reconciles a crypto ledger export against the on-chain
// transaction feed of the same wallets.
//
// Records of both sources are normalized into [Record] values and then go
// through three independent stages:
//   - Matching: [MatchRecords] pairs export records with chain records, first by
//     external id, then by time window and amount deviation. Export records
//     left alone are conflicts, chain records left alone are exclusive to the
//     chain feed.
//   - Grouping: [GroupRecords] clusters records into events, by shared id,
//     then by time bucket.
//   - Classification: [Classify] recognizes the shape of an event (bulk
//     mint, mint buy, self transfer, gas fee, sale) and suggests the actions
//     that fix the export.
//
// [Reconcile] runs them all, detects data quality anomalies, and aggregates
// everything into a [Report].
//
// This package serves as the foundational logic for the `bm` command-line
// tool.
package bitmatch
