package bitmatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRecords_ExactID(t *testing.T) {
	exports := []Record{exportRec(0, -0.5, "tx1")}
	chain := []Record{
		chainRec(time.Hour, -0.4, "tx1"), // ids win over time and amount
	}
	rec := MatchRecords(exports, chain, DefaultConfig())
	require.Len(t, rec.Matched, 1)
	m := rec.Matched[0]
	assert.Equal(t, ExactID, m.Type)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, time.Hour, m.TimeDelta)
	assert.Empty(t, rec.Conflicts)
	assert.Empty(t, rec.Exclusive)
}

func TestMatchRecords_Fuzzy(t *testing.T) {
	exports := []Record{exportRec(0, 0.001, "")}
	chain := []Record{chainRec(10*time.Minute, 0.0010005, "")}
	rec := MatchRecords(exports, chain, DefaultConfig())
	require.Len(t, rec.Matched, 1)
	m := rec.Matched[0]
	assert.Equal(t, FuzzyTimeAmount, m.Type)
	assert.InDelta(t, 0.95, m.Confidence, 1e-9)
	assert.True(t, m.Deviation.Equal(Q(0.0005)), "deviation %s", m.Deviation)
	assert.Equal(t, 10*time.Minute, m.TimeDelta)
}

func TestMatchRecords_FuzzyBounds(t *testing.T) {
	tests := []struct {
		name  string
		chain Record
		match bool
	}{
		{"exact amount", chainRec(-29*time.Minute, 0.001, ""), true},
		{"deviation at tolerance", chainRec(time.Minute, 0.000999, ""), true},
		{"deviation over tolerance", chainRec(time.Minute, 0.0010011, ""), false},
		{"outside window", chainRec(31*time.Minute, 0.001, ""), false},
		{"window boundary", chainRec(30*time.Minute, 0.001, ""), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := MatchRecords([]Record{exportRec(0, 0.001, "")}, []Record{tc.chain}, DefaultConfig())
			if tc.match {
				assert.Len(t, rec.Matched, 1)
				assert.Empty(t, rec.Conflicts)
			} else {
				assert.Empty(t, rec.Matched)
				assert.Len(t, rec.Conflicts, 1)
				assert.Len(t, rec.Exclusive, 1)
			}
		})
	}
}

func TestMatchRecords_ConfidenceNeverBelowFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmountDeviationPct = Q(1)
	// 0.5% deviation is within tolerance but scores 0.5
	rec := MatchRecords([]Record{exportRec(0, 1, "")}, []Record{chainRec(0, 1.005, "")}, cfg)
	assert.Empty(t, rec.Matched)
	require.Len(t, rec.Conflicts, 1)
	assert.Equal(t, MissingInChainFeed, rec.Conflicts[0].Issue)
}

func TestMatchRecords_TieBreaks(t *testing.T) {
	t.Run("lowest deviation", func(t *testing.T) {
		chain := []Record{
			chainRec(time.Minute, 0.0010005, "far-amount"),
			chainRec(20*time.Minute, 0.0010001, "close-amount"),
		}
		rec := MatchRecords([]Record{exportRec(0, 0.001, "")}, chain, DefaultConfig())
		require.Len(t, rec.Matched, 1)
		assert.Equal(t, "close-amount", rec.Matched[0].Chain.ExternalID)
	})

	t.Run("smallest gap", func(t *testing.T) {
		chain := []Record{
			chainRec(-20*time.Minute, 0.001, "late"),
			chainRec(5*time.Minute, 0.001, "near"),
		}
		rec := MatchRecords([]Record{exportRec(0, 0.001, "")}, chain, DefaultConfig())
		require.Len(t, rec.Matched, 1)
		assert.Equal(t, "near", rec.Matched[0].Chain.ExternalID)
	})

	t.Run("input order", func(t *testing.T) {
		chain := []Record{
			chainRec(5*time.Minute, 0.001, "first"),
			chainRec(-5*time.Minute, 0.001, "second"),
		}
		rec := MatchRecords([]Record{exportRec(0, 0.001, "")}, chain, DefaultConfig())
		require.Len(t, rec.Matched, 1)
		assert.Equal(t, "first", rec.Matched[0].Chain.ExternalID)
	})
}

func TestMatchRecords_ChainClaimedOnce(t *testing.T) {
	exports := []Record{
		exportRec(0, 0.001, ""),
		exportRec(time.Minute, 0.001, ""),
	}
	chain := []Record{chainRec(30*time.Second, 0.001, "")}
	rec := MatchRecords(exports, chain, DefaultConfig())
	assert.Len(t, rec.Matched, 1)
	assert.Len(t, rec.Conflicts, 1)
	assert.Empty(t, rec.Exclusive)
	assert.True(t, rec.Conflicts[0].Export.Timestamp.Equal(t0.Add(time.Minute)))
}

func TestMatchRecords_ExactBeforeFuzzy(t *testing.T) {
	exports := []Record{
		exportRec(0, 0.001, ""),    // would fuzzily take the chain record
		exportRec(0, 0.001, "id7"), // identifies it exactly
	}
	chain := []Record{chainRec(0, 0.001, "id7")}
	rec := MatchRecords(exports, chain, DefaultConfig())
	require.Len(t, rec.Matched, 1)
	assert.Equal(t, ExactID, rec.Matched[0].Type)
	assert.Equal(t, "id7", rec.Matched[0].Export.ExternalID)
}

func TestMatchRecords_AssetMismatch(t *testing.T) {
	// sources often label the same asset differently
	e := exportRec(0, 0.001, "")
	e.Asset = "XBT"
	c := chainRec(0, 0.001, "")

	rec := MatchRecords([]Record{e}, []Record{c}, DefaultConfig())
	require.Len(t, rec.Matched, 1)
	assert.Equal(t, FuzzyTimeAmount, rec.Matched[0].Type)
	assert.Empty(t, rec.Conflicts)
	assert.Empty(t, rec.Exclusive)

	cfg := DefaultConfig()
	cfg.RequireSameAsset = true
	rec = MatchRecords([]Record{e}, []Record{c}, cfg)
	assert.Empty(t, rec.Matched)
	assert.Len(t, rec.Conflicts, 1)
	assert.Len(t, rec.Exclusive, 1)

	e.Asset = "btc"
	rec = MatchRecords([]Record{e}, []Record{c}, cfg)
	assert.Len(t, rec.Matched, 1, "asset labels compare case-insensitively")
}

func TestMatchRecords_ZeroAmountNeverMatches(t *testing.T) {
	e := exportRec(0, 0, "z")
	rec := MatchRecords([]Record{e}, []Record{chainRec(0, 0.001, "z")}, DefaultConfig())
	assert.Empty(t, rec.Matched)
	assert.Len(t, rec.Conflicts, 1)
	assert.Len(t, rec.Exclusive, 1)
}

func TestReconciliation_Results(t *testing.T) {
	exports := []Record{exportRec(0, 0.001, "a"), exportRec(0, 0.5, "")}
	chain := []Record{chainRec(0, 0.001, "a"), chainRec(time.Hour, 2, "")}
	rec := MatchRecords(exports, chain, DefaultConfig())

	results := rec.Results()
	require.Len(t, results, 3)
	assert.IsType(t, Matched{}, results[0])
	assert.IsType(t, Conflict{}, results[1])
	assert.IsType(t, Exclusive{}, results[2])

	// every record appears in exactly one result
	assert.Equal(t, len(exports), len(rec.Matched)+len(rec.Conflicts))
	assert.Equal(t, len(chain), len(rec.Matched)+len(rec.Exclusive))
}
