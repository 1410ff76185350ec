package bitmatch

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupKeys(groups []EventGroup) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

func TestGroupRecords_ExactID(t *testing.T) {
	records := []Record{
		exportRec(0, -0.00016398, "a1"),
		chainRec(3*time.Minute, -0.00016398, "a1"),
		chainRec(3*time.Minute, 0.0000033, "a1"),
	}
	groups := GroupRecords(records, DefaultConfig())
	require.Len(t, groups, 1)
	assert.Equal(t, "id:a1", groups[0].Key)
	assert.Equal(t, ByExactID, groups[0].Basis)
	assert.Equal(t, 3, groups[0].Len())
	assert.Len(t, groups[0].Inbound(), 1)
	assert.Len(t, groups[0].Outbound(), 2)
}

func TestGroupRecords_TimeWindow(t *testing.T) {
	records := []Record{
		exportRec(10*time.Second, -0.00002765, ""),
		exportRec(40*time.Second, 0.0000033, ""),
		chainRec(90*time.Second, 0.0000033, "c1"),   // within 2 minutes of the bucket
		chainRec(5*time.Minute, -0.0000213, "c2"),   // too far
		exportRec(10*time.Minute, -0.0000213, "e9"), // own bucket, id seen once
	}
	groups := GroupRecords(records, DefaultConfig())
	require.Len(t, groups, 3)

	assert.Equal(t, "time:2024-03-14T09:30:00Z", groups[0].Key)
	assert.Equal(t, ByTimeWindow, groups[0].Basis)
	assert.Equal(t, 3, groups[0].Len())

	assert.Equal(t, "id:c2", groups[1].Key)
	assert.Equal(t, Single, groups[1].Basis)

	assert.Equal(t, "time:2024-03-14T09:40:00Z", groups[2].Key)
	assert.Equal(t, 1, groups[2].Len())
}

func TestGroupRecords_ChainJoinsEarliestBucket(t *testing.T) {
	records := []Record{
		exportRec(0, -0.001, ""),
		exportRec(time.Minute, -0.002, ""),
		chainRec(90*time.Second, -0.001, ""),
	}
	groups := GroupRecords(records, DefaultConfig())
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].Len())
	assert.Equal(t, 1, groups[1].Len())
}

func TestGroupRecords_SingleKeys(t *testing.T) {
	records := []Record{
		chainRec(0, 0.5, ""),
		chainRec(0, 0.7, ""),
	}
	groups := GroupRecords(records, DefaultConfig())
	require.Len(t, groups, 2)
	assert.NotEqual(t, groups[0].Key, groups[1].Key)
	for _, g := range groups {
		assert.Equal(t, Single, g.Basis)
		assert.Contains(t, g.Key, "chain:")
	}
}

func TestGroupRecords_Partition(t *testing.T) {
	records := []Record{
		exportRec(0, -0.00016398, "m1"),
		chainRec(time.Minute, 0.0000033, "m1"),
		chainRec(time.Minute, 0.0000033, "m1"),
		exportRec(20*time.Minute, 0.00001092, ""),
		chainRec(21*time.Minute, 0.00001092, "s1"),
		chainRec(2*time.Hour, -0.0000213, ""),
		exportRec(3*time.Hour, -1.5, "w1"),
	}
	groups := GroupRecords(records, DefaultConfig())

	// multiset of records: the two identical chain records count twice
	pending := make(map[string]int)
	for _, r := range records {
		pending[recordKey(r)]++
	}
	for _, g := range groups {
		require.NotZero(t, g.Len(), "group %s is empty", g.Key)
		for _, r := range g.Records() {
			k := recordKey(r)
			require.Positive(t, pending[k], "record %s is grouped more often than given", k)
			pending[k]--
		}
	}
	for k, n := range pending {
		assert.Zero(t, n, "record %s is missing from the groups", k)
	}
}

func recordKey(r Record) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Origin, r.ExternalID, r.Timestamp.Format(time.RFC3339), r.Amount)
}

func TestGroupRecords_Deterministic(t *testing.T) {
	records := []Record{
		exportRec(0, -0.00016398, ""),
		chainRec(30*time.Second, 0.0000033, "x1"),
		chainRec(30*time.Second, 0.0000034, "x2"),
		exportRec(15*time.Minute, 0.00001092, "y"),
		chainRec(15*time.Minute, 0.00001092, "y"),
		chainRec(time.Hour, -0.0000213, ""),
	}
	want := GroupRecords(records, DefaultConfig())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]Record, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := GroupRecords(shuffled, DefaultConfig())
		assert.Equal(t, groupKeys(want), groupKeys(got))
		for i := range want {
			assert.Equal(t, want[i].Records(), got[i].Records())
		}
	}
}

func TestGroupRecords_Empty(t *testing.T) {
	assert.Empty(t, GroupRecords(nil, DefaultConfig()))
}

func TestEventGroup_RecordsIsACopy(t *testing.T) {
	g := NewEventGroup("k", Single, chainRec(0, 1, ""))
	rs := g.Records()
	rs[0].Asset = "SOL"
	assert.Equal(t, "BTC", g.Records()[0].Asset)
	assert.Equal(t, t0, g.Start())
}
