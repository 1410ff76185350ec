package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/bitmatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mempoolLike = `{
  "address": "bc1pexample",
  "txs": [
    {"txid": "a3f1c2d4e5b60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90", "status": {"block_time": 1710408600}, "value": -16398, "fee": 1210},
    {"txid": "b3f1c2d4e5b60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90", "status": {"block_time": 1710408630}, "value": 330, "inscription": "b3f1c2d4e5b60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90i0"},
    {"txid": "c3f1c2d4e5b60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90", "status": {"block_time": 1710412200}, "value": "546", "direction": "send", "rune": "DOG•GO•TO•THE•MOON"}
  ]
}`

func TestMapping_Decode(t *testing.T) {
	m := Mapping{
		Items:        "$.txs[*]",
		Timestamp:    "$.status.block_time",
		TimeLayout:   Unix,
		DefaultAsset: "BTC",
		Amount:       "$.value",
		AmountScale:  -8,
		Fee:          "$.fee",
		ExternalID:   "$.txid",
		Kind:         "$.direction",
		Inscription:  "$.inscription",
		Rune:         "$.rune",
	}
	records, err := m.Decode(strings.NewReader(mempoolLike))
	require.NoError(t, err)
	require.Len(t, records, 3)

	pay := records[0]
	assert.Equal(t, time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), pay.Timestamp)
	assert.Equal(t, "BTC", pay.Asset)
	assert.True(t, pay.Amount.Equal(bitmatch.Q(-0.00016398)), "amount %s", pay.Amount)
	assert.True(t, pay.Fee.Equal(bitmatch.Q(0.0000121)), "fee %s", pay.Fee)
	assert.Equal(t, bitmatch.Outbound, pay.Kind)
	assert.Equal(t, bitmatch.ChainFeed, pay.Origin)
	assert.Nil(t, pay.Meta)
	require.NoError(t, pay.Validate())

	dust := records[1]
	assert.True(t, dust.Amount.Equal(bitmatch.Q(0.0000033)))
	assert.True(t, dust.Fee.IsZero())
	assert.Equal(t, bitmatch.Inbound, dust.Kind)
	assert.Equal(t, bitmatch.OrdinalRef{InscriptionID: "b3f1c2d4e5b60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90i0"}, dust.Meta)

	sent := records[2]
	assert.True(t, sent.Amount.Equal(bitmatch.Q(-0.00000546)), "an outbound kind makes the amount negative")
	assert.Equal(t, bitmatch.Outbound, sent.Kind)
	assert.Equal(t, bitmatch.RuneRef{Name: "DOG•GO•TO•THE•MOON"}, sent.Meta)
}

func TestMapping_DecodeTopLevelList(t *testing.T) {
	m := Mapping{
		Items:      "$[*]",
		Timestamp:  "$.time",
		TimeLayout: "2006-01-02 15:04:05",
		Asset:      "$.coin",
		Amount:     "$.delta",
		ExternalID: "$.signature",
	}
	input := `[{"time":"2024-03-14 09:30:00","coin":"SOL","delta":-0.5,"signature":"5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"}]`
	records, err := m.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SOL", records[0].Asset)
	assert.True(t, records[0].Amount.Equal(bitmatch.Q(-0.5)))
	assert.Equal(t, 9, records[0].Timestamp.Hour())
}

func TestMapping_Errors(t *testing.T) {
	base := Mapping{Items: "$.txs", Timestamp: "$.t", TimeLayout: UnixMilli, Amount: "$.v", DefaultAsset: "BTC"}

	t.Run("missing expressions", func(t *testing.T) {
		_, err := Mapping{}.Decode(strings.NewReader(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "items")
		assert.Contains(t, err.Error(), "amount")
		assert.Contains(t, err.Error(), "asset")
	})

	t.Run("items is not a list", func(t *testing.T) {
		_, err := base.Decode(strings.NewReader(`{"txs": 3}`))
		assert.Error(t, err)
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := base.Decode(strings.NewReader(`{"txs": [{"t": 1710408600000, "v": "lots"}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item 0")
	})

	t.Run("missing timestamp", func(t *testing.T) {
		_, err := base.Decode(strings.NewReader(`{"txs": [{"v": 1}]}`))
		assert.Error(t, err)
	})

	t.Run("unix milliseconds", func(t *testing.T) {
		records, err := base.Decode(strings.NewReader(`{"txs": [{"t": 1710408600000, "v": 1}]}`))
		require.NoError(t, err)
		assert.Equal(t, int64(1710408600), records[0].Timestamp.Unix())
	})
}

func TestDecodeMapping(t *testing.T) {
	m, err := DecodeMapping(strings.NewReader(`{"items":"$[*]","timestamp":"$.ts","amount":"$.sats","amount_scale":-8,"default_asset":"BTC"}`))
	require.NoError(t, err)
	assert.Equal(t, int32(-8), m.AmountScale)

	_, err = DecodeMapping(strings.NewReader(`{"items":"$[*]","unknown":"x"}`))
	assert.Error(t, err)

	_, err = DecodeMapping(strings.NewReader(`{"items":"$[*]","timestamp":"$.ts","amount":"$.v","default_asset":"BTC","time_layout":"iso"}`))
	assert.Error(t, err)
}
