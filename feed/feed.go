// Package feed maps arbitrary JSON chain exports to bitmatch records.
//
// Explorers and indexers all publish transactions in their own shape. A
// Mapping tells, with jsonpath expressions, where the transaction list is and
// where each record field lives inside one transaction:
//
//	{
//	  "items": "$.txs[*]",
//	  "timestamp": "$.status.block_time",
//	  "time_layout": "unix",
//	  "amount": "$.value",
//	  "amount_scale": -8,
//	  "default_asset": "BTC",
//	  "id": "$.txid"
//	}
//
// Field expressions are evaluated against a single item, "$" being the item
// itself.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/bitmatch"
	"github.com/shopspring/decimal"
)

// Time layouts accepted in addition to Go time layouts.
const (
	Unix      = "unix"   // seconds since epoch
	UnixMilli = "unixms" // milliseconds since epoch
)

// Mapping describes how to read records out of a JSON document.
type Mapping struct {
	Items        string `json:"items"`         // selects the list of transactions
	Timestamp    string `json:"timestamp"`     // required
	TimeLayout   string `json:"time_layout"`   // Unix, UnixMilli or a Go layout, RFC3339 when empty
	Asset        string `json:"asset"`         // optional when DefaultAsset is set
	DefaultAsset string `json:"default_asset"` // asset of items without one
	Amount       string `json:"amount"`        // required, signed unless Kind says otherwise
	AmountScale  int32  `json:"amount_scale"`  // power of ten applied to amount and fee, -8 for satoshis
	Fee          string `json:"fee"`
	ExternalID   string `json:"id"`
	Kind         string `json:"kind"` // an outbound kind makes a positive amount negative
	Inscription  string `json:"inscription"`
	Rune         string `json:"rune"`
}

// DecodeMapping reads a JSON mapping and validates it.
func DecodeMapping(r io.Reader) (Mapping, error) {
	var m Mapping
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("decoding mapping: %w", err)
	}
	_, err := m.compile()
	return m, err
}

// compiled holds the evaluable form of every non-empty expression.
type compiled struct {
	items, timestamp, asset, amount, fee, id, kind, inscription, rune gval.Evaluable
}

func (m Mapping) compile() (*compiled, error) {
	var errs []error
	expr := func(name, path string, required bool) gval.Evaluable {
		if path == "" {
			if required {
				errs = append(errs, fmt.Errorf("%s: missing expression", name))
			}
			return nil
		}
		eval, err := jsonpath.New(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid expression %q: %w", name, path, err))
		}
		return eval
	}
	c := &compiled{
		items:       expr("items", m.Items, true),
		timestamp:   expr("timestamp", m.Timestamp, true),
		asset:       expr("asset", m.Asset, m.DefaultAsset == ""),
		amount:      expr("amount", m.Amount, true),
		fee:         expr("fee", m.Fee, false),
		id:          expr("id", m.ExternalID, false),
		kind:        expr("kind", m.Kind, false),
		inscription: expr("inscription", m.Inscription, false),
		rune:        expr("rune", m.Rune, false),
	}
	switch m.TimeLayout {
	case "", Unix, UnixMilli:
	default:
		if !strings.ContainsAny(m.TimeLayout, "0123456789") {
			errs = append(errs, fmt.Errorf("time_layout: %q is not a time layout", m.TimeLayout))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return c, nil
}

// Decode reads a JSON document and maps every selected item to a chain-feed
// record, in document order. Records are not validated: Reconcile rejects
// the invalid ones.
func (m Mapping) Decode(r io.Reader) ([]bitmatch.Record, error) {
	c, err := m.compile()
	if err != nil {
		return nil, err
	}

	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber() // keep amounts exact
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding chain feed: %w", err)
	}

	ctx := context.Background()
	selected, err := c.items(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("selecting items with %q: %w", m.Items, err)
	}
	items, ok := selected.([]any)
	if !ok {
		return nil, fmt.Errorf("selecting items with %q: got %T, want a list", m.Items, selected)
	}

	records := make([]bitmatch.Record, 0, len(items))
	for i, item := range items {
		rec, err := m.record(ctx, c, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (m Mapping) record(ctx context.Context, c *compiled, item any) (bitmatch.Record, error) {
	rec := bitmatch.Record{Origin: bitmatch.ChainFeed}

	ts, err := lookup(ctx, c.timestamp, item)
	if err != nil {
		return rec, fmt.Errorf("timestamp: %w", err)
	}
	if rec.Timestamp, err = m.parseTime(ts); err != nil {
		return rec, fmt.Errorf("timestamp: %w", err)
	}

	rec.Asset = m.DefaultAsset
	if c.asset != nil {
		v, err := lookup(ctx, c.asset, item)
		if err != nil && m.DefaultAsset == "" {
			return rec, fmt.Errorf("asset: %w", err)
		}
		if s := text(v); s != "" {
			rec.Asset = s
		}
	}

	v, err := lookup(ctx, c.amount, item)
	if err != nil {
		return rec, fmt.Errorf("amount: %w", err)
	}
	amount, err := m.quantity(v)
	if err != nil {
		return rec, fmt.Errorf("amount: %w", err)
	}

	if v, err := lookup(ctx, c.fee, item); err == nil && v != nil {
		if rec.Fee, err = m.quantity(v); err != nil {
			return rec, fmt.Errorf("fee: %w", err)
		}
	}

	if v, err := lookup(ctx, c.id, item); err == nil {
		rec.ExternalID = text(v)
	}

	rec.Kind = bitmatch.Inbound
	if amount.IsNegative() {
		rec.Kind = bitmatch.Outbound
	}
	if v, err := lookup(ctx, c.kind, item); err == nil && v != nil {
		rec.Kind = bitmatch.ParseKind(text(v))
		if rec.Kind == bitmatch.Outbound && amount.IsPositive() {
			amount = amount.Neg()
		}
	}
	rec.Amount = amount

	inscription, _ := lookup(ctx, c.inscription, item)
	runeName, _ := lookup(ctx, c.rune, item)
	switch {
	case text(inscription) != "":
		rec.Meta = bitmatch.OrdinalRef{InscriptionID: text(inscription)}
	case text(runeName) != "":
		rec.Meta = bitmatch.RuneRef{Name: text(runeName)}
	}
	return rec, nil
}

// lookup evaluates eval on item. A nil eval yields nil. A single-element list
// is unwrapped, jsonpath is never clear about whether it returns a list of 1
// answer or the answer.
func lookup(ctx context.Context, eval gval.Evaluable, item any) (any, error) {
	if eval == nil {
		return nil, nil
	}
	v, err := eval(ctx, item)
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		v = list[0]
	}
	return v, nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// quantity converts a JSON number or numeric string, applying AmountScale.
func (m Mapping) quantity(v any) (bitmatch.Quantity, error) {
	var d decimal.Decimal
	var err error
	switch x := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		d = decimal.NewFromFloat(x)
	default:
		return bitmatch.Quantity{}, fmt.Errorf("got %T, want a number", v)
	}
	if err != nil {
		return bitmatch.Quantity{}, err
	}
	return bitmatch.Q(d.Shift(m.AmountScale)), nil
}

func (m Mapping) parseTime(v any) (time.Time, error) {
	switch m.TimeLayout {
	case Unix, UnixMilli:
		n, err := strconv.ParseInt(text(v), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("not an epoch: %w", err)
		}
		if m.TimeLayout == UnixMilli {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("got %T, want a string", v)
	}
	layout := m.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}
	return time.Parse(layout, s)
}
