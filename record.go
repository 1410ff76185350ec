package bitmatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Origin identifies which of the two reconciled sources produced a record.
type Origin string

const (
	LedgerExport Origin = "LEDGER_EXPORT" // exchange or tax tool export
	ChainFeed    Origin = "CHAIN_FEED"    // on-chain transaction feed
)

// IsValid checks if the origin is a known value.
func (o Origin) IsValid() bool { return o == LedgerExport || o == ChainFeed }

// rank orders origins: ledger exports sort before chain records.
func (o Origin) rank() int {
	switch o {
	case LedgerExport:
		return 0
	case ChainFeed:
		return 1
	}
	return 2
}

// ParseOrigin parses an origin, accepting the short forms "export" and "chain".
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEDGER_EXPORT", "EXPORT", "LEDGER", "CEX":
		return LedgerExport, nil
	case "CHAIN_FEED", "CHAIN", "BLOCKCHAIN":
		return ChainFeed, nil
	}
	return "", fmt.Errorf("unknown origin %q", s)
}

// Kind is the record kind as reported by the source. The engine never trusts
// it for direction: the sign of the amount decides.
type Kind string

const (
	Inbound  Kind = "inbound"
	Outbound Kind = "outbound"
	Trade    Kind = "trade"
	Other    Kind = "other"
)

// IsValid checks if the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case Inbound, Outbound, Trade, Other:
		return true
	}
	return false
}

// ParseKind maps the transaction types found in exports to a Kind.
// Unknown labels map to Other.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbound", "deposit", "receive", "received", "income":
		return Inbound
	case "outbound", "withdrawal", "withdraw", "send", "sent":
		return Outbound
	case "trade", "buy", "sell", "swap":
		return Trade
	}
	return Other
}

// AssetMeta tags the non-fungible payload a chain record carries, if any.
// It is a closed set: nil, OrdinalRef or RuneRef.
type AssetMeta interface {
	isAssetMeta()
	// Ref returns the inscription id or the rune name.
	Ref() string
}

// OrdinalRef references an inscription carried by a dust output.
type OrdinalRef struct {
	InscriptionID string
}

// RuneRef references a rune token.
type RuneRef struct {
	Name string
}

func (OrdinalRef) isAssetMeta()     {}
func (RuneRef) isAssetMeta()        {}
func (m OrdinalRef) Ref() string    { return m.InscriptionID }
func (m RuneRef) Ref() string       { return m.Name }
func (m OrdinalRef) String() string { return "ordinal " + m.InscriptionID }
func (m RuneRef) String() string    { return "rune " + m.Name }

// Record is a normalized transaction record, produced by an ingestion
// collaborator and never modified afterwards.
type Record struct {
	Timestamp  time.Time
	Asset      string
	Amount     Quantity // positive is inbound, negative is outbound
	Fee        Quantity
	ExternalID string // correlates the same on-chain action across sources
	Kind       Kind
	Origin     Origin
	Meta       AssetMeta
}

// IsInbound reports whether the record moves value in.
func (r Record) IsInbound() bool { return r.Amount.IsPositive() }

// IsOutbound reports whether the record moves value out.
func (r Record) IsOutbound() bool { return r.Amount.IsNegative() }

// Validate checks the record invariants. The returned error, if any, is an
// *InvalidRecordError with Position set to -1; callers that know where the
// record came from overwrite it.
func (r Record) Validate() error {
	fail := func(field, reason string) error {
		return &InvalidRecordError{Origin: r.Origin, Position: -1, Field: field, Reason: reason, Record: r}
	}
	switch {
	case r.Timestamp.IsZero():
		return fail("timestamp", "missing")
	case strings.TrimSpace(r.Asset) == "":
		return fail("asset", "missing")
	case r.Amount.IsZero():
		return fail("amount", "must be non-zero")
	case r.Fee.IsNegative():
		return fail("fee", "must be non-negative")
	case !r.Kind.IsValid():
		return fail("kind", fmt.Sprintf("unknown kind %q", r.Kind))
	case !r.Origin.IsValid():
		return fail("origin", fmt.Sprintf("unknown origin %q", r.Origin))
	}
	if r.Meta != nil && r.Meta.Ref() == "" {
		return fail("meta", "empty asset reference")
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Record.
func (r Record) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("timestamp", r.Timestamp.UTC().Format(time.RFC3339Nano))
	w.Append("asset", r.Asset)
	w.Append("amount", r.Amount)
	w.OptionalQuantity("fee", r.Fee)
	w.Optional("id", r.ExternalID)
	w.Append("kind", r.Kind)
	w.Append("origin", r.Origin)
	switch m := r.Meta.(type) {
	case OrdinalRef:
		w.Append("inscription", m.InscriptionID)
	case RuneRef:
		w.Append("rune", m.Name)
	}
	return w.MarshalJSON()
}

// recordCmd is the on-disk shape of a Record.
type recordCmd struct {
	Timestamp   time.Time `json:"timestamp"`
	Asset       string    `json:"asset"`
	Amount      Quantity  `json:"amount"`
	Fee         Quantity  `json:"fee"`
	ExternalID  string    `json:"id"`
	Kind        string    `json:"kind"`
	Origin      string    `json:"origin"`
	Inscription string    `json:"inscription"`
	Rune        string    `json:"rune"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Record.
// Kind labels are normalized with ParseKind, an absent kind follows the sign
// of the amount. An absent origin is left empty so that the reader can
// default it.
func (r *Record) UnmarshalJSON(data []byte) error {
	var temp recordCmd
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	rec := Record{
		Timestamp:  temp.Timestamp,
		Asset:      temp.Asset,
		Amount:     temp.Amount,
		Fee:        temp.Fee,
		ExternalID: temp.ExternalID,
		Kind:       ParseKind(temp.Kind),
	}
	if temp.Kind == "" {
		switch {
		case temp.Amount.IsPositive():
			rec.Kind = Inbound
		case temp.Amount.IsNegative():
			rec.Kind = Outbound
		}
	}
	if temp.Origin != "" {
		o, err := ParseOrigin(temp.Origin)
		if err != nil {
			return err
		}
		rec.Origin = o
	}
	switch {
	case temp.Inscription != "" && temp.Rune != "":
		return fmt.Errorf("record %q carries both an inscription and a rune", temp.ExternalID)
	case temp.Inscription != "":
		rec.Meta = OrdinalRef{InscriptionID: temp.Inscription}
	case temp.Rune != "":
		rec.Meta = RuneRef{Name: temp.Rune}
	}
	*r = rec
	return nil
}
