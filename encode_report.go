package bitmatch

import "encoding/json"

// MarshalJSON implements the json.Marshaler interface for Matched.
func (m Matched) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", m.Type)
	w.Append("confidence", m.Confidence)
	w.OptionalQuantity("deviation", m.Deviation)
	w.Optional("timeDelta", m.TimeDelta.String())
	w.Append("export", m.Export)
	w.Append("chain", m.Chain)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Conflict. The
// export record fields are inlined after the issue.
func (c Conflict) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("issue", c.Issue)
	w.EmbedFrom(c.Export)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Exclusive.
func (e Exclusive) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record)
}

// MarshalJSON implements the json.Marshaler interface for Derived.
func (d Derived) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("sentAsset", d.SentAsset)
	w.Append("sentQuantity", d.SentQuantity)
	w.Append("receivedAsset", d.ReceivedAsset)
	w.Append("receivedQuantity", d.ReceivedQuantity)
	w.Optional("unidentified", d.Unidentified)
	switch m := d.Meta.(type) {
	case OrdinalRef:
		w.Append("inscription", m.InscriptionID)
	case RuneRef:
		w.Append("rune", m.Name)
	}
	w.Optional("reference", d.Reference)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Action.
func (a Action) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", a.Type)
	w.Append("rationale", a.Rationale)
	w.Optional("warning", a.Warning)
	w.Append("targets", nonNil(a.Targets))
	if a.Derived != nil {
		w.Append("derived", a.Derived)
	}
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for CorrectionSuggestion.
func (s CorrectionSuggestion) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("pattern", s.Pattern)
	w.Append("confidence", s.Confidence)
	w.Append("severity", s.Severity)
	w.Append("taxImpact", s.TaxImpact)
	w.Append("group", s.GroupKey)
	w.Append("affected", nonNil(s.Affected))
	w.Append("actions", nonNil(s.Actions))
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Anomaly.
func (a Anomaly) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", a.Type)
	w.Append("severity", a.Severity)
	w.Append("message", a.Message)
	w.Append("record", a.Record)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Summary.
func (s Summary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("suggestions", s.Suggestions)
	w.Append("bySeverity", s.BySeverity)
	w.Append("byPattern", s.ByPattern)
	w.Append("matched", s.Matched)
	w.Append("conflicts", s.Conflicts)
	w.Append("sourceExclusive", s.Exclusive)
	w.Append("anomalies", s.Anomalies)
	w.Append("rejected", s.Rejected)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Report. Empty
// sections are written as empty arrays, never null.
func (r Report) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("matched", nonNil(r.Matched))
	w.Append("conflicts", nonNil(r.Conflicts))
	w.Append("sourceExclusive", nonNil(r.Exclusive))
	w.Append("suggestions", nonNil(r.Suggestions))
	w.Append("anomalies", nonNil(r.Anomalies))
	w.Append("rejected", nonNil(r.Rejected))
	w.Append("summary", r.Summary)
	return w.MarshalJSON()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
