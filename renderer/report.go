package renderer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/etnz/bitmatch"
	"github.com/etnz/bitmatch/explorer"
)

// ReportMarkdown renders a reconciliation report. Empty sections are left out.
func ReportMarkdown(r *bitmatch.Report) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Reconciliation Report\n\n")
	renderSummary(&b, r.Summary)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Corrections\n\n")
		return renderSuggestions(w, r.Suggestions, 3)
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Matched\n\n")
		fmt.Fprintln(w, "| Type | Confidence | Date | Export | Chain | Delay |")
		fmt.Fprintln(w, "|:---|---:|:---|---:|---:|---:|")
		for _, m := range r.Matched {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
				m.Type,
				percent(m.Confidence),
				date(m.Export.Timestamp),
				amount(m.Export),
				amount(m.Chain),
				m.TimeDelta.Round(time.Second),
			)
		}
		fmt.Fprintln(w)
		return len(r.Matched) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Conflicts\n\n")
		fmt.Fprint(w, "Export records nothing on chain confirms.\n\n")
		fmt.Fprintln(w, "| Issue | Date | Amount | Reference |")
		fmt.Fprintln(w, "|:---|:---|---:|:---|")
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", c.Issue, date(c.Export.Timestamp), amount(c.Export), reference(c.Export))
		}
		fmt.Fprintln(w)
		return len(r.Conflicts) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Source Exclusive\n\n")
		fmt.Fprint(w, "Chain activity missing from the export.\n\n")
		fmt.Fprintln(w, "| Date | Amount | Asset | Reference |")
		fmt.Fprintln(w, "|:---|---:|:---|:---|")
		for _, e := range r.Exclusive {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", date(e.Record.Timestamp), amount(e.Record), meta(e.Record.Meta), reference(e.Record))
		}
		fmt.Fprintln(w)
		return len(r.Exclusive) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Anomalies\n\n")
		fmt.Fprintln(w, "| Severity | Type | Message | Reference |")
		fmt.Fprintln(w, "|:---|:---|:---|:---|")
		for _, a := range r.Anomalies {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", a.Severity, a.Type, a.Message, reference(a.Record))
		}
		fmt.Fprintln(w)
		return len(r.Anomalies) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Rejected Records\n\n")
		for _, e := range r.Rejected {
			fmt.Fprintf(w, "- %s\n", e)
		}
		fmt.Fprintln(w)
		return len(r.Rejected) > 0
	})

	return b.String()
}

// SuggestionsMarkdown renders correction suggestions alone.
func SuggestionsMarkdown(suggestions []bitmatch.CorrectionSuggestion) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Corrections\n\n")
	if !renderSuggestions(&b, suggestions, 2) {
		fmt.Fprint(&b, "No correction needed.\n")
	}
	return b.String()
}

func renderSummary(w io.Writer, s bitmatch.Summary) {
	fmt.Fprintf(w, "%d correction(s) suggested, %d record(s) matched, %d conflict(s), %d source exclusive, %d anomaly(ies), %d rejected.\n\n",
		s.Suggestions, s.Matched, s.Conflicts, s.Exclusive, s.Anomalies, s.Rejected)

	fmt.Fprintln(w, "| Severity | Count |")
	fmt.Fprintln(w, "|:---|---:|")
	for _, sev := range bitmatch.Severities {
		fmt.Fprintf(w, "| %s | %d |\n", sev, s.BySeverity[sev])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Pattern | Count |")
	fmt.Fprintln(w, "|:---|---:|")
	for _, p := range bitmatch.Patterns {
		fmt.Fprintf(w, "| %s | %d |\n", p, s.ByPattern[p])
	}
	fmt.Fprintln(w)
}

// renderSuggestions writes one section per suggestion at the given heading
// level and reports whether anything was written.
func renderSuggestions(w io.Writer, suggestions []bitmatch.CorrectionSuggestion, level int) bool {
	h := strings.Repeat("#", level)
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s %s (%s)\n\n", h, s.Pattern, percent(s.Confidence))
		fmt.Fprintf(w, "Severity: %s, tax impact: %s, group `%s`.\n\n", s.Severity, s.TaxImpact, s.GroupKey)
		for _, a := range s.Actions {
			fmt.Fprintf(w, "- %s\n", action(a))
		}
		fmt.Fprintln(w)
	}
	return len(suggestions) > 0
}

func action(a bitmatch.Action) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", a.Type)
	for _, t := range a.Targets {
		fmt.Fprintf(&b, " %s (%s)", amount(t), reference(t))
	}
	fmt.Fprintf(&b, ": %s.", a.Rationale)
	if d := a.Derived; d != nil {
		sent := bitmatch.A(d.SentQuantity, d.SentAsset).String()
		if d.SentQuantity.IsZero() {
			sent = d.SentAsset
		}
		received := bitmatch.A(d.ReceivedQuantity, d.ReceivedAsset).String()
		fmt.Fprintf(&b, " Trade %s for %s", sent, received)
		if d.Meta != nil {
			fmt.Fprintf(&b, ", %s", meta(d.Meta))
		}
		b.WriteString(".")
	}
	if a.Warning != "" {
		fmt.Fprintf(&b, " _%s._", a.Warning)
	}
	return b.String()
}

func percent(f float64) string { return fmt.Sprintf("%.0f%%", f*100) }

func date(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") }

func amount(r bitmatch.Record) string { return bitmatch.A(r.Amount, r.Asset).SignedString() }

// reference returns the external id, linked to its explorer page when there
// is one.
func reference(r bitmatch.Record) string {
	if r.ExternalID == "" {
		return ""
	}
	short := r.ExternalID
	if len(short) > 16 {
		short = short[:8] + "…" + short[len(short)-6:]
	}
	if link := explorer.TxLink(r); link != "" {
		return fmt.Sprintf("[%s](%s)", short, link)
	}
	return "`" + short + "`"
}

func meta(m bitmatch.AssetMeta) string {
	if m == nil {
		return ""
	}
	label := fmt.Sprint(m)
	if link := explorer.AssetLink(m); link != "" {
		return fmt.Sprintf("[%s](%s)", label, link)
	}
	return label
}
