package bitmatch

import "fmt"

// AnomalyType names a data quality problem found in a single source.
type AnomalyType string

const (
	FeeAnomaly      AnomalyType = "FEE_ANOMALY"
	DuplicateRecord AnomalyType = "DUPLICATE_RECORD"
	OutOfTaxYear    AnomalyType = "OUT_OF_TAX_YEAR"
)

// Anomaly is a suspicious record, reported alongside reconciliation results.
type Anomaly struct {
	Type     AnomalyType
	Severity Severity
	Message  string
	Record   Record
}

type duplicateKey struct {
	origin Origin
	id     string
	when   int64
	asset  string
	amount string
}

// DetectAnomalies checks records for excessive fees, exact duplicates within
// one origin and, when cfg.TaxYear is set, records outside the tax year.
// Anomalies are returned in record order.
func DetectAnomalies(records []Record, cfg Config) []Anomaly {
	var anomalies []Anomaly
	seen := make(map[duplicateKey]bool)
	reported := make(map[duplicateKey]bool)

	for _, r := range records {
		if r.Fee.IsPositive() && !r.Amount.IsZero() && r.Fee.GreaterThan(r.Amount.Abs().Mul(cfg.FeeAnomalyRatio)) {
			anomalies = append(anomalies, Anomaly{
				Type:     FeeAnomaly,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("fee %s exceeds %s%% of the amount %s", r.Fee, cfg.FeeAnomalyRatio.Mul(hundred), r.Amount.Abs()),
				Record:   r,
			})
		}

		if r.ExternalID != "" {
			k := duplicateKey{r.Origin, r.ExternalID, r.Timestamp.UnixNano(), r.Asset, r.Amount.String()}
			if seen[k] && !reported[k] {
				reported[k] = true
				anomalies = append(anomalies, Anomaly{
					Type:     DuplicateRecord,
					Severity: SeverityCritical,
					Message:  fmt.Sprintf("%s reports %q more than once", r.Origin, r.ExternalID),
					Record:   r,
				})
			}
			seen[k] = true
		}

		if cfg.TaxYear != 0 && r.Timestamp.UTC().Year() != cfg.TaxYear {
			anomalies = append(anomalies, Anomaly{
				Type:     OutOfTaxYear,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("record dated %d is outside tax year %d", r.Timestamp.UTC().Year(), cfg.TaxYear),
				Record:   r,
			})
		}
	}
	return anomalies
}
