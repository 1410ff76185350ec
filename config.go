package bitmatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Config holds the thresholds of a reconciliation run.
//
// The grouping window and the matching window are distinct parameters: the
// first clusters records of one real-world action, the second tolerates
// reporting delays between the two sources.
type Config struct {
	MatchWindow time.Duration // Tier-2 time window around an export record.
	GroupWindow time.Duration // window around a bucket for attaching chain records.
	BucketSize  time.Duration // truncation granularity of export timestamps.

	AmountDeviationPct    Quantity // Tier-2 tolerance, in percent of the export amount.
	DustThreshold         Quantity // |amount| <= DustThreshold is dust.
	SelfTransferTolerance Quantity // max gap between sent and received for a transfer.
	FeeOnlyCeiling        Quantity // an unpaired outbound below this is a fee.
	FeeAnomalyRatio       Quantity // fee above this share of |amount| is an anomaly.

	TaxYear          int  // when non-zero, records outside this year are anomalies.
	RequireSameAsset bool // Tier-2 only pairs records of the same asset, off by default.
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		MatchWindow:           30 * time.Minute,
		GroupWindow:           2 * time.Minute,
		BucketSize:            time.Minute,
		AmountDeviationPct:    Q(0.1),
		DustThreshold:         Q(0.00001),
		SelfTransferTolerance: Q(0.0001),
		FeeOnlyCeiling:        Q(0.0005),
		FeeAnomalyRatio:       Q(0.1),
		RequireSameAsset:      false,
	}
}

// Validate returns an error wrapping ErrInvalidConfig listing every problem.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.MatchWindow >= 0, "match window must be non-negative, got %v", c.MatchWindow)
	check(c.GroupWindow >= 0, "group window must be non-negative, got %v", c.GroupWindow)
	check(c.BucketSize > 0, "bucket size must be positive, got %v", c.BucketSize)
	check(!c.AmountDeviationPct.IsNegative(), "amount deviation must be non-negative, got %s", c.AmountDeviationPct)
	check(!c.DustThreshold.IsNegative(), "dust threshold must be non-negative, got %s", c.DustThreshold)
	check(!c.SelfTransferTolerance.IsNegative(), "self transfer tolerance must be non-negative, got %s", c.SelfTransferTolerance)
	check(!c.FeeOnlyCeiling.IsNegative(), "fee-only ceiling must be non-negative, got %s", c.FeeOnlyCeiling)
	check(!c.FeeAnomalyRatio.IsNegative(), "fee anomaly ratio must be non-negative, got %s", c.FeeAnomalyRatio)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// configFile is the JSON form of a Config. Absent keys keep their default.
type configFile struct {
	MatchWindowMinutes    *float64  `json:"match_window_minutes"`
	GroupWindowMinutes    *float64  `json:"group_window_minutes"`
	BucketMinutes         *float64  `json:"bucket_minutes"`
	AmountDeviationPct    *Quantity `json:"amount_deviation_pct"`
	DustThreshold         *Quantity `json:"dust_threshold"`
	SelfTransferTolerance *Quantity `json:"self_transfer_tolerance"`
	FeeOnlyCeiling        *Quantity `json:"fee_only_ceiling"`
	FeeAnomalyRatio       *Quantity `json:"fee_anomaly_ratio"`
	TaxYear               *int      `json:"tax_year"`
	RequireSameAsset      *bool     `json:"require_same_asset"`
}

func minutes(m float64) time.Duration { return time.Duration(m * float64(time.Minute)) }

// DecodeConfig reads a JSON configuration and overlays it on base.
func DecodeConfig(r io.Reader, base Config) (Config, error) {
	var f configFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return base, fmt.Errorf("decoding config: %w", err)
	}
	c := base
	if f.MatchWindowMinutes != nil {
		c.MatchWindow = minutes(*f.MatchWindowMinutes)
	}
	if f.GroupWindowMinutes != nil {
		c.GroupWindow = minutes(*f.GroupWindowMinutes)
	}
	if f.BucketMinutes != nil {
		c.BucketSize = minutes(*f.BucketMinutes)
	}
	if f.AmountDeviationPct != nil {
		c.AmountDeviationPct = *f.AmountDeviationPct
	}
	if f.DustThreshold != nil {
		c.DustThreshold = *f.DustThreshold
	}
	if f.SelfTransferTolerance != nil {
		c.SelfTransferTolerance = *f.SelfTransferTolerance
	}
	if f.FeeOnlyCeiling != nil {
		c.FeeOnlyCeiling = *f.FeeOnlyCeiling
	}
	if f.FeeAnomalyRatio != nil {
		c.FeeAnomalyRatio = *f.FeeAnomalyRatio
	}
	if f.TaxYear != nil {
		c.TaxYear = *f.TaxYear
	}
	if f.RequireSameAsset != nil {
		c.RequireSameAsset = *f.RequireSameAsset
	}
	return c, c.Validate()
}
