package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/etnz/bitmatch"
	"github.com/joho/godotenv"
)

// Environment variables overriding the default configuration.
const (
	envMatchWindow        = "BITMATCH_MATCH_WINDOW"         // duration, e.g. 30m
	envGroupWindow        = "BITMATCH_GROUP_WINDOW"         // duration, e.g. 2m
	envDustThreshold      = "BITMATCH_DUST_THRESHOLD"       // decimal, in asset units
	envAmountDeviationPct = "BITMATCH_AMOUNT_DEVIATION_PCT" // decimal percentage
	envTaxYear            = "BITMATCH_TAX_YEAR"             // e.g. 2024
)

// configFromEnv loads the dotenv file, when it exists, then overlays the
// environment on base. Variables already set in the environment win over the
// dotenv file.
func configFromEnv(dotenv string, base bitmatch.Config) (bitmatch.Config, error) {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return base, fmt.Errorf("loading %q: %w", dotenv, err)
	}

	cfg := base
	var errs []error
	if v, ok := os.LookupEnv(envMatchWindow); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError(envMatchWindow, v, err))
		if err == nil {
			cfg.MatchWindow = d
		}
	}
	if v, ok := os.LookupEnv(envGroupWindow); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError(envGroupWindow, v, err))
		if err == nil {
			cfg.GroupWindow = d
		}
	}
	if v, ok := os.LookupEnv(envDustThreshold); ok {
		q, err := bitmatch.ParseQuantity(v)
		errs = append(errs, envError(envDustThreshold, v, err))
		if err == nil {
			cfg.DustThreshold = q
		}
	}
	if v, ok := os.LookupEnv(envAmountDeviationPct); ok {
		q, err := bitmatch.ParseQuantity(v)
		errs = append(errs, envError(envAmountDeviationPct, v, err))
		if err == nil {
			cfg.AmountDeviationPct = q
		}
	}
	if v, ok := os.LookupEnv(envTaxYear); ok {
		y, err := strconv.Atoi(v)
		errs = append(errs, envError(envTaxYear, v, err))
		if err == nil {
			cfg.TaxYear = y
		}
	}
	if err := errors.Join(errs...); err != nil {
		return base, err
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func envError(key, value string, err error) error {
	if err == nil {
		return nil
	}
	log.Printf("invalid value for %s (%q): %v", key, value, err)
	return fmt.Errorf("%s: %w", key, err)
}
