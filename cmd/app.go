// Package cmd implements the CLI application to reconcile crypto ledgers.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/etnz/bitmatch"
	"github.com/etnz/bitmatch/feed"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reconcileCmd{}, "reconciliation")
	c.Register(&classifyCmd{}, "reconciliation")

	c.Register(&formatCmd{}, "records")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to a JSON configuration file. Environment variables and .env apply first.")
var envFile = flag.String("env", ".env", "Path to the dotenv file to load, if it exists")

// LoadConfig returns the configuration of the run: defaults, then the
// environment (including the dotenv file), then the JSON configuration file.
func LoadConfig() (bitmatch.Config, error) {
	cfg, err := configFromEnv(*envFile, bitmatch.DefaultConfig())
	if err != nil {
		return cfg, err
	}
	if *configFile == "" {
		return cfg, nil
	}
	f, err := os.Open(*configFile)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return bitmatch.DecodeConfig(f, cfg)
}

// DecodeRecordsFile reads records of the given origin from a JSONL file, or
// from a JSON chain export when mapping is not empty.
func DecodeRecordsFile(path string, origin bitmatch.Origin, mapping string) ([]bitmatch.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s records: %w", origin, err)
	}
	defer f.Close()

	if mapping == "" {
		records, err := bitmatch.DecodeRecords(f, origin)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", path, err)
		}
		return records, nil
	}

	m, err := decodeMapping(mapping)
	if err != nil {
		return nil, err
	}
	records, err := m.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}
	return records, nil
}

func decodeMapping(path string) (feed.Mapping, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return feed.Mapping{}, fmt.Errorf("mapping file %q does not exist", path)
	}
	if err != nil {
		return feed.Mapping{}, err
	}
	defer f.Close()
	m, err := feed.DecodeMapping(f)
	if err != nil {
		return m, fmt.Errorf("mapping %q: %w", path, err)
	}
	log.Printf("chain feed mapped with %q", path)
	return m, nil
}
