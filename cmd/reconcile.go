package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/etnz/bitmatch"
	"github.com/etnz/bitmatch/renderer"
	"github.com/google/subcommands"
)

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	exportFile string
	chainFile  string
	mapping    string
	json       bool
	strict     bool

	out io.Writer // os.Stdout when nil
}

func (*reconcileCmd) Name() string { return "reconcile" }

func (*reconcileCmd) Synopsis() string {
	return "reconcile a ledger export against a chain feed and suggest corrections"
}
func (*reconcileCmd) Usage() string {
	return `bm reconcile -export <file> -chain <file> [-mapping <file>] [-json] [-strict]

  Matches the ledger export records against the chain feed records, then
  classifies every group of records into correction scenarios.

  Records are read from JSONL files. With -mapping, the chain feed is a JSON
  document read through a jsonpath mapping instead (see 'bm topic formats').
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.exportFile, "export", "", "Ledger export records (JSONL)")
	f.StringVar(&c.chainFile, "chain", "", "Chain feed records (JSONL, or JSON with -mapping)")
	f.StringVar(&c.mapping, "mapping", "", "jsonpath mapping of the chain feed (JSON)")
	f.BoolVar(&c.json, "json", false, "Print the report as JSON instead of markdown")
	f.BoolVar(&c.strict, "strict", false, "Fail when any record is rejected")
}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.exportFile == "" || c.chainFile == "" {
		fmt.Fprintln(os.Stderr, "Error: both -export and -chain are required")
		return subcommands.ExitUsageError
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	exports, err := DecodeRecordsFile(c.exportFile, bitmatch.LedgerExport, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	chain, err := DecodeRecordsFile(c.chainFile, bitmatch.ChainFeed, c.mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	report, err := bitmatch.Reconcile(exports, chain, cfg)
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if errors.Is(err, bitmatch.ErrInvalidRecord) {
		log.Printf("warning, %d record(s) rejected and left out of the report", len(report.Rejected))
	}

	if err := c.render(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.strict && len(report.Rejected) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *reconcileCmd) render(report *bitmatch.Report) error {
	if c.json {
		return bitmatch.EncodeReport(c.writer(), report)
	}
	md := renderer.ReportMarkdown(report)
	if c.out != nil {
		_, err := io.WriteString(c.out, md)
		return err
	}
	printMarkdown(md)
	return nil
}

func (c *reconcileCmd) writer() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}
