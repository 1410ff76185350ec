package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/bitmatch"
	"github.com/etnz/bitmatch/renderer"
	"github.com/google/subcommands"
)

// classifyCmd suggests corrections for a single source, without matching.
type classifyCmd struct {
	chainFile  string
	exportFile string
	mapping    string
	json       bool

	out io.Writer // os.Stdout when nil
}

func (*classifyCmd) Name() string     { return "classify" }
func (*classifyCmd) Synopsis() string { return "suggest corrections without reconciling" }
func (*classifyCmd) Usage() string {
	return `bm classify -chain <file> [-export <file>] [-mapping <file>] [-json]

  Groups the records and prints the correction suggested for every group.
  Either source may be given alone.
`
}

func (c *classifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.chainFile, "chain", "", "Chain feed records (JSONL, or JSON with -mapping)")
	f.StringVar(&c.exportFile, "export", "", "Ledger export records (JSONL)")
	f.StringVar(&c.mapping, "mapping", "", "jsonpath mapping of the chain feed (JSON)")
	f.BoolVar(&c.json, "json", false, "Print the suggestions as JSON instead of markdown")
}

func (c *classifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.exportFile == "" && c.chainFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -chain or -export is required")
		return subcommands.ExitUsageError
	}
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var records []bitmatch.Record
	if c.exportFile != "" {
		exports, err := DecodeRecordsFile(c.exportFile, bitmatch.LedgerExport, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		records = append(records, exports...)
	}
	if c.chainFile != "" {
		chain, err := DecodeRecordsFile(c.chainFile, bitmatch.ChainFeed, c.mapping)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		records = append(records, chain...)
	}

	valid := records[:0]
	for i, r := range records {
		if err := r.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping record %d: %v\n", i, err)
			continue
		}
		valid = append(valid, r)
	}

	suggestions := bitmatch.ClassifyAll(bitmatch.GroupRecords(valid, cfg), cfg)

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if suggestions == nil {
			suggestions = []bitmatch.CorrectionSuggestion{}
		}
		if err := enc.Encode(suggestions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	md := renderer.SuggestionsMarkdown(suggestions)
	if c.out != nil {
		io.WriteString(c.out, md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
