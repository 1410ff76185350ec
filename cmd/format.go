package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/bitmatch"
	"github.com/google/subcommands"
)

type formatCmd struct {
	file   string
	origin string
}

func (*formatCmd) Name() string     { return "format" }
func (*formatCmd) Synopsis() string { return "formats a record file into a canonical form" }
func (*formatCmd) Usage() string {
	return `bm format -f <file> [-origin export|chain]

  Rewrites a JSONL record file in canonical order and field layout. Records
  without an origin get the one given by -origin. Without -origin, every
  record must state its own.
`
}

func (p *formatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.file, "f", "", "Path to the record file (JSONL format)")
	f.StringVar(&p.origin, "origin", "", "Origin of records that do not state one (export, chain)")
}

func (p *formatCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f is required")
		return subcommands.ExitUsageError
	}
	var origin bitmatch.Origin
	if p.origin != "" {
		o, err := bitmatch.ParseOrigin(p.origin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		origin = o
	}

	// 1. Read the records
	records, err := DecodeRecordsFile(p.file, origin, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding records: %v\n", err)
		return subcommands.ExitFailure
	}
	for i, rec := range records {
		if rec.Origin == "" {
			fmt.Fprintf(os.Stderr, "Error: record #%d of '%s' has no origin, use -origin\n", i, p.file)
			return subcommands.ExitUsageError
		}
	}

	// 2. Write them back to the same file
	var buf bytes.Buffer
	if err := bitmatch.EncodeRecords(&buf, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding records: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(p.file, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing records: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Record file '%s' has been formatted.\n", p.file)
	return subcommands.ExitSuccess
}
