package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	tracker "github.com/wilson614/investment-tracker"
)

type exportCmd struct {
	portfolio string
	ledger    string
	output    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a transaction log as JSONL" }
func (*exportCmd) Usage() string {
	return `export [-portfolio <id> | -ledger <id>] [-o <file>]

  Writes a portfolio's trades or a ledger's cash entries as JSONL, one
  transaction per line, in date order. Defaults to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio id whose trades to export")
	f.StringVar(&c.ledger, "ledger", "", "Ledger id whose entries to export")
	f.StringVar(&c.output, "o", "", "Output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.portfolio == "") == (c.ledger == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -portfolio or -ledger is required.")
		return subcommands.ExitUsageError
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var out io.Writer = os.Stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		out = file
	}

	if c.portfolio != "" {
		txs, err := s.ListStockTransactions(ctx, *userID, c.portfolio)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		err = tracker.EncodeStockTransactions(out, txs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	txs, err := s.ListCurrencyTransactions(ctx, *userID, c.ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := tracker.EncodeCurrencyTransactions(out, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
