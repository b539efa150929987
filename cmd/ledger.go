package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	tracker "github.com/wilson614/investment-tracker"
)

// cashFlags is the flag set shared by deposit and withdraw.
type cashFlags struct {
	ledger string
	date   string
	amount string
	rate   string
	kind   string
	notes  string
}

func (c *cashFlags) register(f *flag.FlagSet, defaultKind tracker.CurrencyTransactionKind) {
	f.StringVar(&c.ledger, "ledger", "", "Ledger id (required)")
	f.StringVar(&c.date, "d", "", "Entry date (defaults to today)")
	f.StringVar(&c.amount, "amount", "", "Amount in the ledger currency, positive (required)")
	f.StringVar(&c.rate, "rate", "", "Exchange rate to the home currency")
	f.StringVar(&c.kind, "kind", string(defaultKind), "Entry kind")
	f.StringVar(&c.notes, "notes", "", "Free-form note")
}

func createCashEntry(ctx context.Context, c *cashFlags) subcommands.ExitStatus {
	if c.ledger == "" || c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -ledger and -amount flags are required.")
		return subcommands.ExitUsageError
	}
	kind, err := tracker.ParseCurrencyTransactionKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -amount %q\n", c.amount)
		return subcommands.ExitUsageError
	}
	date := tracker.Today()
	if c.date != "" {
		if date, err = tracker.ParseDate(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	ledger, err := s.Ledger(ctx, *userID, c.ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	entry := tracker.CurrencyTransaction{
		LedgerID:      ledger.ID,
		Date:          date,
		Kind:          kind,
		ForeignAmount: tracker.M(amount, ledger.Currency),
		Notes:         c.notes,
	}
	if c.rate != "" {
		if entry.ExchangeRate, err = decimal.NewFromString(c.rate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -rate %q\n", c.rate)
			return subcommands.ExitUsageError
		}
		entry.HomeAmount = tracker.M(amount.Mul(entry.ExchangeRate), ledger.HomeCurrency)
	}

	entry, err = s.CreateCurrencyTransaction(ctx, *userID, entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if tracker.IsValidation(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	fmt.Printf("✅ %s %s on %s (%s)\n", entry.Kind, entry.ForeignAmount, entry.Date, entry.ID)
	return subcommands.ExitSuccess
}

type depositCmd struct{ cashFlags }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record cash flowing into a ledger" }
func (*depositCmd) Usage() string {
	return `deposit -ledger <id> -amount <n> [-d <date>] [-rate <fx>] [-kind <kind>] [-notes <text>]

  Appends a crediting entry to the cash ledger. The amount is stored positive;
  the kind decides the sign at replay time. -kind can pick any crediting kind
  (deposit, initial-balance, interest, exchange-buy, other-income).
`
}
func (c *depositCmd) SetFlags(f *flag.FlagSet) { c.register(f, tracker.KindDeposit) }
func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return createCashEntry(ctx, &c.cashFlags)
}

type withdrawCmd struct{ cashFlags }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record cash flowing out of a ledger" }
func (*withdrawCmd) Usage() string {
	return `withdraw -ledger <id> -amount <n> [-d <date>] [-rate <fx>] [-kind <kind>] [-notes <text>]

  Appends a debiting entry to the cash ledger. -kind can pick any debiting
  kind (withdraw, spend, exchange-sell, other-expense).
`
}
func (c *withdrawCmd) SetFlags(f *flag.FlagSet) { c.register(f, tracker.KindWithdraw) }
func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return createCashEntry(ctx, &c.cashFlags)
}

type ledgerCmd struct {
	ledger string
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "list a ledger's entries with running balances" }
func (*ledgerCmd) Usage() string {
	return `ledger -ledger <id>

  Replays the ledger's transaction log in date order and prints each entry
  with the balance after it was applied.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Ledger id (required)")
}

func (c *ledgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ledger == "" {
		fmt.Fprintln(os.Stderr, "Error: -ledger flag is required.")
		return subcommands.ExitUsageError
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	ledger, err := s.Ledger(ctx, *userID, c.ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	txs, err := s.ListCurrencyTransactions(ctx, *userID, ledger.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	entries, balance, err := tracker.ReplayBalance(ledger.Currency, txs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying balance: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tBALANCE\tNOTES")
	for _, e := range entries {
		amount, _ := e.Transaction.SignedAmount()
		notes := e.Transaction.Notes
		if e.Transaction.Locked() {
			notes += " [trade]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Transaction.Date, e.Transaction.Kind, amount, e.Balance, notes)
	}
	w.Flush()
	fmt.Printf("\nBalance: %s\n", balance)
	return subcommands.ExitSuccess
}
