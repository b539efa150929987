package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	tracker "github.com/wilson614/investment-tracker"
)

// tradeFlags is the flag set shared by buy and sell.
type tradeFlags struct {
	portfolio  string
	date       string
	ticker     string
	shares     string
	price      string
	fees       string
	currency   string
	rate       string
	market     string
	margin     bool
	skipLedger bool
}

func (c *tradeFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio id (required)")
	f.StringVar(&c.date, "d", "", "Trade date (defaults to today)")
	f.StringVar(&c.ticker, "ticker", "", "Security ticker symbol (required)")
	f.StringVar(&c.shares, "shares", "", "Number of shares, fractional allowed (required)")
	f.StringVar(&c.price, "price", "", "Price per share in the trade currency (required)")
	f.StringVar(&c.fees, "fees", "0", "Trading fees in the trade currency")
	f.StringVar(&c.currency, "currency", "", "Trade currency, must match the ledger (required)")
	f.StringVar(&c.rate, "rate", "", "Exchange rate to the home currency")
	f.StringVar(&c.market, "market", "", "Market hint (US, TW, UK, JP)")
	f.BoolVar(&c.margin, "margin", false, "Explicitly allow the resulting cash balance to go negative")
	f.BoolVar(&c.skipLedger, "skip-ledger", false, "Record the trade without touching the cash ledger")
}

func (c *tradeFlags) request(kind tracker.StockTransactionKind) (tracker.TradeRequest, error) {
	req := tracker.TradeRequest{
		PortfolioID: c.portfolio,
		Ticker:      c.ticker,
		Kind:        kind,
		Currency:    c.currency,
		Market:      tracker.Market(c.market),
		SkipLedger:  c.skipLedger,
	}
	if c.margin {
		req.BalanceAction = tracker.BalanceMargin
	}
	var err error
	if c.date != "" {
		if req.Date, err = tracker.ParseDate(c.date); err != nil {
			return req, err
		}
	}
	shares, err := decimal.NewFromString(c.shares)
	if err != nil {
		return req, fmt.Errorf("invalid -shares %q", c.shares)
	}
	req.Shares = tracker.Q(shares)
	if req.PricePerShare, err = decimal.NewFromString(c.price); err != nil {
		return req, fmt.Errorf("invalid -price %q", c.price)
	}
	if req.Fees, err = decimal.NewFromString(c.fees); err != nil {
		return req, fmt.Errorf("invalid -fees %q", c.fees)
	}
	if c.rate != "" {
		if req.ExchangeRate, err = decimal.NewFromString(c.rate); err != nil {
			return req, fmt.Errorf("invalid -rate %q", c.rate)
		}
	}
	return req, nil
}

func executeTrade(ctx context.Context, c *tradeFlags, kind tracker.StockTransactionKind) subcommands.ExitStatus {
	req, err := c.request(kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	result, err := NewTrader(s).ExecuteTrade(ctx, *userID, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if tracker.IsValidation(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}

	fmt.Printf("✅ %s %s x %s @ %s\n   stock transaction id: %s\n",
		kind, result.Stock.Ticker, result.Stock.Shares, result.Stock.PricePerShare, result.Stock.ID)
	if result.Cash != nil {
		fmt.Printf("   ledger entry: %s %s (%s)\n", result.Cash.Kind, result.Cash.ForeignAmount, result.Cash.ID)
	}
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a stock purchase" }
func (*buyCmd) Usage() string {
	return `buy -portfolio <id> -ticker <ticker> -shares <n> -price <p> -currency <code> [-fees <f>] [-d <date>] [-rate <fx>] [-market <m>] [-margin] [-skip-ledger]

  Records a buy and, unless -skip-ledger is set, atomically spends the
  notional plus fees from the portfolio's cash ledger.
`
}
func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.register(f) }
func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return executeTrade(ctx, &c.tradeFlags, tracker.Buy)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a stock sale" }
func (*sellCmd) Usage() string {
	return `sell -portfolio <id> -ticker <ticker> -shares <n> -price <p> -currency <code> [-fees <f>] [-d <date>] [-rate <fx>] [-market <m>] [-skip-ledger]

  Records a sell and, unless -skip-ledger is set, atomically credits the
  notional minus fees to the portfolio's cash ledger.
`
}
func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.register(f) }
func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return executeTrade(ctx, &c.tradeFlags, tracker.Sell)
}

type deleteTradeCmd struct {
	id string
}

func (*deleteTradeCmd) Name() string     { return "delete-trade" }
func (*deleteTradeCmd) Synopsis() string { return "delete a trade and its linked ledger entry" }
func (*deleteTradeCmd) Usage() string {
	return `delete-trade -id <stock transaction id>

  Deletes a stock transaction. The ledger entry it generated goes away in the
  same unit; locked ledger entries can only be removed this way.
`
}

func (c *deleteTradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Stock transaction id (required)")
}

func (c *deleteTradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id flag is required.")
		return subcommands.ExitUsageError
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	if err := NewTrader(s).DeleteTrade(ctx, *userID, c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("✅ Deleted trade %s\n", c.id)
	return subcommands.ExitSuccess
}
