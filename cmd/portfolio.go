package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	tracker "github.com/wilson614/investment-tracker"
)

type newPortfolioCmd struct {
	name     string
	currency string
	home     string
}

func (*newPortfolioCmd) Name() string     { return "new-portfolio" }
func (*newPortfolioCmd) Synopsis() string { return "create a portfolio with its bound cash ledger" }
func (*newPortfolioCmd) Usage() string {
	return `new-portfolio -name <name> -currency <code> [-home <code>]

  Creates a portfolio and the currency ledger it trades against. The binding
  is set at creation time and never changes afterwards.
`
}

func (c *newPortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Portfolio name (required)")
	f.StringVar(&c.currency, "currency", "", "Trade currency, 3-letter code (required)")
	f.StringVar(&c.home, "home", "", "Home reporting currency (defaults to the trade currency)")
}

func (c *newPortfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.currency == "" {
		fmt.Fprintln(os.Stderr, "Error: -name and -currency flags are required.")
		return subcommands.ExitUsageError
	}
	if c.home == "" {
		c.home = c.currency
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	portfolio, ledger, err := s.CreatePortfolio(ctx, *userID, c.name, c.currency, c.home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("✅ Created portfolio %q (%s)\n   portfolio id: %s\n   ledger id:    %s\n",
		portfolio.Name, portfolio.Currency, portfolio.ID, ledger.ID)
	return subcommands.ExitSuccess
}

type performanceCmd struct {
	portfolio string
	year      int
	prices    string
	aggregate bool
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "compute the yearly performance report" }
func (*performanceCmd) Usage() string {
	return `performance [-portfolio <id> | -aggregate] [-year <year>] [-prices <file>]

  Computes start and end valuations, net contributions, XIRR, Modified Dietz
  and the time-weighted return for one year, as JSON on stdout.

  Prices are never fetched: -prices points to a JSON file with year-start,
  year-end (or current) price tables and FX rates. Positions without a price
  are excluded from the valuation and listed under missingPrices.

  With -aggregate the report covers every portfolio of the user, in the home
  currency.
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio id to report on")
	f.IntVar(&c.year, "year", tracker.Today().Year(), "Year to report on (defaults to the running year)")
	f.StringVar(&c.prices, "prices", "", "Path to the price book JSON file")
	f.BoolVar(&c.aggregate, "aggregate", false, "Aggregate every portfolio of the user")
}

func (c *performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" && !c.aggregate {
		fmt.Fprintln(os.Stderr, "Error: either -portfolio or -aggregate is required.")
		return subcommands.ExitUsageError
	}

	book, err := loadPriceBook(c.prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading price book: %v\n", err)
		return subcommands.ExitFailure
	}

	s, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var perf *tracker.YearPerformance
	if c.aggregate {
		portfolios, err := s.ListPortfolios(ctx, *userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing portfolios: %v\n", err)
			return subcommands.ExitFailure
		}
		inputs := make([]tracker.PortfolioYearInput, 0, len(portfolios))
		for _, p := range portfolios {
			in, err := s.YearInput(ctx, *userID, p.ID, book)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading portfolio %s: %v\n", p.ID, err)
				return subcommands.ExitFailure
			}
			inputs = append(inputs, in)
		}
		perf, err = tracker.AggregateYearPerformance(c.year, inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing aggregate performance: %v\n", err)
			return subcommands.ExitFailure
		}
	} else if cached, ok := perfCache.Get(c.portfolio, c.year); ok {
		perf = cached
	} else {
		in, err := s.YearInput(ctx, *userID, c.portfolio, book)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
			return subcommands.ExitFailure
		}
		perf, err = tracker.CalculateYearPerformance(c.year, in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing performance: %v\n", err)
			return subcommands.ExitFailure
		}
		perfCache.Put(c.portfolio, c.year, perf)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(perf); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// loadPriceBook reads the externally sourced valuation inputs. No file means
// an empty book: every held position is then reported as a gap.
func loadPriceBook(path string) (tracker.PriceBook, error) {
	if path == "" {
		return tracker.PriceBook{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tracker.PriceBook{}, err
	}
	var book tracker.PriceBook
	if err := json.Unmarshal(data, &book); err != nil {
		return tracker.PriceBook{}, fmt.Errorf("invalid price book %s: %w", path, err)
	}
	return book, nil
}
