// Package cmd implements the CLI application to manage investment portfolios.
package cmd

import (
	"flag"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	tracker "github.com/wilson614/investment-tracker"
	"github.com/wilson614/investment-tracker/store"
)

// Register the subcommands.
// A main package calls Register() and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&newPortfolioCmd{}, "portfolios")
	c.Register(&performanceCmd{}, "portfolios")

	c.Register(&buyCmd{}, "trades")
	c.Register(&sellCmd{}, "trades")
	c.Register(&deleteTradeCmd{}, "trades")

	c.Register(&depositCmd{}, "ledger")
	c.Register(&withdrawCmd{}, "ledger")
	c.Register(&ledgerCmd{}, "ledger")
	c.Register(&exportCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbPath = flag.String("db", defaultDBPath(), "Path to the SQLite database file")
var userID = flag.String("user", "local", "Owner of the portfolios to operate on")

// defaultDBPath resolves the database path from .env/INVTRACK_DB, falling
// back to a file in the working directory.
func defaultDBPath() string {
	_ = godotenv.Load()
	if p := os.Getenv("INVTRACK_DB"); p != "" {
		return p
	}
	return "invtrack.db"
}

// Logger returns the CLI logger, writing human-readable lines to stderr.
func Logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// OpenStore opens the application database.
func OpenStore() (*store.Store, error) {
	return store.Open(*dbPath, Logger())
}

// perfCache memoizes performance reports for the lifetime of the process and
// is dropped again when a trade of the portfolio commits.
var perfCache = tracker.NewPerformanceCache(15 * time.Minute)

// NewTrader wires the trade orchestrator with the cache invalidation hook.
func NewTrader(s *store.Store) *tracker.Trader {
	return tracker.NewTrader(s, Logger(), perfCache.TradeHook())
}
