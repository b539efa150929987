package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	tracker "github.com/wilson614/investment-tracker"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestPortfolio(t *testing.T, s *Store, userID string) (tracker.Portfolio, tracker.CurrencyLedger) {
	t.Helper()
	portfolio, ledger, err := s.CreatePortfolio(context.Background(), userID, "Growth", "USD", "TWD")
	require.NoError(t, err)
	return portfolio, ledger
}

func testTrade(portfolio tracker.Portfolio, ledger tracker.CurrencyLedger) (tracker.StockTransaction, tracker.CurrencyTransaction) {
	stock := tracker.StockTransaction{
		ID:            uuid.NewString(),
		PortfolioID:   portfolio.ID,
		Date:          tracker.MustParseDate("2024-02-01"),
		Ticker:        "AAPL",
		Kind:          tracker.Buy,
		Shares:        tracker.Q(10),
		PricePerShare: tracker.M(50, "USD"),
		Fees:          tracker.M(5, "USD"),
		BalanceAction: tracker.BalanceNone,
	}
	cash := tracker.CurrencyTransaction{
		ID:                        uuid.NewString(),
		LedgerID:                  ledger.ID,
		Date:                      stock.Date,
		Kind:                      tracker.KindSpend,
		ForeignAmount:             tracker.M(505, "USD"),
		Notes:                     "Buy AAPL x 10",
		RelatedStockTransactionID: stock.ID,
	}
	return stock, cash
}

func TestCreatePortfolio_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, ledger := newTestPortfolio(t, s, "u1")
	require.Equal(t, ledger.ID, created.LedgerID)

	portfolio, gotLedger, err := s.PortfolioWithLedger(ctx, "u1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created, portfolio)
	require.Equal(t, ledger, gotLedger)
	require.Equal(t, "USD", gotLedger.Currency)
	require.Equal(t, "TWD", gotLedger.HomeCurrency)
}

func TestCreatePortfolio_RejectsBadCurrency(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.CreatePortfolio(context.Background(), "u1", "Growth", "DOLLARS", "TWD")
	require.Error(t, err)
}

func TestPortfolioWithLedger_CrossTenant(t *testing.T) {
	s := newTestStore(t)
	portfolio, _ := newTestPortfolio(t, s, "u1")

	_, _, err := s.PortfolioWithLedger(context.Background(), "u2", portfolio.ID)
	require.True(t, tracker.IsNotFound(err), "cross-tenant access must surface as absence, got %v", err)
}

func TestListPortfolios(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestPortfolio(t, s, "u1")
	newTestPortfolio(t, s, "u1")
	newTestPortfolio(t, s, "u2")

	portfolios, err := s.ListPortfolios(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, portfolios, 2)
}

func TestCommitTrade_WritesBothRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)

	require.NoError(t, s.CommitTrade(ctx, stock, &cash))

	stocks, err := s.ListStockTransactions(ctx, "u1", portfolio.ID)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	require.Equal(t, "AAPL", stocks[0].Ticker)
	require.True(t, stocks[0].PricePerShare.Equal(tracker.M(50, "USD")))

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, stock.ID, entries[0].RelatedStockTransactionID)
	require.True(t, entries[0].Locked())
	require.True(t, entries[0].ForeignAmount.Equal(tracker.M(505, "USD")))
}

func TestCommitTrade_RollsBackOnBadLedgerEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)
	cash.LedgerID = "missing-ledger"

	require.Error(t, s.CommitTrade(ctx, stock, &cash))

	// The stock row must not survive a failed ledger insert.
	stocks, err := s.ListStockTransactions(ctx, "u1", portfolio.ID)
	require.NoError(t, err)
	require.Empty(t, stocks)
}

func TestCommitTrade_NilCashSkipsLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, _ := testTrade(portfolio, ledger)

	require.NoError(t, s.CommitTrade(ctx, stock, nil))

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDeleteTrade_CascadesLedgerEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)
	require.NoError(t, s.CommitTrade(ctx, stock, &cash))

	require.NoError(t, s.DeleteTrade(ctx, "u1", stock.ID))

	stocks, err := s.ListStockTransactions(ctx, "u1", portfolio.ID)
	require.NoError(t, err)
	require.Empty(t, stocks)

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Empty(t, entries, "the derived ledger entry must go away with its trade")
}

func TestDeleteTrade_CrossTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)
	require.NoError(t, s.CommitTrade(ctx, stock, &cash))

	err := s.DeleteTrade(ctx, "u2", stock.ID)
	require.True(t, tracker.IsNotFound(err))

	stocks, err := s.ListStockTransactions(ctx, "u1", portfolio.ID)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
}

func TestCreateCurrencyTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ledger := newTestPortfolio(t, s, "u1")

	created, err := s.CreateCurrencyTransaction(ctx, "u1", tracker.CurrencyTransaction{
		LedgerID:      ledger.ID,
		Date:          tracker.MustParseDate("2024-01-02"),
		Kind:          tracker.KindDeposit,
		ForeignAmount: tracker.M(1000, "USD"),
		ExchangeRate:  decimal.NewFromInt(30),
		HomeAmount:    tracker.M(30000, "TWD"),
		Notes:         "funding",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].ForeignAmount.Equal(tracker.M(1000, "USD")))
	require.True(t, entries[0].HomeAmount.Equal(tracker.M(30000, "TWD")))
	require.True(t, entries[0].ExchangeRate.Equal(decimal.NewFromInt(30)))
	require.Equal(t, "funding", entries[0].Notes)
}

func TestCreateCurrencyTransaction_RejectsRelatedReference(t *testing.T) {
	s := newTestStore(t)
	_, ledger := newTestPortfolio(t, s, "u1")

	_, err := s.CreateCurrencyTransaction(context.Background(), "u1", tracker.CurrencyTransaction{
		LedgerID:                  ledger.ID,
		Date:                      tracker.MustParseDate("2024-01-02"),
		Kind:                      tracker.KindDeposit,
		ForeignAmount:             tracker.M(1000, "USD"),
		RelatedStockTransactionID: "S1",
	})
	require.Error(t, err)
	require.True(t, tracker.IsValidation(err))
	require.Equal(t, "RelatedStockTransactionId cannot be provided when creating currency transactions.", err.Error())
}

func TestCreateCurrencyTransaction_CurrencyMismatch(t *testing.T) {
	s := newTestStore(t)
	_, ledger := newTestPortfolio(t, s, "u1")

	_, err := s.CreateCurrencyTransaction(context.Background(), "u1", tracker.CurrencyTransaction{
		LedgerID:      ledger.ID,
		Date:          tracker.MustParseDate("2024-01-02"),
		Kind:          tracker.KindDeposit,
		ForeignAmount: tracker.M(1000, "EUR"),
	})
	require.Error(t, err)
	require.True(t, tracker.IsBusinessRule(err))
	require.Contains(t, err.Error(), "EUR")
	require.Contains(t, err.Error(), "USD")
}

func TestDeleteCurrencyTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ledger := newTestPortfolio(t, s, "u1")

	created, err := s.CreateCurrencyTransaction(ctx, "u1", tracker.CurrencyTransaction{
		LedgerID:      ledger.ID,
		Date:          tracker.MustParseDate("2024-01-02"),
		Kind:          tracker.KindDeposit,
		ForeignAmount: tracker.M(1000, "USD"),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCurrencyTransaction(ctx, "u1", created.ID))

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDeleteCurrencyTransaction_LockedEntryIsProtected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)
	require.NoError(t, s.CommitTrade(ctx, stock, &cash))

	err := s.DeleteCurrencyTransaction(ctx, "u1", cash.ID)
	require.True(t, tracker.IsBusinessRule(err), "deleting a locked entry must be refused, got %v", err)

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the locked entry must still be there")
}

func TestDeleteCurrencyTransaction_Unknown(t *testing.T) {
	s := newTestStore(t)
	newTestPortfolio(t, s, "u1")

	err := s.DeleteCurrencyTransaction(context.Background(), "u1", "missing")
	require.True(t, tracker.IsNotFound(err))
}

func TestListCurrencyTransactions_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ledger := newTestPortfolio(t, s, "u1")

	dates := []string{"2024-03-01", "2024-01-02", "2024-01-02", "2024-02-15"}
	var ids []string
	for _, d := range dates {
		created, err := s.CreateCurrencyTransaction(ctx, "u1", tracker.CurrencyTransaction{
			LedgerID:      ledger.ID,
			Date:          tracker.MustParseDate(d),
			Kind:          tracker.KindDeposit,
			ForeignAmount: tracker.M(100, "USD"),
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	entries, err := s.ListCurrencyTransactions(ctx, "u1", ledger.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Date ascending, ties in insertion order.
	want := []string{ids[1], ids[2], ids[3], ids[0]}
	for i, id := range want {
		require.Equal(t, id, entries[i].ID, "entry %d out of order", i)
	}
}

func TestYearInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	portfolio, ledger := newTestPortfolio(t, s, "u1")
	stock, cash := testTrade(portfolio, ledger)
	require.NoError(t, s.CommitTrade(ctx, stock, &cash))

	prices := tracker.PriceBook{YearEnd: tracker.PriceTable{"AAPL": {Price: 60, ExchangeRate: 30}}}
	in, err := s.YearInput(ctx, "u1", portfolio.ID, prices)
	require.NoError(t, err)
	require.Equal(t, portfolio.ID, in.Portfolio.ID)
	require.Equal(t, ledger.ID, in.Ledger.ID)
	require.Len(t, in.StockTxs, 1)
	require.Len(t, in.LedgerTxs, 1)

	perf, err := tracker.CalculateYearPerformance(2024, in)
	require.NoError(t, err)
	require.Equal(t, 1, perf.TransactionCount)
}
