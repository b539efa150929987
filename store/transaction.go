package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	tracker "github.com/wilson614/investment-tracker"
)

// errRelatedOnManual is a compatibility contract: clients match this message.
const errRelatedOnManual = "RelatedStockTransactionId cannot be provided when creating currency transactions."

// CreateCurrencyTransaction appends a manual entry to a ledger's log.
//
// A manual entry must not carry a related-trade reference; only the trade
// orchestrator sets that back-reference, through CommitTrade.
func (s *Store) CreateCurrencyTransaction(ctx context.Context, userID string, tx tracker.CurrencyTransaction) (tracker.CurrencyTransaction, error) {
	if tx.RelatedStockTransactionID != "" {
		return tracker.CurrencyTransaction{}, &tracker.ValidationError{Message: errRelatedOnManual}
	}
	if err := tx.Validate(); err != nil {
		return tracker.CurrencyTransaction{}, err
	}
	ledger, err := s.Ledger(ctx, userID, tx.LedgerID)
	if err != nil {
		return tracker.CurrencyTransaction{}, err
	}
	if tx.ForeignAmount.Currency() != ledger.Currency {
		return tracker.CurrencyTransaction{}, &tracker.BusinessRuleError{
			Message: fmt.Sprintf("%s 不符 %s", tx.ForeignAmount.Currency(), ledger.Currency),
		}
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO currency_transactions (id, ledger_id, date, kind, foreign_amount, home_amount, exchange_rate, notes, related_stock_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		tx.ID, tx.LedgerID, tx.Date.String(), string(tx.Kind),
		tx.ForeignAmount.Amount().String(), nullDecimal(tx.HomeAmount.Amount()), nullDecimal(tx.ExchangeRate), tx.Notes); err != nil {
		return tracker.CurrencyTransaction{}, fmt.Errorf("could not insert currency transaction: %w", err)
	}
	return tx, nil
}

// DeleteCurrencyTransaction removes a manual ledger entry. Deleting a locked
// (trade-derived) entry is a protected no-op: the owning stock transaction
// must be deleted instead, which cascades.
func (s *Store) DeleteCurrencyTransaction(ctx context.Context, userID, txID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM currency_transactions
		WHERE id = ?
		  AND related_stock_transaction_id IS NULL
		  AND ledger_id IN (SELECT id FROM currency_ledgers WHERE user_id = ?)`,
		txID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var locked bool
	err = s.db.QueryRowContext(ctx, `
		SELECT related_stock_transaction_id IS NOT NULL
		FROM currency_transactions t
		JOIN currency_ledgers l ON l.id = t.ledger_id
		WHERE t.id = ? AND l.user_id = ?`, txID, userID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return &tracker.NotFoundError{Entity: "currency transaction", ID: txID}
	}
	if err != nil {
		return err
	}
	if locked {
		return &tracker.BusinessRuleError{Message: "currency transaction is derived from a trade; delete the stock transaction instead"}
	}
	return &tracker.NotFoundError{Entity: "currency transaction", ID: txID}
}

// ListCurrencyTransactions returns a ledger's log ordered by date ascending,
// with ties in insertion order. This is the order the balance replay expects.
func (s *Store) ListCurrencyTransactions(ctx context.Context, userID, ledgerID string) ([]tracker.CurrencyTransaction, error) {
	ledger, err := s.Ledger(ctx, userID, ledgerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger_id, date, kind, foreign_amount, home_amount, exchange_rate, notes, related_stock_transaction_id
		FROM currency_transactions
		WHERE ledger_id = ?
		ORDER BY date ASC, rowid ASC`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []tracker.CurrencyTransaction
	for rows.Next() {
		tx, err := scanCurrencyTransaction(rows, ledger)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanCurrencyTransaction(rows *sql.Rows, ledger tracker.CurrencyLedger) (tracker.CurrencyTransaction, error) {
	var tx tracker.CurrencyTransaction
	var date, kind, foreignAmount string
	var homeAmount, exchangeRate, related sql.NullString
	if err := rows.Scan(&tx.ID, &tx.LedgerID, &date, &kind, &foreignAmount, &homeAmount, &exchangeRate, &tx.Notes, &related); err != nil {
		return tracker.CurrencyTransaction{}, err
	}
	var err error
	if tx.Date, err = tracker.ParseDate(date); err != nil {
		return tracker.CurrencyTransaction{}, err
	}
	tx.Kind = tracker.CurrencyTransactionKind(kind)
	amount, err := decimal.NewFromString(foreignAmount)
	if err != nil {
		return tracker.CurrencyTransaction{}, fmt.Errorf("corrupt amount %q: %w", foreignAmount, err)
	}
	tx.ForeignAmount = tracker.M(amount, ledger.Currency)
	if homeAmount.Valid {
		home, err := decimal.NewFromString(homeAmount.String)
		if err != nil {
			return tracker.CurrencyTransaction{}, fmt.Errorf("corrupt home amount %q: %w", homeAmount.String, err)
		}
		tx.HomeAmount = tracker.M(home, ledger.HomeCurrency)
	}
	if exchangeRate.Valid {
		if tx.ExchangeRate, err = decimal.NewFromString(exchangeRate.String); err != nil {
			return tracker.CurrencyTransaction{}, fmt.Errorf("corrupt exchange rate %q: %w", exchangeRate.String, err)
		}
	}
	if related.Valid {
		tx.RelatedStockTransactionID = related.String
	}
	return tx, nil
}

// ListStockTransactions returns a portfolio's trades ordered by date
// ascending, with ties in insertion order.
func (s *Store) ListStockTransactions(ctx context.Context, userID, portfolioID string) ([]tracker.StockTransaction, error) {
	portfolio, _, err := s.PortfolioWithLedger(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, portfolio_id, date, ticker, kind, shares, price_per_share, fees, exchange_rate, market, balance_action
		FROM stock_transactions
		WHERE portfolio_id = ?
		ORDER BY date ASC, rowid ASC`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []tracker.StockTransaction
	for rows.Next() {
		var tx tracker.StockTransaction
		var date, kind, shares, price, fees string
		var exchangeRate, market sql.NullString
		var balanceAction string
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &date, &tx.Ticker, &kind, &shares, &price, &fees, &exchangeRate, &market, &balanceAction); err != nil {
			return nil, err
		}
		if tx.Date, err = tracker.ParseDate(date); err != nil {
			return nil, err
		}
		tx.Kind = tracker.StockTransactionKind(kind)
		sharesDec, err := decimal.NewFromString(shares)
		if err != nil {
			return nil, fmt.Errorf("corrupt shares %q: %w", shares, err)
		}
		tx.Shares = tracker.Q(sharesDec)
		priceDec, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price %q: %w", price, err)
		}
		tx.PricePerShare = tracker.M(priceDec, portfolio.Currency)
		feesDec, err := decimal.NewFromString(fees)
		if err != nil {
			return nil, fmt.Errorf("corrupt fees %q: %w", fees, err)
		}
		tx.Fees = tracker.M(feesDec, portfolio.Currency)
		if exchangeRate.Valid {
			if tx.ExchangeRate, err = decimal.NewFromString(exchangeRate.String); err != nil {
				return nil, fmt.Errorf("corrupt exchange rate %q: %w", exchangeRate.String, err)
			}
		}
		if market.Valid {
			tx.Market = tracker.Market(market.String)
		}
		tx.BalanceAction = tracker.BalanceAction(balanceAction)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CommitTrade persists a stock transaction and its derived ledger entry as
// one unit: either both rows are durably committed or neither is. cash may be
// nil for trades flagged to bypass the ledger.
func (s *Store) CommitTrade(ctx context.Context, stock tracker.StockTransaction, cash *tracker.CurrencyTransaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_transactions (id, portfolio_id, date, ticker, kind, shares, price_per_share, fees, exchange_rate, market, balance_action)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stock.ID, stock.PortfolioID, stock.Date.String(), stock.Ticker, string(stock.Kind),
		stock.Shares.Value().String(), stock.PricePerShare.Amount().String(), stock.Fees.Amount().String(),
		nullDecimal(stock.ExchangeRate), nullString(string(stock.Market)), string(stock.BalanceAction)); err != nil {
		return fmt.Errorf("could not insert stock transaction: %w", err)
	}

	if cash != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO currency_transactions (id, ledger_id, date, kind, foreign_amount, home_amount, exchange_rate, notes, related_stock_transaction_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cash.ID, cash.LedgerID, cash.Date.String(), string(cash.Kind),
			cash.ForeignAmount.Amount().String(), nullDecimal(cash.HomeAmount.Amount()), nullDecimal(cash.ExchangeRate),
			cash.Notes, cash.RelatedStockTransactionID); err != nil {
			return fmt.Errorf("could not insert derived currency transaction: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteTrade removes a stock transaction; the foreign key cascades the
// linked ledger entry away in the same transaction, leaving no orphaned
// locked entry behind.
func (s *Store) DeleteTrade(ctx context.Context, userID, stockTxID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM stock_transactions
		WHERE id = ?
		  AND portfolio_id IN (SELECT id FROM portfolios WHERE user_id = ?)`,
		stockTxID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &tracker.NotFoundError{Entity: "stock transaction", ID: stockTxID}
	}
	return nil
}

// YearInput assembles the calculator input for one portfolio.
func (s *Store) YearInput(ctx context.Context, userID, portfolioID string, prices tracker.PriceBook) (tracker.PortfolioYearInput, error) {
	portfolio, ledger, err := s.PortfolioWithLedger(ctx, userID, portfolioID)
	if err != nil {
		return tracker.PortfolioYearInput{}, err
	}
	stockTxs, err := s.ListStockTransactions(ctx, userID, portfolioID)
	if err != nil {
		return tracker.PortfolioYearInput{}, err
	}
	ledgerTxs, err := s.ListCurrencyTransactions(ctx, userID, ledger.ID)
	if err != nil {
		return tracker.PortfolioYearInput{}, err
	}
	return tracker.PortfolioYearInput{
		Portfolio: portfolio,
		Ledger:    ledger,
		StockTxs:  stockTxs,
		LedgerTxs: ledgerTxs,
		Prices:    prices,
	}, nil
}

func nullDecimal(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
