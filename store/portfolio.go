package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	tracker "github.com/wilson614/investment-tracker"
)

// CreatePortfolio creates a portfolio together with its bound currency
// ledger in one transaction. The binding is 1:1, set here and immutable
// afterwards.
func (s *Store) CreatePortfolio(ctx context.Context, userID, name, currency, homeCurrency string) (tracker.Portfolio, tracker.CurrencyLedger, error) {
	if err := tracker.ValidateCurrency(currency); err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, err
	}
	if err := tracker.ValidateCurrency(homeCurrency); err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, err
	}

	ledger := tracker.CurrencyLedger{
		ID:           uuid.NewString(),
		UserID:       userID,
		Currency:     currency,
		DisplayName:  name,
		HomeCurrency: homeCurrency,
	}
	portfolio := tracker.Portfolio{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		Currency:     currency,
		HomeCurrency: homeCurrency,
		LedgerID:     ledger.ID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO currency_ledgers (id, user_id, currency, display_name, home_currency) VALUES (?, ?, ?, ?, ?)`,
		ledger.ID, ledger.UserID, ledger.Currency, ledger.DisplayName, ledger.HomeCurrency); err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, fmt.Errorf("could not insert ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO portfolios (id, user_id, name, currency, home_currency, ledger_id) VALUES (?, ?, ?, ?, ?, ?)`,
		portfolio.ID, portfolio.UserID, portfolio.Name, portfolio.Currency, portfolio.HomeCurrency, portfolio.LedgerID); err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, fmt.Errorf("could not insert portfolio: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, err
	}

	s.log.Info().Str("portfolio", portfolio.ID).Str("ledger", ledger.ID).Str("currency", currency).Msg("portfolio created")
	return portfolio, ledger, nil
}

// PortfolioWithLedger loads a portfolio owned by userID and its bound
// ledger. Unknown ids and other users' portfolios both surface as absence.
func (s *Store) PortfolioWithLedger(ctx context.Context, userID, portfolioID string) (tracker.Portfolio, tracker.CurrencyLedger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.name, p.currency, p.home_currency, p.ledger_id,
		       l.id, l.user_id, l.currency, l.display_name, l.home_currency
		FROM portfolios p
		JOIN currency_ledgers l ON l.id = p.ledger_id
		WHERE p.id = ? AND p.user_id = ?`, portfolioID, userID)

	var p tracker.Portfolio
	var l tracker.CurrencyLedger
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Currency, &p.HomeCurrency, &p.LedgerID,
		&l.ID, &l.UserID, &l.Currency, &l.DisplayName, &l.HomeCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, &tracker.NotFoundError{Entity: "portfolio", ID: portfolioID}
	}
	if err != nil {
		return tracker.Portfolio{}, tracker.CurrencyLedger{}, err
	}
	return p, l, nil
}

// Ledger loads a ledger owned by userID.
func (s *Store) Ledger(ctx context.Context, userID, ledgerID string) (tracker.CurrencyLedger, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, currency, display_name, home_currency FROM currency_ledgers WHERE id = ? AND user_id = ?`,
		ledgerID, userID)
	var l tracker.CurrencyLedger
	err := row.Scan(&l.ID, &l.UserID, &l.Currency, &l.DisplayName, &l.HomeCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.CurrencyLedger{}, &tracker.NotFoundError{Entity: "ledger", ID: ledgerID}
	}
	return l, err
}

// ListPortfolios returns every portfolio owned by userID, ordered by name.
func (s *Store) ListPortfolios(ctx context.Context, userID string) ([]tracker.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, currency, home_currency, ledger_id FROM portfolios WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []tracker.Portfolio
	for rows.Next() {
		var p tracker.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Currency, &p.HomeCurrency, &p.LedgerID); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}
