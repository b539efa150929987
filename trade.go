package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TradeRequest is the input of ExecuteTrade.
type TradeRequest struct {
	PortfolioID   string
	Date          Date
	Ticker        string
	Kind          StockTransactionKind
	Shares        Quantity
	PricePerShare decimal.Decimal // in the trade currency
	Fees          decimal.Decimal
	Currency      string
	ExchangeRate  decimal.Decimal // to the home currency, optional
	Market        Market
	BalanceAction BalanceAction
	// SkipLedger records the trade without deducting the bound ledger, for
	// trades funded outside the tracked cash accounts.
	SkipLedger bool
}

// TradeResult is the outcome of a committed trade.
type TradeResult struct {
	Stock    StockTransaction
	Cash     *CurrencyTransaction // nil when the trade bypassed the ledger
	LedgerID string
}

// TradeStore is the persistence boundary of the orchestrator. CommitTrade and
// DeleteTrade are atomic: either both records are durably written (removed),
// or neither is, and no intermediate state is observable by a concurrent
// reader.
type TradeStore interface {
	// PortfolioWithLedger loads a portfolio owned by userID together with its
	// bound ledger. Unknown ids and cross-tenant access both surface as a
	// NotFoundError.
	PortfolioWithLedger(ctx context.Context, userID, portfolioID string) (Portfolio, CurrencyLedger, error)
	CommitTrade(ctx context.Context, stock StockTransaction, cash *CurrencyTransaction) error
	DeleteTrade(ctx context.Context, userID, stockTxID string) error
}

// TradeHook is a fire-and-forget notification emitted after a successful
// commit, used for cache and snapshot invalidation. Hook failures never roll
// back the trade.
type TradeHook func(result TradeResult)

// Trader validates a trade request, computes the linked cash-ledger entry and
// commits both records as one unit.
type Trader struct {
	store TradeStore
	hooks []TradeHook
	log   zerolog.Logger
}

// NewTrader creates a trade orchestrator.
func NewTrader(store TradeStore, log zerolog.Logger, hooks ...TradeHook) *Trader {
	return &Trader{store: store, hooks: hooks, log: log}
}

// Validate checks the request fields and applies quick fixes (a zero date
// becomes today, an empty balance action becomes none).
func (r *TradeRequest) Validate() error {
	if r.PortfolioID == "" {
		return &ValidationError{Field: "portfolioId", Message: "portfolio id is missing"}
	}
	if r.Ticker == "" {
		return &ValidationError{Field: "ticker", Message: "ticker is missing"}
	}
	if _, err := ParseStockTransactionKind(string(r.Kind)); err != nil {
		return &ValidationError{Field: "type", Message: err.Error()}
	}
	if !r.Shares.IsPositive() {
		return &ValidationError{Field: "shares", Message: fmt.Sprintf("shares must be positive, got %s", r.Shares)}
	}
	if r.PricePerShare.IsNegative() {
		return &ValidationError{Field: "pricePerShare", Message: "price per share cannot be negative"}
	}
	if r.Fees.IsNegative() {
		return &ValidationError{Field: "fees", Message: "fees cannot be negative"}
	}
	if err := ValidateCurrency(r.Currency); err != nil {
		return err
	}
	if r.Date.IsZero() {
		r.Date = Today()
	}
	switch r.BalanceAction {
	case "":
		r.BalanceAction = BalanceNone
	case BalanceNone, BalanceMargin:
	default:
		return &ValidationError{Field: "balanceAction", Message: "unknown balance action " + string(r.BalanceAction)}
	}
	return nil
}

// ExecuteTrade validates the request against the portfolio's bound ledger and
// commits the stock transaction together with its derived ledger entry.
//
// A buy spends notional plus fees from the ledger; a sell credits notional
// minus fees. The resulting balance is allowed to go negative: with
// BalanceMargin this is explicit, and with BalanceNone no hard cash check is
// layered on either. Callers that need one must enforce it on top.
func (g *Trader) ExecuteTrade(ctx context.Context, userID string, req TradeRequest) (*TradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	portfolio, ledger, err := g.store.PortfolioWithLedger(ctx, userID, req.PortfolioID)
	if err != nil {
		return nil, err
	}
	if req.Currency != ledger.Currency {
		return nil, &BusinessRuleError{Message: fmt.Sprintf("%s 不符 %s", req.Currency, ledger.Currency)}
	}

	stock := StockTransaction{
		ID:            uuid.NewString(),
		PortfolioID:   portfolio.ID,
		Date:          req.Date,
		Ticker:        req.Ticker,
		Kind:          req.Kind,
		Shares:        req.Shares,
		PricePerShare: M(req.PricePerShare, req.Currency),
		Fees:          M(req.Fees, req.Currency),
		ExchangeRate:  req.ExchangeRate,
		Market:        req.Market,
		BalanceAction: req.BalanceAction,
	}

	var cash *CurrencyTransaction
	if !req.SkipLedger {
		entry := g.derivedLedgerEntry(stock, ledger)
		cash = &entry
	}

	if err := g.store.CommitTrade(ctx, stock, cash); err != nil {
		return nil, fmt.Errorf("trade commit failed: %w", err)
	}

	result := TradeResult{Stock: stock, Cash: cash, LedgerID: ledger.ID}
	g.log.Info().
		Str("portfolio", portfolio.ID).
		Str("ticker", stock.Ticker).
		Str("kind", string(stock.Kind)).
		Str("shares", stock.Shares.String()).
		Msg("trade committed")
	g.notify(result)
	return &result, nil
}

// DeleteTrade removes a stock transaction and its linked ledger entry in the
// same atomic unit, so no orphaned locked entry remains.
func (g *Trader) DeleteTrade(ctx context.Context, userID, stockTxID string) error {
	if err := g.store.DeleteTrade(ctx, userID, stockTxID); err != nil {
		return err
	}
	g.log.Info().Str("stockTransaction", stockTxID).Msg("trade deleted")
	g.notify(TradeResult{Stock: StockTransaction{ID: stockTxID}})
	return nil
}

// derivedLedgerEntry computes the cash-ledger entry a trade generates. Only
// the orchestrator may set the back-reference to the trade.
func (g *Trader) derivedLedgerEntry(stock StockTransaction, ledger CurrencyLedger) CurrencyTransaction {
	notional := stock.Notional()
	entry := CurrencyTransaction{
		ID:                        uuid.NewString(),
		LedgerID:                  ledger.ID,
		Date:                      stock.Date,
		ExchangeRate:              stock.ExchangeRate,
		RelatedStockTransactionID: stock.ID,
	}
	switch stock.Kind {
	case Sell:
		entry.Kind = KindOtherIncome
		entry.ForeignAmount = notional.Sub(stock.Fees)
		entry.Notes = fmt.Sprintf("Sell %s x %s", stock.Ticker, stock.Shares)
	default:
		// Downstream consumers substring-match the ticker in Notes.
		entry.Kind = KindSpend
		entry.ForeignAmount = notional.Add(stock.Fees)
		entry.Notes = fmt.Sprintf("Buy %s x %s", stock.Ticker, stock.Shares)
	}
	if !stock.ExchangeRate.IsZero() {
		entry.HomeAmount = M(entry.ForeignAmount.Amount().Mul(stock.ExchangeRate), ledger.HomeCurrency)
	}
	return entry
}

// notify runs the post-commit hooks without blocking the request. A panicking
// hook is logged and dropped.
func (g *Trader) notify(result TradeResult) {
	for _, hook := range g.hooks {
		hook := hook
		go func() {
			defer func() {
				if r := recover(); r != nil {
					g.log.Warn().Interface("panic", r).Msg("trade hook failed")
				}
			}()
			hook(result)
		}()
	}
}
