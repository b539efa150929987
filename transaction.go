package tracker

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyTransactionKind identifies the kind of a cash-ledger entry.
type CurrencyTransactionKind string

// The closed set of ledger entry kinds.
const (
	KindExchangeBuy    CurrencyTransactionKind = "exchange-buy"
	KindExchangeSell   CurrencyTransactionKind = "exchange-sell"
	KindDeposit        CurrencyTransactionKind = "deposit"
	KindWithdraw       CurrencyTransactionKind = "withdraw"
	KindInterest       CurrencyTransactionKind = "interest"
	KindSpend          CurrencyTransactionKind = "spend"
	KindInitialBalance CurrencyTransactionKind = "initial-balance"
	KindOtherIncome    CurrencyTransactionKind = "other-income"
	KindOtherExpense   CurrencyTransactionKind = "other-expense"
)

// ParseCurrencyTransactionKind parses a string into a CurrencyTransactionKind.
func ParseCurrencyTransactionKind(s string) (CurrencyTransactionKind, error) {
	k := CurrencyTransactionKind(s)
	if _, err := k.Direction(); err != nil {
		return "", err
	}
	return k, nil
}

// Direction returns +1 for kinds that increase the ledger balance and -1 for
// kinds that decrease it. No kind is excluded from the balance; an unknown
// kind fails fast rather than defaulting to a zero effect.
func (k CurrencyTransactionKind) Direction() (int, error) {
	switch k {
	case KindExchangeBuy, KindInitialBalance, KindDeposit, KindInterest, KindOtherIncome:
		return +1, nil
	case KindExchangeSell, KindSpend, KindWithdraw, KindOtherExpense:
		return -1, nil
	default:
		return 0, fmt.Errorf("unknown currency transaction kind %q", string(k))
	}
}

// CurrencyTransaction is a single entry in a ledger's append-only cash log.
//
// ForeignAmount is always stored positive; the sign it contributes to the
// balance is derived from Kind. HomeAmount and ExchangeRate are optional
// (zero means unset). A transaction carrying RelatedStockTransactionID was
// derived from a stock trade and is locked: it cannot be edited or deleted
// independently of its originating trade.
type CurrencyTransaction struct {
	ID                        string                  `json:"id"`
	LedgerID                  string                  `json:"ledgerId"`
	Date                      Date                    `json:"date"`
	Kind                      CurrencyTransactionKind `json:"kind"`
	ForeignAmount             Money                   `json:"foreignAmount"`
	HomeAmount                Money                   `json:"homeAmount,omitzero"`
	ExchangeRate              decimal.Decimal         `json:"exchangeRate,omitzero"`
	Notes                     string                  `json:"notes,omitempty"`
	RelatedStockTransactionID string                  `json:"relatedStockTransactionId,omitempty"`
}

// Locked reports whether the entry was derived from a stock trade and may
// only be removed by deleting that trade.
func (t CurrencyTransaction) Locked() bool { return t.RelatedStockTransactionID != "" }

// SignedAmount returns the amount this entry contributes to the ledger
// balance, signed according to its kind.
func (t CurrencyTransaction) SignedAmount() (Money, error) {
	dir, err := t.Kind.Direction()
	if err != nil {
		return Money{}, err
	}
	if dir < 0 {
		return t.ForeignAmount.Neg(), nil
	}
	return t.ForeignAmount, nil
}

// Validate checks the intrinsic fields of a ledger entry.
func (t CurrencyTransaction) Validate() error {
	if _, err := t.Kind.Direction(); err != nil {
		return &ValidationError{Field: "kind", Message: err.Error()}
	}
	if t.ForeignAmount.IsNegative() {
		return &ValidationError{Field: "foreignAmount", Message: "amount must be stored positive; the sign is derived from the kind"}
	}
	if err := ValidateCurrency(t.ForeignAmount.Currency()); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is missing"}
	}
	return nil
}

// StockTransactionKind identifies a trade direction.
type StockTransactionKind string

const (
	Buy  StockTransactionKind = "buy"
	Sell StockTransactionKind = "sell"
)

// ParseStockTransactionKind parses a string into a StockTransactionKind.
func ParseStockTransactionKind(s string) (StockTransactionKind, error) {
	switch k := StockTransactionKind(s); k {
	case Buy, Sell:
		return k, nil
	default:
		return "", fmt.Errorf("unknown stock transaction kind %q", s)
	}
}

// Market is an optional exchange hint carried by a trade.
type Market string

const (
	MarketUS Market = "US"
	MarketTW Market = "TW"
	MarketUK Market = "UK"
	MarketJP Market = "JP"
)

// BalanceAction tells the trade orchestrator how to treat the ledger balance.
type BalanceAction string

const (
	// BalanceNone applies the default policy: the ledger entry is recorded
	// and the balance is allowed to go negative without a hard cash check.
	BalanceNone BalanceAction = "none"
	// BalanceMargin explicitly permits a negative resulting balance.
	BalanceMargin BalanceAction = "margin"
)

// StockTransaction is a committed stock trade.
//
// A trade owns at most one linked CurrencyTransaction, created atomically at
// trade time; the link is the RelatedStockTransactionID back-reference on the
// ledger side.
type StockTransaction struct {
	ID            string               `json:"id"`
	PortfolioID   string               `json:"portfolioId"`
	Date          Date                 `json:"date"`
	Ticker        string               `json:"ticker"`
	Kind          StockTransactionKind `json:"kind"`
	Shares        Quantity             `json:"shares"`
	PricePerShare Money                `json:"pricePerShare"`
	Fees          Money                `json:"fees"`
	ExchangeRate  decimal.Decimal      `json:"exchangeRate,omitzero"`
	Market        Market               `json:"market,omitempty"`
	BalanceAction BalanceAction        `json:"balanceAction,omitempty"`
}

// Notional returns shares times price per share, in the trade currency.
func (t StockTransaction) Notional() Money {
	return t.PricePerShare.Mul(t.Shares)
}
