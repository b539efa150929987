package tracker

// Portfolio groups stock trades denominated in a single trading currency.
//
// A portfolio is bound 1:1 to a CurrencyLedger at creation and the binding is
// immutable: every stock transaction's currency must equal the bound ledger's
// currency code.
type Portfolio struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`     // base trading currency
	HomeCurrency string `json:"homeCurrency"` // reporting currency
	LedgerID     string `json:"ledgerId"`
}

// CurrencyLedger owns an ordered, append-only sequence of CurrencyTransaction
// records. It never stores a materialized balance; the balance is always a
// derived value (see ReplayBalance).
type CurrencyLedger struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Currency     string `json:"currency"`
	DisplayName  string `json:"displayName"`
	HomeCurrency string `json:"homeCurrency"`
}
