package tracker

// BalanceEntry pairs a ledger transaction with the running balance after it
// was applied.
type BalanceEntry struct {
	Transaction CurrencyTransaction
	Balance     Money
}

// ReplayBalance folds an ordered currency-transaction log into a running
// balance after each transaction and the final balance.
//
// The fold is pure and order-dependent: callers must supply transactions
// pre-sorted by date ascending; ties keep their insertion order and are not
// re-sorted here. A balance may legitimately go negative (margin trading);
// that is not an error. An unknown kind fails fast.
func ReplayBalance(currency string, txs []CurrencyTransaction) ([]BalanceEntry, Money, error) {
	balance := M(0, currency)
	entries := make([]BalanceEntry, 0, len(txs))
	for _, tx := range txs {
		amount, err := tx.SignedAmount()
		if err != nil {
			return nil, Money{}, err
		}
		balance = balance.Add(amount)
		entries = append(entries, BalanceEntry{Transaction: tx, Balance: balance})
	}
	return entries, balance, nil
}

// LedgerBalance returns only the final balance of the replayed log.
func LedgerBalance(currency string, txs []CurrencyTransaction) (Money, error) {
	_, balance, err := ReplayBalance(currency, txs)
	return balance, err
}
