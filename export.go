package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeCurrencyTransactions writes a ledger's transaction log as JSONL, one
// transaction per line, preserving the log's order.
func EncodeCurrencyTransactions(w io.Writer, txs []CurrencyTransaction) error {
	enc := json.NewEncoder(w)
	for _, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("could not encode currency transaction %q: %w", tx.ID, err)
		}
	}
	return nil
}

// DecodeCurrencyTransactions reads a JSONL stream of ledger transactions,
// keeping the stream order.
func DecodeCurrencyTransactions(r io.Reader) ([]CurrencyTransaction, error) {
	var txs []CurrencyTransaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var tx CurrencyTransaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return nil, fmt.Errorf("could not decode line %q: %w", string(line), err)
		}
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// EncodeStockTransactions writes a portfolio's trades as JSONL.
func EncodeStockTransactions(w io.Writer, txs []StockTransaction) error {
	enc := json.NewEncoder(w)
	for _, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("could not encode stock transaction %q: %w", tx.ID, err)
		}
	}
	return nil
}

// DecodeStockTransactions reads a JSONL stream of trades.
func DecodeStockTransactions(r io.Reader) ([]StockTransaction, error) {
	var txs []StockTransaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var tx StockTransaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return nil, fmt.Errorf("could not decode line %q: %w", string(line), err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
