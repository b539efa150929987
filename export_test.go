package tracker

import (
	"bytes"
	"strings"
	"testing"
)

func TestCurrencyTransactionsRoundTrip(t *testing.T) {
	txs := []CurrencyTransaction{
		{
			ID: "C1", LedgerID: "L1", Date: MustParseDate("2024-01-02"),
			Kind: KindDeposit, ForeignAmount: M(1000, "USD"), Notes: "funding",
		},
		{
			ID: "C2", LedgerID: "L1", Date: MustParseDate("2024-02-01"),
			Kind: KindSpend, ForeignAmount: M(505, "USD"),
			Notes: "Buy AAPL x 10", RelatedStockTransactionID: "S1",
		},
	}

	var buf bytes.Buffer
	if err := EncodeCurrencyTransactions(&buf, txs); err != nil {
		t.Fatalf("EncodeCurrencyTransactions() error = %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("encoded %d lines, want 2", got)
	}

	back, err := DecodeCurrencyTransactions(&buf)
	if err != nil {
		t.Fatalf("DecodeCurrencyTransactions() error = %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("decoded %d transactions, want 2", len(back))
	}
	if back[0].ID != "C1" || back[1].ID != "C2" {
		t.Errorf("decode lost the stream order: %s, %s", back[0].ID, back[1].ID)
	}
	if !back[0].ForeignAmount.Equal(M(1000, "USD")) {
		t.Errorf("amount = %s, want %s", back[0].ForeignAmount, M(1000, "USD"))
	}
	if !back[1].Locked() {
		t.Error("the derived entry must stay locked through the round trip")
	}
}

func TestDecodeCurrencyTransactions_RejectsUnknownKind(t *testing.T) {
	line := `{"id":"C1","ledgerId":"L1","date":"2024-01-02","kind":"dividend","foreignAmount":{"amount":10,"currency":"USD"}}` + "\n"
	if _, err := DecodeCurrencyTransactions(strings.NewReader(line)); err == nil {
		t.Fatal("DecodeCurrencyTransactions() expected an error on an unknown kind, got none")
	}
}

func TestDecodeCurrencyTransactions_SkipsBlankLines(t *testing.T) {
	input := "\n" + `{"id":"C1","ledgerId":"L1","date":"2024-01-02","kind":"deposit","foreignAmount":{"amount":10,"currency":"USD"}}` + "\n\n"
	txs, err := DecodeCurrencyTransactions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCurrencyTransactions() error = %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("decoded %d transactions, want 1", len(txs))
	}
}

func TestStockTransactionsRoundTrip(t *testing.T) {
	txs := []StockTransaction{{
		ID: "S1", PortfolioID: "P1", Date: MustParseDate("2024-02-01"),
		Ticker: "AAPL", Kind: Buy, Shares: Q(10.5),
		PricePerShare: M(50, "USD"), Fees: M(5, "USD"),
		Market: MarketUS, BalanceAction: BalanceMargin,
	}}

	var buf bytes.Buffer
	if err := EncodeStockTransactions(&buf, txs); err != nil {
		t.Fatalf("EncodeStockTransactions() error = %v", err)
	}
	back, err := DecodeStockTransactions(&buf)
	if err != nil {
		t.Fatalf("DecodeStockTransactions() error = %v", err)
	}
	if len(back) != 1 {
		t.Fatalf("decoded %d transactions, want 1", len(back))
	}
	got := back[0]
	if !got.Shares.Equal(Q(10.5)) {
		t.Errorf("shares = %s, want 10.5", got.Shares)
	}
	if !got.Notional().Equal(M(525, "USD")) {
		t.Errorf("notional = %s, want %s", got.Notional(), M(525, "USD"))
	}
	if got.Market != MarketUS || got.BalanceAction != BalanceMargin {
		t.Errorf("market/balance action = %s/%s, want US/margin", got.Market, got.BalanceAction)
	}
}
