package tracker

import (
	"fmt"
	"sort"
)

// PriceInput is a caller-supplied valuation pair: a price in the security's
// trade currency and the exchange rate to the home currency on the same date.
// Prices always come from an external market-data collaborator; the core
// never fetches them itself.
type PriceInput struct {
	Price        float64 `json:"price"`
	ExchangeRate float64 `json:"exchangeRate"`
}

// PriceTable maps tickers to their valuation inputs on one boundary date.
type PriceTable map[string]PriceInput

// PriceBook carries every externally sourced valuation input needed for one
// performance query.
type PriceBook struct {
	YearStart PriceTable `json:"yearStartPrices"`
	YearEnd   PriceTable `json:"yearEndPrices"`
	Current   PriceTable `json:"currentPrices,omitempty"`
	// FxRates converts cash balances to the home currency, keyed by currency
	// code. A missing rate for a non-home currency is reported as a gap.
	FxRates map[string]float64 `json:"fxRates,omitempty"`
}

// MissingPriceType tells which boundary valuation a gap refers to.
type MissingPriceType string

const (
	PriceYearStart MissingPriceType = "YearStart"
	PriceYearEnd   MissingPriceType = "YearEnd"
)

// MissingPrice records a valuation input the caller must resolve. The
// affected position is excluded from the valuation rather than valued at
// zero; gaps never make the whole computation fail.
type MissingPrice struct {
	Ticker    string           `json:"ticker"`
	PriceType MissingPriceType `json:"priceType"`
	Market    Market           `json:"market,omitempty"`
}

// YearPerformance is the result of a performance query for one year.
type YearPerformance struct {
	Year                          int            `json:"year"`
	StartValueSource              float64        `json:"startValueSource"`
	StartValueHome                float64        `json:"startValueHome"`
	EndValueSource                float64        `json:"endValueSource"`
	EndValueHome                  float64        `json:"endValueHome"`
	NetContributionsSource        float64        `json:"netContributionsSource"`
	NetContributionsHome          float64        `json:"netContributionsHome"`
	XirrPercentage                Percent        `json:"xirrPercentage"`
	ModifiedDietzPercentage       Percent        `json:"modifiedDietzPercentage"`
	TimeWeightedReturnPercentage  Percent        `json:"timeWeightedReturnPercentage"`
	TransactionCount              int            `json:"transactionCount"`
	CashFlowCount                 int            `json:"cashFlowCount"`
	EarliestTransactionDateInYear Date           `json:"earliestTransactionDateInYear,omitzero"`
	MissingPrices                 []MissingPrice `json:"missingPrices"`
}

// externalFlowDirection classifies a ledger entry as an external cash flow of
// the portfolio. Entries derived from trades are internal shifts between cash
// and stock and never count; income and expense entries are performance, not
// flows.
func externalFlowDirection(t CurrencyTransaction) (int, bool) {
	if t.Locked() {
		return 0, false
	}
	switch t.Kind {
	case KindDeposit, KindInitialBalance, KindExchangeBuy:
		return +1, true
	case KindWithdraw, KindExchangeSell, KindSpend:
		return -1, true
	default:
		return 0, false
	}
}

// perfSeries is the single-currency input shared by the per-portfolio and the
// aggregate calculators: boundary valuations plus the ordered external flows
// in between. Deriving every metric from one series keeps an aggregate over a
// single active portfolio numerically identical to that portfolio's own
// result.
type perfSeries struct {
	begin, end           Date
	startValue, endValue float64
	flows                []PeriodFlow
}

func (s *perfSeries) netContributions() float64 {
	var net float64
	for _, f := range s.flows {
		net += f.Amount
	}
	return net
}

func (s *perfSeries) xirr() Percent {
	flows := make([]CashFlow, 0, len(s.flows)+2)
	flows = append(flows, CashFlow{Date: s.begin, Amount: -s.startValue})
	for _, f := range s.flows {
		// Investor perspective: a contribution is money paid in.
		flows = append(flows, CashFlow{Date: f.Date, Amount: -f.Amount})
	}
	flows = append(flows, CashFlow{Date: s.end, Amount: s.endValue})
	return Xirr(flows)
}

func (s *perfSeries) modifiedDietz() Percent {
	return ModifiedDietz(s.begin, s.end, s.startValue, s.endValue, s.flows)
}

func (s *perfSeries) timeWeightedReturn() Percent {
	return TimeWeightedReturn(s.begin, s.end, s.startValue, s.endValue, s.flows)
}

// PortfolioYearInput bundles everything the calculators need for one
// portfolio: its entities, its transaction history and the externally
// sourced price inputs.
type PortfolioYearInput struct {
	Portfolio Portfolio
	Ledger    CurrencyLedger
	StockTxs  []StockTransaction    // sorted by date asc, ties in insertion order
	LedgerTxs []CurrencyTransaction // sorted by date asc, ties in insertion order
	Prices    PriceBook
}

// CalculateYearPerformance computes the year performance of a single
// portfolio in its trade currency and its home currency.
func CalculateYearPerformance(year int, in PortfolioYearInput) (*YearPerformance, error) {
	if in.Portfolio.LedgerID != in.Ledger.ID {
		return nil, fmt.Errorf("ledger %q is not bound to portfolio %q", in.Ledger.ID, in.Portfolio.ID)
	}

	begin, end := StartOfYear(year), EndOfYear(year)
	result := &YearPerformance{Year: year, MissingPrices: []MissingPrice{}}

	v, err := newYearValuer(in, year)
	if err != nil {
		return nil, err
	}

	result.StartValueSource, result.StartValueHome = v.valueAt(begin.Add(-1), in.Prices.startTable(), PriceYearStart, &result.MissingPrices)
	result.EndValueSource, result.EndValueHome = v.valueAt(end, in.Prices.endTable(year), PriceYearEnd, &result.MissingPrices)

	sourceFlows, homeFlows := yearFlows(in, begin, end)

	series := perfSeries{
		begin:      begin,
		end:        end,
		startValue: result.StartValueSource,
		endValue:   result.EndValueSource,
		flows:      sourceFlows,
	}
	result.NetContributionsSource = series.netContributions()
	var homeNet float64
	for _, f := range homeFlows {
		homeNet += f.Amount
	}
	result.NetContributionsHome = homeNet

	result.XirrPercentage = series.xirr()
	result.ModifiedDietzPercentage = series.modifiedDietz()
	result.TimeWeightedReturnPercentage = series.timeWeightedReturn()

	result.CashFlowCount = len(sourceFlows)
	for _, tx := range in.StockTxs {
		if tx.Date.Before(begin) || tx.Date.After(end) {
			continue
		}
		result.TransactionCount++
		if result.EarliestTransactionDateInYear.IsZero() || tx.Date.Before(result.EarliestTransactionDateInYear) {
			result.EarliestTransactionDateInYear = tx.Date
		}
	}
	return result, nil
}

// startTable returns the table to value the year-start boundary.
func (b PriceBook) startTable() PriceTable { return b.YearStart }

// endTable returns the table to value the year-end boundary: the current
// prices for the running year, the year-end prices otherwise.
func (b PriceBook) endTable(year int) PriceTable {
	if year == Today().Year() && b.Current != nil {
		return b.Current
	}
	return b.YearEnd
}

// yearValuer values one portfolio at a boundary date from its transaction
// history and a price table.
type yearValuer struct {
	in   PortfolioYearInput
	year int
}

func newYearValuer(in PortfolioYearInput, year int) (*yearValuer, error) {
	return &yearValuer{in: in, year: year}, nil
}

// valueAt computes the portfolio value on a date in the trade currency and
// the home currency. Positions lacking a price input are excluded from the
// valuation and reported in missing; the cash balance lacking an FX rate is
// excluded from the home value only.
func (v *yearValuer) valueAt(on Date, table PriceTable, priceType MissingPriceType, missing *[]MissingPrice) (source, home float64) {
	var stockTxs []StockTransaction
	for _, tx := range v.in.StockTxs {
		if !tx.Date.After(on) {
			stockTxs = append(stockTxs, tx)
		}
	}
	var ledgerTxs []CurrencyTransaction
	for _, tx := range v.in.LedgerTxs {
		if !tx.Date.After(on) {
			ledgerTxs = append(ledgerTxs, tx)
		}
	}

	cur, homeCur := v.in.Portfolio.Currency, v.in.Portfolio.HomeCurrency

	cash, err := LedgerBalance(cur, ledgerTxs)
	if err == nil && !cash.IsZero() {
		source += cash.AsFloat()
		if rate, ok := v.cashRate(cur, homeCur); ok {
			home += cash.AsFloat() * rate
		} else {
			appendMissing(missing, MissingPrice{Ticker: cur, PriceType: priceType})
		}
	}

	positions, err := Positions(cur, homeCur, stockTxs)
	if err != nil {
		return source, home
	}
	for _, ticker := range HeldTickers(positions) {
		pos := positions[ticker]
		input, ok := table[ticker]
		if !ok || input.Price == 0 {
			appendMissing(missing, MissingPrice{Ticker: ticker, PriceType: priceType, Market: pos.Market})
			continue
		}
		value := pos.Shares.AsFloat() * input.Price
		source += value
		rate := input.ExchangeRate
		if rate == 0 {
			if cur != homeCur {
				appendMissing(missing, MissingPrice{Ticker: ticker, PriceType: priceType, Market: pos.Market})
				continue
			}
			rate = 1
		}
		home += value * rate
	}
	return source, home
}

func (v *yearValuer) cashRate(cur, homeCur string) (float64, bool) {
	if cur == homeCur {
		return 1, true
	}
	rate, ok := v.in.Prices.FxRates[cur]
	return rate, ok && rate != 0
}

// appendMissing records a gap once per ticker and boundary.
func appendMissing(missing *[]MissingPrice, gap MissingPrice) {
	for _, m := range *missing {
		if m.Ticker == gap.Ticker && m.PriceType == gap.PriceType {
			return
		}
	}
	*missing = append(*missing, gap)
}

// yearFlows extracts the external cash flows of the year from the ledger log,
// in the trade currency and in the home currency. The two series are index
// aligned and keep the ledger's date-then-insertion order.
func yearFlows(in PortfolioYearInput, begin, end Date) (source, home []PeriodFlow) {
	for _, tx := range in.LedgerTxs {
		if tx.Date.Before(begin) || tx.Date.After(end) {
			continue
		}
		dir, ok := externalFlowDirection(tx)
		if !ok {
			continue
		}
		amount := tx.ForeignAmount.AsFloat() * float64(dir)
		source = append(source, NewPeriodFlow(tx.Date, amount))

		homeAmount := amount
		switch {
		case !tx.HomeAmount.IsZero():
			homeAmount = tx.HomeAmount.AsFloat() * float64(dir)
		case !tx.ExchangeRate.IsZero():
			homeAmount = amount * tx.ExchangeRate.InexactFloat64()
		case in.Portfolio.Currency != in.Portfolio.HomeCurrency:
			if rate, ok := in.Prices.FxRates[in.Portfolio.Currency]; ok && rate != 0 {
				homeAmount = amount * rate
			}
		}
		home = append(home, NewPeriodFlow(tx.Date, homeAmount))
	}
	return source, home
}

// mergeFlows merges per-portfolio flow series into one combined timeline,
// sorted by date with the original order preserved on ties.
func mergeFlows(series ...[]PeriodFlow) []PeriodFlow {
	var merged []PeriodFlow
	for _, s := range series {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}
