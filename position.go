package tracker

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is the derived holding of a single ticker, aggregated from the
// stock-transaction stream. It is never persisted.
type Position struct {
	Ticker         string
	Market         Market
	Shares         Quantity
	CostBasis      Money // total average-cost basis, trade currency
	CostBasisHome  Money // total average-cost basis, home currency
	RealizedPL     Money // realized profit and loss on sells, trade currency
	RealizedPLHome Money
}

// AverageCost returns the weighted-average cost per share in the trade
// currency, or zero Money when no shares are held.
func (p Position) AverageCost() Money {
	if p.Shares.IsZero() {
		return M(0, p.CostBasis.Currency())
	}
	return p.CostBasis.Div(p.Shares)
}

// Positions folds an ordered stock-transaction stream into per-ticker
// positions using the weighted-average cost method. Buys add notional plus
// fees to the basis; sells realize proceeds minus fees against the average
// cost of the shares sold. Transactions must be pre-sorted by date ascending
// with ties in insertion order.
func Positions(currency, homeCurrency string, txs []StockTransaction) (map[string]*Position, error) {
	positions := make(map[string]*Position)
	for _, tx := range txs {
		pos, ok := positions[tx.Ticker]
		if !ok {
			pos = &Position{
				Ticker:         tx.Ticker,
				Market:         tx.Market,
				CostBasis:      M(0, currency),
				CostBasisHome:  M(0, homeCurrency),
				RealizedPL:     M(0, currency),
				RealizedPLHome: M(0, homeCurrency),
			}
			positions[tx.Ticker] = pos
		}

		rate := tx.ExchangeRate
		if rate.IsZero() {
			rate = decimal.NewFromInt(1)
		}

		switch tx.Kind {
		case Buy:
			cost := tx.Notional().Add(tx.Fees)
			pos.Shares = pos.Shares.Add(tx.Shares)
			pos.CostBasis = pos.CostBasis.Add(cost)
			pos.CostBasisHome = pos.CostBasisHome.Add(M(cost.Amount().Mul(rate), homeCurrency))
		case Sell:
			proceeds := tx.Notional().Sub(tx.Fees)
			if pos.Shares.IsZero() {
				// Short positions are not modelled; a sell with no holding
				// realizes the full proceeds.
				pos.RealizedPL = pos.RealizedPL.Add(proceeds)
				pos.RealizedPLHome = pos.RealizedPLHome.Add(M(proceeds.Amount().Mul(rate), homeCurrency))
				continue
			}
			costOfSale := pos.CostBasis.Mul(tx.Shares).Div(pos.Shares)
			costOfSaleHome := pos.CostBasisHome.Mul(tx.Shares).Div(pos.Shares)
			pos.RealizedPL = pos.RealizedPL.Add(proceeds.Sub(costOfSale))
			pos.RealizedPLHome = pos.RealizedPLHome.Add(M(proceeds.Amount().Mul(rate), homeCurrency).Sub(costOfSaleHome))
			pos.CostBasis = pos.CostBasis.Sub(costOfSale)
			pos.CostBasisHome = pos.CostBasisHome.Sub(costOfSaleHome)
			pos.Shares = pos.Shares.Sub(tx.Shares)
		default:
			return nil, &ValidationError{Field: "kind", Message: "unknown stock transaction kind " + string(tx.Kind)}
		}
	}
	return positions, nil
}

// HeldTickers returns the tickers with a non-zero position, sorted.
func HeldTickers(positions map[string]*Position) []string {
	var tickers []string
	for ticker, pos := range positions {
		if !pos.Shares.IsZero() {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}
