package tracker

import "math"

// PeriodFlow is an external cash flow inside a return period. Amount is
// signed positive for contributions into the portfolio and negative for
// withdrawals. MarketValue optionally carries the portfolio market value at
// the end of the flow's day (after the flow); NaN when unknown.
type PeriodFlow struct {
	Date        Date
	Amount      float64
	MarketValue float64
}

// NewPeriodFlow builds a flow without a boundary valuation.
func NewPeriodFlow(on Date, amount float64) PeriodFlow {
	return PeriodFlow{Date: on, Amount: amount, MarketValue: math.NaN()}
}

// ModifiedDietz computes the money-weighted return approximation over
// [begin, end], as a percentage.
//
//	return = (EV - BV - sum CF_i) / (BV + sum CF_i * w_i)
//	w_i    = (totalDays - daysFromStart_i) / totalDays
//
// A denominator of zero or less yields Undefined, not infinity and not zero.
// With no intervening flow it reduces to the simple return (EV-BV)/BV.
func ModifiedDietz(begin, end Date, beginValue, endValue float64, flows []PeriodFlow) Percent {
	totalDays := float64(end.Sub(begin))
	if totalDays <= 0 {
		return Undefined
	}

	var netFlow, weightedFlow float64
	for _, f := range flows {
		netFlow += f.Amount
		weight := (totalDays - float64(f.Date.Sub(begin))) / totalDays
		weightedFlow += f.Amount * weight
	}

	denominator := beginValue + weightedFlow
	if denominator <= 0 {
		return Undefined
	}
	return Percent((endValue - beginValue - netFlow) / denominator * 100)
}

// TimeWeightedReturn computes the return over [begin, end] with the effect of
// cash-flow timing neutralized, as a percentage.
//
// The period is partitioned at every external cash-flow date. Each
// sub-period return is (marketValueAtSubEnd - cashFlowAtBoundary) /
// marketValueAtSubStart - 1 and the sub-period returns are compounded
// multiplicatively. A sub-period with a zero or negative starting value
// yields Undefined for the whole metric: there is no geometric link through a
// degenerate segment.
//
// When a flow does not carry a boundary valuation, the boundary value is
// taken as the previous boundary value plus the flow, which attributes all
// market movement to the last sub-period with a known end value. With no
// intervening flow the metric reduces to the simple return (EV-BV)/BV.
func TimeWeightedReturn(begin, end Date, beginValue, endValue float64, flows []PeriodFlow) Percent {
	growth := 1.0
	subStart := beginValue
	for _, f := range flows {
		if subStart <= 0 {
			return Undefined
		}
		subEnd := f.MarketValue
		if math.IsNaN(subEnd) {
			subEnd = subStart + f.Amount
		}
		growth *= (subEnd - f.Amount) / subStart
		subStart = subEnd
	}
	if subStart <= 0 {
		return Undefined
	}
	growth *= endValue / subStart
	return Percent((growth - 1) * 100)
}
