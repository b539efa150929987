package tracker

// AggregateYearPerformance merges the per-portfolio cash-flow and valuation
// series of every portfolio owned by the caller into a single aggregate view,
// expressed in the shared home currency.
//
// The aggregation sums start and end valuations and net contributions
// directly in home currency and re-derives XIRR, Modified Dietz and the
// time-weighted return from the merged cash-flow timeline; it never averages
// the portfolios' already-computed percentages, which would lose the fund-size
// weighting between portfolios. Missing valuation inputs degrade gracefully:
// the affected position is excluded and reported, and the rest of the
// aggregate is still computed.
func AggregateYearPerformance(year int, inputs []PortfolioYearInput) (*YearPerformance, error) {
	begin, end := StartOfYear(year), EndOfYear(year)
	result := &YearPerformance{Year: year, MissingPrices: []MissingPrice{}}

	series := perfSeries{begin: begin, end: end}
	var flowSeries [][]PeriodFlow

	for _, in := range inputs {
		single, err := CalculateYearPerformance(year, in)
		if err != nil {
			return nil, err
		}

		series.startValue += single.StartValueHome
		series.endValue += single.EndValueHome

		_, homeFlows := yearFlows(in, begin, end)
		flowSeries = append(flowSeries, homeFlows)

		result.TransactionCount += single.TransactionCount
		result.CashFlowCount += single.CashFlowCount
		if !single.EarliestTransactionDateInYear.IsZero() &&
			(result.EarliestTransactionDateInYear.IsZero() ||
				single.EarliestTransactionDateInYear.Before(result.EarliestTransactionDateInYear)) {
			result.EarliestTransactionDateInYear = single.EarliestTransactionDateInYear
		}
		for _, gap := range single.MissingPrices {
			appendMissing(&result.MissingPrices, gap)
		}
	}

	series.flows = mergeFlows(flowSeries...)

	// The aggregate is denominated in the shared home currency, so the source
	// and home views coincide.
	result.StartValueSource, result.StartValueHome = series.startValue, series.startValue
	result.EndValueSource, result.EndValueHome = series.endValue, series.endValue
	net := series.netContributions()
	result.NetContributionsSource, result.NetContributionsHome = net, net

	result.XirrPercentage = series.xirr()
	result.ModifiedDietzPercentage = series.modifiedDietz()
	result.TimeWeightedReturnPercentage = series.timeWeightedReturn()
	return result, nil
}
