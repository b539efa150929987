package tracker

import "math"

// CashFlow is a dated amount used by the money-weighted return calculators.
// Amounts are signed from the investor's point of view: negative for money
// paid into the portfolio, positive for money taken out.
type CashFlow struct {
	Date   Date
	Amount float64
}

const (
	xirrInitialGuess = 0.1
	xirrMaxIter      = 100
	xirrFnTolerance  = 1e-7
	xirrRTolerance   = 1e-9
	xirrBisectLow    = -0.9999
	xirrBisectHigh   = 100.0
)

// Xirr computes the internal rate of return of cash flows occurring on
// irregular dates, as a percentage.
//
// It requires at least two cash flows with at least one negative and one
// positive amount; otherwise the result is Undefined. The day-count basis is
// actual days over 365 from the earliest cash-flow date. Newton-Raphson from
// an initial guess of 0.1 is tried first; if it fails to converge or the
// derivative degenerates, bisection on [-0.9999, 100] is used, requiring a
// sign change at the bounds. With no sign change the result is Undefined
// rather than an extrapolated rate.
func Xirr(flows []CashFlow) Percent {
	if len(flows) < 2 {
		return Undefined
	}
	var hasPositive, hasNegative bool
	for _, f := range flows {
		if f.Amount > 0 {
			hasPositive = true
		}
		if f.Amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return Undefined
	}

	earliest := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.Before(earliest) {
			earliest = f.Date
		}
	}

	// years_i = actual days / 365 from the earliest cash flow.
	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = float64(f.Date.Sub(earliest)) / 365.0
	}

	npv := func(rate float64) float64 {
		var sum float64
		for i, f := range flows {
			sum += f.Amount / math.Pow(1+rate, years[i])
		}
		return sum
	}
	dnpv := func(rate float64) float64 {
		var sum float64
		for i, f := range flows {
			if years[i] == 0 {
				continue
			}
			sum -= years[i] * f.Amount / math.Pow(1+rate, years[i]+1)
		}
		return sum
	}

	if rate, ok := newtonRaphson(npv, dnpv); ok {
		return Percent(rate * 100)
	}
	if rate, ok := bisect(npv, xirrBisectLow, xirrBisectHigh); ok {
		return Percent(rate * 100)
	}
	return Undefined
}

// newtonRaphson iterates from the fixed initial guess while the derivative is
// non-degenerate, up to the iteration bound.
func newtonRaphson(fn, derivative func(float64) float64) (float64, bool) {
	rate := xirrInitialGuess
	for i := 0; i < xirrMaxIter; i++ {
		value := fn(rate)
		if math.Abs(value) < xirrFnTolerance {
			return rate, true
		}
		slope := derivative(rate)
		if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
			return 0, false
		}
		next := rate - value/slope
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			// Left the domain of (1+r)^t; hand over to bisection.
			return 0, false
		}
		if math.Abs(next-rate) < xirrRTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

// bisect finds a root of fn on [lo, hi]. It requires a sign change at the
// bounds and never returns an unconverged estimate.
func bisect(fn func(float64) float64, lo, hi float64) (float64, bool) {
	flo, fhi := fn(lo), fn(hi)
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if flo*fhi > 0 || math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fmid := fn(mid)
		if math.Abs(fmid) < xirrFnTolerance || (hi-lo)/2 < xirrRTolerance {
			return mid, true
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, false
}
