package tracker

import (
	"math"
	"testing"
)

func TestXirr_Undefined(t *testing.T) {
	tests := []struct {
		name  string
		flows []CashFlow
	}{
		{"no flows", nil},
		{"single flow", []CashFlow{{MustParseDate("2024-01-01"), -1000}}},
		{"all negative", []CashFlow{
			{MustParseDate("2024-01-01"), -1000},
			{MustParseDate("2024-06-01"), -500},
		}},
		{"all positive", []CashFlow{
			{MustParseDate("2024-01-01"), 1000},
			{MustParseDate("2024-06-01"), 500},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Xirr(tt.flows); got.IsDefined() {
				t.Errorf("Xirr() = %s, want undefined", got)
			}
		})
	}
}

func TestXirr_OneYearGain(t *testing.T) {
	// Exactly 365 days apart, so the day-count basis gives one full year.
	flows := []CashFlow{
		{MustParseDate("2021-01-01"), -1000},
		{MustParseDate("2022-01-01"), 1100},
	}
	got := Xirr(flows)
	if !got.Equal(Percent(10)) {
		t.Errorf("Xirr() = %s, want 10.00%%", got)
	}
}

func TestXirr_TwoYearCompounded(t *testing.T) {
	// 1000 * 1.1^2 = 1210 over 730 days.
	flows := []CashFlow{
		{MustParseDate("2021-01-01"), -1000},
		{MustParseDate("2023-01-01"), 1210},
	}
	got := Xirr(flows)
	if !got.Equal(Percent(10)) {
		t.Errorf("Xirr() = %s, want 10.00%%", got)
	}
}

func TestXirr_OrderIndependent(t *testing.T) {
	a := Xirr([]CashFlow{
		{MustParseDate("2021-01-01"), -1000},
		{MustParseDate("2021-07-01"), -500},
		{MustParseDate("2022-01-01"), 1650},
	})
	b := Xirr([]CashFlow{
		{MustParseDate("2022-01-01"), 1650},
		{MustParseDate("2021-07-01"), -500},
		{MustParseDate("2021-01-01"), -1000},
	})
	if !a.Equal(b) {
		t.Errorf("Xirr() depends on flow order: %s vs %s", a, b)
	}
}

func TestXirr_DeepLossFallsBackToBisection(t *testing.T) {
	// Newton from 0.1 overshoots below -1 on this series; bisection must
	// still find the root at -99%.
	flows := []CashFlow{
		{MustParseDate("2021-01-01"), -1000},
		{MustParseDate("2022-01-01"), 10},
	}
	got := Xirr(flows)
	if !got.IsDefined() {
		t.Fatal("Xirr() undefined, want -99%")
	}
	if math.Abs(float64(got)+99) > 0.01 {
		t.Errorf("Xirr() = %s, want -99.00%%", got)
	}
}

func TestXirr_NoRootIsUndefined(t *testing.T) {
	// The NPV of this series is negative for every rate in the bracket, so
	// neither solver can converge and the result must be undefined rather
	// than an extrapolated rate.
	flows := []CashFlow{
		{MustParseDate("2021-01-01"), -1000},
		{MustParseDate("2022-01-01"), 2000},
		{MustParseDate("2023-01-01"), -1500},
	}
	if got := Xirr(flows); got.IsDefined() {
		t.Errorf("Xirr() = %s, want undefined", got)
	}
}
