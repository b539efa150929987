package tracker

import (
	"testing"
	"time"
)

func TestPerformanceCache(t *testing.T) {
	pc := NewPerformanceCache(time.Minute)

	if _, ok := pc.Get("P1", 2023); ok {
		t.Fatal("Get() on an empty cache returned a hit")
	}

	perf := &YearPerformance{Year: 2023, EndValueHome: 11000}
	pc.Put("P1", 2023, perf)
	pc.Put("P1", 2022, &YearPerformance{Year: 2022})
	pc.Put("P2", 2023, &YearPerformance{Year: 2023})

	got, ok := pc.Get("P1", 2023)
	if !ok || got.EndValueHome != 11000 {
		t.Fatalf("Get() = %v, %v, want the cached report", got, ok)
	}

	pc.Invalidate("P1")
	if _, ok := pc.Get("P1", 2023); ok {
		t.Error("Get() after Invalidate() returned a hit for 2023")
	}
	if _, ok := pc.Get("P1", 2022); ok {
		t.Error("Get() after Invalidate() returned a hit for 2022")
	}
	if _, ok := pc.Get("P2", 2023); !ok {
		t.Error("Invalidate() must not touch other portfolios")
	}
}

func TestPerformanceCache_TradeHook(t *testing.T) {
	pc := NewPerformanceCache(time.Minute)
	pc.Put("P1", 2023, &YearPerformance{Year: 2023})

	hook := pc.TradeHook()
	hook(TradeResult{Stock: StockTransaction{ID: "S1", PortfolioID: "P1"}})

	if _, ok := pc.Get("P1", 2023); ok {
		t.Error("the trade hook must invalidate the portfolio's cached years")
	}

	// A delete notification carries no portfolio id and must be a no-op.
	pc.Put("P2", 2023, &YearPerformance{Year: 2023})
	hook(TradeResult{Stock: StockTransaction{ID: "S2"}})
	if _, ok := pc.Get("P2", 2023); !ok {
		t.Error("a hook without a portfolio id must not drop unrelated entries")
	}
}
