package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// PerformanceCache memoizes computed YearPerformance results per portfolio
// and year. It is invalidated through the trade orchestrator's post-commit
// hook, never left to drift against the transaction log.
type PerformanceCache struct {
	c *cache.Cache
}

// NewPerformanceCache creates a cache whose entries expire after ttl.
func NewPerformanceCache(ttl time.Duration) *PerformanceCache {
	return &PerformanceCache{c: cache.New(ttl, 2*ttl)}
}

func performanceKey(portfolioID string, year int) string {
	return fmt.Sprintf("%s/%d", portfolioID, year)
}

// Get returns a cached result, if any.
func (pc *PerformanceCache) Get(portfolioID string, year int) (*YearPerformance, bool) {
	v, ok := pc.c.Get(performanceKey(portfolioID, year))
	if !ok {
		return nil, false
	}
	return v.(*YearPerformance), true
}

// Put stores a computed result.
func (pc *PerformanceCache) Put(portfolioID string, year int, perf *YearPerformance) {
	pc.c.SetDefault(performanceKey(portfolioID, year), perf)
}

// Invalidate drops every cached year of one portfolio.
func (pc *PerformanceCache) Invalidate(portfolioID string) {
	prefix := portfolioID + "/"
	for key := range pc.c.Items() {
		if strings.HasPrefix(key, prefix) {
			pc.c.Delete(key)
		}
	}
}

// TradeHook returns a hook for the orchestrator that invalidates the traded
// portfolio's cached results.
func (pc *PerformanceCache) TradeHook() TradeHook {
	return func(result TradeResult) {
		if result.Stock.PortfolioID != "" {
			pc.Invalidate(result.Stock.PortfolioID)
		}
	}
}
