package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deusflow/veritas/internal/logger"
)

// ErrBudgetExceeded is returned by Use once a provider's daily allowance is spent.
var ErrBudgetExceeded = errors.New("daily request budget exceeded")

// Budget caps daily requests per upstream provider (newsapi, gemini).
type Budget struct {
	mu        sync.Mutex
	limits    map[string]int
	used      map[string]int
	cacheHits map[string]int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
}

// NewBudget creates a daily budget. A limit of 0 means unlimited.
func NewBudget(limits map[string]int) *Budget {
	b := &Budget{
		limits:    make(map[string]int, len(limits)),
		used:      make(map[string]int),
		cacheHits: make(map[string]int),
		window:    24 * time.Hour,
		now:       time.Now,
	}
	for k, v := range limits {
		b.limits[k] = v
	}
	b.resetTime = b.now().Add(b.window)
	return b
}

// Allow reports whether the provider still has budget left without spending it.
func (b *Budget) Allow(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	max := b.limits[provider]
	return max <= 0 || b.used[provider] < max
}

// Use spends one request from the provider's budget.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	max := b.limits[provider]
	if max > 0 && b.used[provider] >= max {
		logger.Warn("rate limit reached", "provider", provider, "used", b.used[provider], "limit", max)
		return fmt.Errorf("%s: %w", provider, ErrBudgetExceeded)
	}
	b.used[provider]++
	logger.Debug("budget usage", "provider", provider, "used", b.used[provider], "limit", max)
	return nil
}

// RecordCacheHit notes a request the cache answered instead of the provider.
func (b *Budget) RecordCacheHit(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits[provider]++
}

// Stats returns per-provider usage keyed as "<provider>_used" etc.
func (b *Budget) Stats() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]any{
		"reset_time": b.resetTime.Format(time.RFC3339),
	}
	for p, limit := range b.limits {
		stats[p+"_used"] = b.used[p]
		stats[p+"_limit"] = limit
		stats[p+"_cache_hits"] = b.cacheHits[p]
	}
	return stats
}

// checkReset resets counters if reset time has passed
func (b *Budget) checkReset() {
	if b.now().After(b.resetTime) {
		logger.Info("resetting request budgets")
		b.used = make(map[string]int)
		b.cacheHits = make(map[string]int)
		b.resetTime = b.now().Add(b.window)
	}
}
