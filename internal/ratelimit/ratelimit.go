package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
)

// Budget caps how many AI requests a single run may issue, per provider and
// in total. Hosted endpoints bill per request; a runaway batch should degrade
// to fallback summaries instead of burning the quota.
type Budget struct {
	mu         sync.Mutex
	maxPerName int
	maxTotal   int
	used       map[string]int
	total      int
	fallbacks  int
}

// NewBudget creates a request budget. A limit of 0 means unlimited.
func NewBudget(maxPerName, maxTotal int) *Budget {
	return &Budget{
		maxPerName: maxPerName,
		maxTotal:   maxTotal,
		used:       make(map[string]int),
	}
}

// Use reserves one request slot for the named provider, or reports that the
// budget is exhausted.
func (b *Budget) Use(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxPerName > 0 && b.used[name] >= b.maxPerName {
		return fmt.Errorf("request budget for %s exhausted (%d/%d)", name, b.used[name], b.maxPerName)
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		return fmt.Errorf("total AI request budget exhausted (%d/%d)", b.total, b.maxTotal)
	}

	b.used[name]++
	b.total++
	return nil
}

// RecordFallback counts an article that got a truncation summary instead of
// an AI one.
func (b *Budget) RecordFallback() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallbacks++
}

func (b *Budget) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  b.total,
		"total_limit": b.maxTotal,
		"fallbacks":   b.fallbacks,
	}
	for name, n := range b.used {
		stats["used_"+name] = n
	}
	return stats
}

// LogStats writes the current usage to the log, once per run.
func (b *Budget) LogStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slog.Info("AI request budget",
		"total_used", b.total,
		"total_limit", b.maxTotal,
		"fallbacks", b.fallbacks)
}
