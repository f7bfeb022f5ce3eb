package metrics

import (
	"sync"
	"time"
)

// Metrics collects per-run pipeline counters. Exposed over the monitoring
// endpoint when enabled.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedErrors         int64
	EntriesCollected   int64
	DuplicatesFiltered int64
	ArticlesDropped    int64
	SummariesGenerated int64
	SummaryFallbacks   int64
	ArticlesPublished  int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedErrors++
}

func (m *Metrics) AddEntriesCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesCollected += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementArticlesDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesDropped++
}

func (m *Metrics) IncrementSummariesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementSummaryFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryFallbacks++
}

func (m *Metrics) SetArticlesPublished(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesPublished = int64(n)
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":        m.FeedsFetched,
		"feed_errors":          m.FeedErrors,
		"entries_collected":    m.EntriesCollected,
		"duplicates_filtered":  m.DuplicatesFiltered,
		"articles_dropped":     m.ArticlesDropped,
		"summaries_generated":  m.SummariesGenerated,
		"summary_fallbacks":    m.SummaryFallbacks,
		"articles_published":   m.ArticlesPublished,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
