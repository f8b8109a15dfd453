package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ChecksPerformed      int64
	VerdictCounts        map[string]int64
	ImagesAnalyzed       int64
	HeadlinesServed      int64
	FetchFailures        int64
	SummariesGenerated   int64
	SummaryFailures      int64
	CacheHits            int64
	DuplicatesFiltered   int64
	TelegramMessagesSent int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	StartTime     time.Time
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{
		IsHealthy:     true,
		VerdictCounts: make(map[string]int64),
		StartTime:     time.Now(),
	}
}

func (m *Metrics) RecordCheck(verdict string, imageAnalyzed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChecksPerformed++
	m.VerdictCounts[verdict]++
	if imageAnalyzed {
		m.ImagesAnalyzed++
	}
}

func (m *Metrics) AddHeadlines(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeadlinesServed += int64(n)
}

func (m *Metrics) IncrementFetchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchFailures++
}

func (m *Metrics) IncrementSummaries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementSummaryFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryFailures++
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementTelegramMessagesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TelegramMessagesSent++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	verdicts := make(map[string]int64, len(m.VerdictCounts))
	for k, v := range m.VerdictCounts {
		verdicts[k] = v
	}

	stats := map[string]any{
		"checks_performed":           m.ChecksPerformed,
		"verdicts":                   verdicts,
		"images_analyzed":            m.ImagesAnalyzed,
		"headlines_served":           m.HeadlinesServed,
		"fetch_failures":             m.FetchFailures,
		"summaries_generated":        m.SummariesGenerated,
		"summary_failures":           m.SummaryFailures,
		"cache_hits":                 m.CacheHits,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"telegram_messages_sent":     m.TelegramMessagesSent,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"uptime_seconds":             int64(time.Since(m.StartTime).Seconds()),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
	if !m.LastRunTime.IsZero() {
		stats["last_run_time"] = m.LastRunTime.Format(time.RFC3339)
	}
	if !m.LastErrorTime.IsZero() {
		stats["last_error_time"] = m.LastErrorTime.Format(time.RFC3339)
	}
	return stats
}
