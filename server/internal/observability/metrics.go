package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates counters for the matching pipeline.
type Metrics struct {
	mu sync.Mutex

	// Counters
	rankPassTotal     atomic.Int64
	rankPassFailed    atomic.Int64
	matchesRecorded   atomic.Int64
	notificationsSent atomic.Int64
	notifySkipped     atomic.Int64
	notifyFailed      atomic.Int64
	providerFailed    atomic.Int64

	// Strategy-specific metrics
	strategyMetrics map[string]*StrategyMetrics

	// Pass duration samples, newest-last
	durations    []time.Duration
	maxDurations int
}

// StrategyMetrics represents counters for one scoring strategy.
type StrategyMetrics struct {
	passCount     atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		strategyMetrics: make(map[string]*StrategyMetrics),
		durations:       make([]time.Duration, 0, maxDurations),
		maxDurations:    maxDurations,
	}
}

// Global metrics instance.
var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRankPass records one ranking pass.
func (m *Metrics) RecordRankPass(strategy string) {
	m.rankPassTotal.Add(1)
	m.getStrategyMetrics(strategy).passCount.Add(1)
}

// RecordRankFailure records a failed ranking pass.
func (m *Metrics) RecordRankFailure(strategy string) {
	m.rankPassFailed.Add(1)
	m.getStrategyMetrics(strategy).errorCount.Add(1)
}

// RecordPassDuration records how long one ranking pass took.
func (m *Metrics) RecordPassDuration(strategy string, duration time.Duration) {
	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()

	m.getStrategyMetrics(strategy).totalDuration.Add(duration.Milliseconds())
}

// RecordMatches records how many matches a pass persisted.
func (m *Metrics) RecordMatches(count int) {
	m.matchesRecorded.Add(int64(count))
}

// RecordNotificationSent records one delivered notification.
func (m *Metrics) RecordNotificationSent() {
	m.notificationsSent.Add(1)
}

// RecordNotificationSkipped records a notification skipped for a
// non-contactable reporter.
func (m *Metrics) RecordNotificationSkipped() {
	m.notifySkipped.Add(1)
}

// RecordNotificationFailure records a failed delivery attempt.
func (m *Metrics) RecordNotificationFailure() {
	m.notifyFailed.Add(1)
}

// RecordProviderFailure records a failed embedding provider call.
func (m *Metrics) RecordProviderFailure() {
	m.providerFailed.Add(1)
}

// GetRankPassTotal returns the total number of ranking passes.
func (m *Metrics) GetRankPassTotal() int64 {
	return m.rankPassTotal.Load()
}

// GetMatchesRecorded returns the total number of persisted matches.
func (m *Metrics) GetMatchesRecorded() int64 {
	return m.matchesRecorded.Load()
}

// GetNotificationsSent returns the total number of delivered notifications.
func (m *Metrics) GetNotificationsSent() int64 {
	return m.notificationsSent.Load()
}

func (m *Metrics) getStrategyMetrics(strategy string) *StrategyMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.strategyMetrics[strategy]
	if !ok {
		sm = &StrategyMetrics{}
		m.strategyMetrics[strategy] = sm
	}
	return sm
}

// GetAverageDuration returns the average pass duration in milliseconds for
// a strategy.
func (m *Metrics) GetAverageDuration(strategy string) int64 {
	sm := m.getStrategyMetrics(strategy)
	count := sm.passCount.Load()
	if count == 0 {
		return 0
	}
	return sm.totalDuration.Load() / count
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.rankPassTotal.Store(0)
	m.rankPassFailed.Store(0)
	m.matchesRecorded.Store(0)
	m.notificationsSent.Store(0)
	m.notifySkipped.Store(0)
	m.notifyFailed.Store(0)
	m.providerFailed.Store(0)

	m.mu.Lock()
	m.strategyMetrics = make(map[string]*StrategyMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time snapshot of the counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategySnapshots := make(map[string]*StrategyMetricsSnapshot, len(m.strategyMetrics))
	for strategy, sm := range m.strategyMetrics {
		count := sm.passCount.Load()
		var average int64
		if count > 0 {
			average = sm.totalDuration.Load() / count
		}
		strategySnapshots[strategy] = &StrategyMetricsSnapshot{
			PassCount:       count,
			TotalDuration:   sm.totalDuration.Load(),
			ErrorCount:      sm.errorCount.Load(),
			AverageDuration: average,
		}
	}

	return &MetricsSnapshot{
		RankPassTotal:     m.rankPassTotal.Load(),
		RankPassFailed:    m.rankPassFailed.Load(),
		MatchesRecorded:   m.matchesRecorded.Load(),
		NotificationsSent: m.notificationsSent.Load(),
		NotifySkipped:     m.notifySkipped.Load(),
		NotifyFailed:      m.notifyFailed.Load(),
		ProviderFailed:    m.providerFailed.Load(),
		StrategyMetrics:   strategySnapshots,
		DurationCount:     len(m.durations),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RankPassTotal     int64
	RankPassFailed    int64
	MatchesRecorded   int64
	NotificationsSent int64
	NotifySkipped     int64
	NotifyFailed      int64
	ProviderFailed    int64
	StrategyMetrics   map[string]*StrategyMetricsSnapshot
	DurationCount     int
}

// StrategyMetricsSnapshot represents counters for one scoring strategy.
type StrategyMetricsSnapshot struct {
	PassCount       int64
	TotalDuration   int64
	ErrorCount      int64
	AverageDuration int64
}

// SuccessRate returns the ranking pass success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RankPassTotal == 0 {
		return 100.0
	}
	return float64(s.RankPassTotal-s.RankPassFailed) / float64(s.RankPassTotal) * 100.0
}
