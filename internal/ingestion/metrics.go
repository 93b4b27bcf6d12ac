package ingestion

import (
	"sync"
	"time"
)

// IngestMetrics is a point-in-time copy of the processor counters.
type IngestMetrics struct {
	MessagesReceived      int64
	MessagesProcessed     int64
	MessagesFailed        int64
	MessagesDropped       int64
	LastProcessedAt       time.Time
	AverageProcessingTime time.Duration
}

// MetricsTracker accumulates processor counters. Prometheus carries the
// same outcomes per kind; the tracker keeps process totals for shutdown
// logs and tests.
type MetricsTracker struct {
	mu      sync.Mutex
	metrics IngestMetrics
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

func (t *MetricsTracker) received() {
	t.mu.Lock()
	t.metrics.MessagesReceived++
	t.mu.Unlock()
}

func (t *MetricsTracker) dropped() {
	t.mu.Lock()
	t.metrics.MessagesDropped++
	t.mu.Unlock()
}

func (t *MetricsTracker) failed() {
	t.mu.Lock()
	t.metrics.MessagesFailed++
	t.mu.Unlock()
}

// processed folds elapsed into an exponential average weighted 1/2.
func (t *MetricsTracker) processed(at time.Time, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := &t.metrics
	m.MessagesProcessed++
	m.LastProcessedAt = at
	if m.AverageProcessingTime == 0 {
		m.AverageProcessingTime = elapsed
		return
	}
	m.AverageProcessingTime = (m.AverageProcessingTime + elapsed) / 2
}

func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}
