package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Metrics holds process counters for the automation core. It is
// constructed once in main and passed by reference to every consumer;
// there is no package-level instance.
type Metrics struct {
	mu sync.RWMutex

	// Rule engine
	RulesEvaluatedTotal int64
	RulesMatchedTotal   int64
	RulesSkippedTotal   int64
	AssignmentsTotal    int64

	// Message dispatcher
	EmailsSentTotal       int64
	EmailsFailedTotal     int64
	FallbackAttemptsTotal int64

	// Channel tests
	ChannelTestsTotal        int64
	ChannelTestFailuresTotal int64

	// Object storage
	SignedURLsIssuedTotal  int64
	DownloadsStreamedTotal int64

	startTime time.Time
}

// New creates an empty metrics instance
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) RecordRuleEvaluated() { m.add(&m.RulesEvaluatedTotal) }
func (m *Metrics) RecordRuleMatched()   { m.add(&m.RulesMatchedTotal) }
func (m *Metrics) RecordRuleSkipped()   { m.add(&m.RulesSkippedTotal) }
func (m *Metrics) RecordAssignment()    { m.add(&m.AssignmentsTotal) }

func (m *Metrics) RecordEmailSent()       { m.add(&m.EmailsSentTotal) }
func (m *Metrics) RecordEmailFailed()     { m.add(&m.EmailsFailedTotal) }
func (m *Metrics) RecordFallbackAttempt() { m.add(&m.FallbackAttemptsTotal) }

// RecordChannelTest records one connection test and its outcome
func (m *Metrics) RecordChannelTest(success bool) {
	m.mu.Lock()
	m.ChannelTestsTotal++
	if !success {
		m.ChannelTestFailuresTotal++
	}
	m.mu.Unlock()
}

func (m *Metrics) RecordSignedURLIssued()  { m.add(&m.SignedURLsIssuedTotal) }
func (m *Metrics) RecordDownloadStreamed() { m.add(&m.DownloadsStreamedTotal) }

func (m *Metrics) add(field *int64) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

// Snapshot returns the current counter values
func (m *Metrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]any{
		"rules_evaluated_total":       m.RulesEvaluatedTotal,
		"rules_matched_total":         m.RulesMatchedTotal,
		"rules_skipped_total":         m.RulesSkippedTotal,
		"assignments_total":           m.AssignmentsTotal,
		"emails_sent_total":           m.EmailsSentTotal,
		"emails_failed_total":         m.EmailsFailedTotal,
		"fallback_attempts_total":     m.FallbackAttemptsTotal,
		"channel_tests_total":         m.ChannelTestsTotal,
		"channel_test_failures_total": m.ChannelTestFailuresTotal,
		"signed_urls_issued_total":    m.SignedURLsIssuedTotal,
		"downloads_streamed_total":    m.DownloadsStreamedTotal,
		"uptime_seconds":              time.Since(m.startTime).Seconds(),
	}
}

// Handler serves the metrics snapshot as JSON
func (m *Metrics) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
