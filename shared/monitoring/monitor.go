package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the analyses counter.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string

	analyses     *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	degradations *prometheus.CounterVec
}

// NewMonitor registers the analysis collectors with reg.
func NewMonitor(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idea_stack_analyses_total",
			Help: "Channel analyses by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idea_stack_stage_duration_seconds",
			Help:    "Latency of each analysis stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idea_stack_auxiliary_degraded_total",
			Help: "Auxiliary lookups that returned nothing, by source.",
		}, []string{"source"}),
	}

	reg.MustRegister(m.analyses, m.stageLatency, m.degradations)
	return m
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.analyses.WithLabelValues(OutcomeSuccess, "").Inc()
	log.Printf("✅ Analysis completed successfully - %s (took %v)", summary, duration)
}

// RecordDegraded notes an auxiliary source that contributed nothing. Health is unchanged.
func (m *Monitor) RecordDegraded(source string, reason error) {
	m.degradations.WithLabelValues(source).Inc()
	log.Printf("⚠️  Warning: %s unavailable: %v", source, reason)
}

// RecordFailure marks the service unhealthy until the next successful analysis.
func (m *Monitor) RecordFailure(kind string, err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.analyses.WithLabelValues(OutcomeFailure, kind).Inc()
	log.Printf("🚨 ANALYSIS FAILED (%s): %s (Duration: %v)", kind, err.Error(), duration)
}

// RecordRejected counts a request refused before any upstream call. Health is unchanged.
func (m *Monitor) RecordRejected(kind string, err error) {
	m.analyses.WithLabelValues(OutcomeRejected, kind).Inc()
	log.Printf("Request rejected (%s): %v", kind, err)
}

func (m *Monitor) ObserveStage(stage string, duration time.Duration) {
	m.stageLatency.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No analyses yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last analysis: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("❌ Last analysis failed: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
