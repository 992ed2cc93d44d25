package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the service's prometheus collectors.
type Manager struct {
	// counters
	CounterRequests       *prometheus.CounterVec
	CounterUploadOutcomes *prometheus.CounterVec
	CounterChatMessages   *prometheus.CounterVec

	// gauges
	GaugeLivePages prometheus.Gauge

	// histograms
	HistUploadDuration prometheus.Histogram

	Gatherer prometheus.Gatherer
}

// NewTestManager builds a manager on a private registry.
func NewTestManager() *Manager {
	return NewManager("stryde", "test", prometheus.NewRegistry())
}

// NewManager registers all collectors with reg.
func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterUploadOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upload_outcomes_total",
			Help:      "Upload submissions by outcome (success, validation, server, transport)",
		}, []string{"outcome"}),
		CounterChatMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_messages_total",
			Help:      "Chat messages appended by author role",
		}, []string{"role"}),
		GaugeLivePages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_pages",
			Help:      "Pages currently attached over a websocket",
		}),
		HistUploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upload_duration_seconds",
			Help:      "Time spent waiting on the analytics service",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Gatherer: reg,
	}
}

// UploadOutcome increments the outcome counter. Safe on a nil manager.
func (m *Manager) UploadOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CounterUploadOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveUpload records the analytics round trip. Safe on a nil manager.
func (m *Manager) ObserveUpload(seconds float64) {
	if m == nil {
		return
	}
	m.HistUploadDuration.Observe(seconds)
}

// ChatMessage increments the chat counter. Safe on a nil manager.
func (m *Manager) ChatMessage(role string) {
	if m == nil {
		return
	}
	m.CounterChatMessages.WithLabelValues(role).Inc()
}

// LivePages adjusts the live page gauge by delta. Safe on a nil manager.
func (m *Manager) LivePages(delta float64) {
	if m == nil {
		return
	}
	m.GaugeLivePages.Add(delta)
}

// Request counts one served HTTP request. Safe on a nil manager.
func (m *Manager) Request(method string, status int) {
	if m == nil {
		return
	}
	m.CounterRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
