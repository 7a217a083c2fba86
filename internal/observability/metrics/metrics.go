package metrics

import "github.com/prometheus/client_golang/prometheus"

// TurnMetrics exposes counters/histograms for the conversation pipeline.
type TurnMetrics struct {
	turnsTotal         *prometheus.CounterVec
	safetyBlocksTotal  *prometheus.CounterVec
	extractionFailures prometheus.Counter
	sessionConflicts   prometheus.Counter
	handoffsTotal      prometheus.Counter
	turnLatency        *prometheus.HistogramVec
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "turns",
			Name:      "total",
			Help:      "Total processed conversation turns",
		}, []string{"intent", "status"}),
		safetyBlocksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "safety",
			Name:      "blocks_total",
			Help:      "Total messages blocked by the safety gate",
		}, []string{"direction", "fallback"}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "extraction",
			Name:      "failures_total",
			Help:      "Total turns where field extraction failed",
		}),
		sessionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "sessions",
			Name:      "conflicts_total",
			Help:      "Total optimistic-write conflicts on session saves",
		}),
		handoffsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "handoffs",
			Name:      "total",
			Help:      "Total completed sessions handed off to planning",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "turns",
			Name:      "latency_seconds",
			Help:      "End-to-end latency of turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.safetyBlocksTotal, m.extractionFailures,
		m.sessionConflicts, m.handoffsTotal, m.turnLatency)
	return m
}

func (m *TurnMetrics) ObserveTurn(intent, status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, status).Inc()
	m.turnLatency.WithLabelValues(intent).Observe(seconds)
}

func (m *TurnMetrics) ObserveSafetyBlock(direction string, fallback bool) {
	if m == nil {
		return
	}
	label := "false"
	if fallback {
		label = "true"
	}
	m.safetyBlocksTotal.WithLabelValues(direction, label).Inc()
}

func (m *TurnMetrics) ObserveExtractionFailure() {
	if m == nil {
		return
	}
	m.extractionFailures.Inc()
}

func (m *TurnMetrics) ObserveSessionConflict() {
	if m == nil {
		return
	}
	m.sessionConflicts.Inc()
}

func (m *TurnMetrics) ObserveHandoff() {
	if m == nil {
		return
	}
	m.handoffsTotal.Inc()
}
