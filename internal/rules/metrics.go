package rules

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "flowguide"

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	evaluations *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheSize   *prometheus.GaugeVec
	warnings    prometheus.Histogram
	duration    prometheus.Histogram
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: metricsSubsystem,
				Name:      "evaluations_total",
				Help:      "Count of selection evaluations by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: metricsSubsystem,
				Name:      "cache_hits_total",
				Help:      "Count of status evaluations served from the result cache.",
			},
		),
		cacheSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: metricsSubsystem,
				Name:      "cache_entries",
				Help:      "Status reports held by the result cache, and its capacity.",
			},
			[]string{"kind"},
		),
		warnings: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: metricsSubsystem,
				Name:      "warnings_per_evaluation",
				Help:      "Distribution of global constraint warnings per status evaluation.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: metricsSubsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent computing uncached status reports.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.evaluations, m.cacheHits, m.cacheSize, m.warnings, m.duration)
	}
	return m
}

func outcome(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func (m *Metrics) observeGate(valid bool) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues("gate", outcome(valid)).Inc()
}

func (m *Metrics) observeStatus(r *Report, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues("status", outcome(r.Complete)).Inc()
	m.warnings.Observe(float64(len(r.Warnings)))
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) observeCache(stats CacheStats) {
	if m == nil {
		return
	}
	m.cacheSize.WithLabelValues("live").Set(float64(stats.Entries))
	m.cacheSize.WithLabelValues("capacity").Set(float64(stats.Capacity))
}
