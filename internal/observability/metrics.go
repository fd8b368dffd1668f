package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "retrofit_advisor"

// Metrics holds the Prometheus counters, histograms, and gauges for the advisor.
type Metrics struct {
	// Assessment metrics.
	Assessments        *prometheus.CounterVec // labels: source={remote,fallback}
	AssessmentDuration prometheus.Histogram
	VulnerabilityScore prometheus.Histogram
	PredictorRequests  *prometheus.CounterVec   // labels: outcome={success,error}
	PredictorCache     *prometheus.CounterVec   // labels: result={hit,miss}
	PredictorDuration  prometheus.Histogram
	PredictorEnabled   prometheus.Gauge
	SupersededRuns     prometheus.Counter

	// Live dashboard metrics.
	Ticks           prometheus.Counter
	LiveHealth      prometheus.Gauge
	EmergencyActive prometheus.Gauge
	EmergencyTrips  prometheus.Counter
	SessionActive   prometheus.Gauge

	// Side-channel failures; none of these affect scoring.
	EventsPublished  prometheus.Counter
	EventsDropped    prometheus.Counter
	PersistenceError *prometheus.CounterVec // labels: store={profile,history}
}

// NewMetrics creates and registers all advisor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.Assessments,
		m.AssessmentDuration,
		m.VulnerabilityScore,
		m.PredictorRequests,
		m.PredictorCache,
		m.PredictorDuration,
		m.PredictorEnabled,
		m.SupersededRuns,
		m.Ticks,
		m.LiveHealth,
		m.EmergencyActive,
		m.EmergencyTrips,
		m.SessionActive,
		m.EventsPublished,
		m.EventsDropped,
		m.PersistenceError,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      help("Completed assessments by the analyzer that produced them."),
		}, []string{"source"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      help("End-to-end assessment duration including fallback."),
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		VulnerabilityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vulnerability_score",
			Help:      help("Distribution of assessed vulnerability scores."),
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		PredictorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictor_requests_total",
			Help:      help("Analysis service requests by outcome."),
		}, []string{"outcome"}),
		PredictorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictor_cache_total",
			Help:      help("Analysis cache lookups by result."),
		}, []string{"result"}),
		PredictorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predictor_duration_seconds",
			Help:      help("Analysis service request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PredictorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "predictor_enabled",
			Help:      help("1 when the remote analysis service is configured, 0 otherwise."),
		}),
		SupersededRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_assessments_total",
			Help:      help("Dashboard assessments discarded because a newer one started."),
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      help("Live health estimator ticks."),
		}),
		LiveHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_health_percent",
			Help:      help("Most recent live structural integrity estimate."),
		}),
		EmergencyActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emergency_active",
			Help:      help("1 while emergency mode is set."),
		}),
		EmergencyTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergency_trips_total",
			Help:      help("Automatic emergency trips."),
		}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_active",
			Help:      help("1 while the dashboard ticker is running."),
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Dashboard events written to the event stream."),
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      help("Dashboard events dropped because the outbox was full or the write failed."),
		}),
		PersistenceError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_errors_total",
			Help:      help("Failed writes to the configuration or history store."),
		}, []string{"store"}),
	}
}
