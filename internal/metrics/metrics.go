package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TemplatesProcessed   *prometheus.CounterVec
	ServiceFailures      *prometheus.CounterVec
	ComplianceViolations prometheus.Counter
	SkippedTurns         prometheus.Counter
	AnalysisDuration     prometheus.Histogram
	CaptureDuration      *prometheus.HistogramVec
	TurnAlignment        prometheus.Histogram
	HTTPRequestDuration  *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in the binaries and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TemplatesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "validator_templates_processed_total",
			Help: "Templates processed, by outcome",
		}, []string{"status"}),
		ServiceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "validator_service_failures_total",
			Help: "Embedding and entity service failures that degraded a sub-score",
		}, []string{"service"}),
		ComplianceViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "validator_compliance_violations_total",
			Help: "Prohibited phrases found in agent replies",
		}),
		SkippedTurns: f.NewCounter(prometheus.CounterOpts{
			Name: "validator_skipped_turns_total",
			Help: "Transcript turns with no matching template turn",
		}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "validator_analysis_duration_seconds",
			Help:    "Time taken to analyze one transcript",
			Buckets: prometheus.DefBuckets,
		}),
		CaptureDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "validator_capture_duration_seconds",
			Help:    "Time taken by the transcript driver",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"driver"}),
		TurnAlignment: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "validator_turn_alignment",
			Help:    "Mean theme similarity per analyzed turn",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "validator_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// ServiceFailed counts a degraded sub-score. Safe on a nil receiver.
func (m *Metrics) ServiceFailed(service string) {
	if m == nil {
		return
	}
	m.ServiceFailures.WithLabelValues(service).Inc()
}

// TemplateDone counts a finished template. Safe on a nil receiver.
func (m *Metrics) TemplateDone(status string) {
	if m == nil {
		return
	}
	m.TemplatesProcessed.WithLabelValues(status).Inc()
}
