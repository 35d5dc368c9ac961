package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document processing.
// Tracks OCR attempt latency, escalations and verdicts.
type Metrics struct {
	OCRAttemptDuration *prometheus.HistogramVec
	OCRAttemptsTotal   *prometheus.CounterVec
	EscalationsTotal   *prometheus.CounterVec
	VerdictsTotal      *prometheus.CounterVec
	ConfidenceScore    *prometheus.HistogramVec
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OCRAttemptDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ocragent_ocr_attempt_duration_seconds",
			Help:    "Duration of a single OCR engine attempt",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"engine"}),
		OCRAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ocragent_ocr_attempts_total",
			Help: "OCR engine attempts by outcome (ok, error, timeout)",
		}, []string{"engine", "outcome"}),
		EscalationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ocragent_escalations_total",
			Help: "Escalations to the costed engine by document type and reason",
		}, []string{"document_type", "reason"}),
		VerdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ocragent_verdicts_total",
			Help: "Validation verdicts by document type",
		}, []string{"document_type", "valid"}),
		ConfidenceScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ocragent_confidence_score",
			Help:    "Global confidence of returned results",
			Buckets: []float64{10, 20, 35, 50, 60, 70, 80, 90, 100},
		}, []string{"document_type"}),
	}
}

// ObserveAttempt records one engine attempt.
// Call with time.Now() at the start of the attempt.
func (m *Metrics) ObserveAttempt(engine, outcome string, start time.Time) {
	m.OCRAttemptDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	m.OCRAttemptsTotal.WithLabelValues(engine, outcome).Inc()
}

// IncrementEscalation records an escalation. Reasons carrying a score
// ("confidence_baixa:42") are counted under their prefix.
func (m *Metrics) IncrementEscalation(docType, reason string) {
	if i := strings.IndexByte(reason, ':'); i > 0 {
		reason = reason[:i]
	}
	m.EscalationsTotal.WithLabelValues(docType, reason).Inc()
}

// ObserveVerdict records the final verdict and confidence of a result.
func (m *Metrics) ObserveVerdict(docType string, valid bool, confidence int) {
	m.VerdictsTotal.WithLabelValues(docType, strconv.FormatBool(valid)).Inc()
	m.ConfidenceScore.WithLabelValues(docType).Observe(float64(confidence))
}
