package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncrementEscalation_StripsScore(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncrementEscalation("dni", "confidence_baixa:42")
	m.IncrementEscalation("dni", "confidence_baixa:12")
	m.IncrementEscalation("dni", "nom_absent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EscalationsTotal.WithLabelValues("dni", "confidence_baixa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalationsTotal.WithLabelValues("dni", "nom_absent")))
}

func TestObserveAttemptAndVerdict(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveAttempt("tesseract", "timeout", time.Now())
	m.ObserveVerdict("nif", true, 87)
	m.ObserveVerdict("nif", false, 30)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OCRAttemptsTotal.WithLabelValues("tesseract", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("nif", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("nif", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ConfidenceScore))
}
