package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	eventType string
	data      []byte
	err       error
}

func (c *capturePublisher) Publish(_ context.Context, eventType string, data any) error {
	c.eventType = eventType
	c.data, _ = json.Marshal(data)
	return c.err
}

func strp(s string) *string { return &s }

func sampleResult() *domain.ValidationResult {
	return &domain.ValidationResult{
		Valid:        false,
		Confidence:   41,
		DocumentType: domain.DocumentTypeDNI,
		Data:         &domain.IdentityRecord{NumeroDocumento: strp("12345678Z"), Nombre: strp("JUAN")},
		Alerts:       []domain.Finding{{Code: "DNI_UNDERAGE", Severity: domain.SeverityWarning}},
		Errors:       []domain.Finding{{Code: "DNI_EXPIRED", Severity: domain.SeverityError}},
		Raw:          domain.NewRawOCR(domain.EngineGoogleVision, 95),
	}
}

func TestSubjectHasher(t *testing.T) {
	h, err := NewSubjectHasher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	a := h.Hash("12345678Z")
	assert.Len(t, a, 64)
	assert.Equal(t, a, h.Hash("12345678Z"), "hash must be stable")
	assert.NotEqual(t, a, h.Hash("87654321X"))
	assert.Empty(t, h.Hash(""))

	other, err := NewSubjectHasher([]byte("another-key"))
	require.NoError(t, err)
	assert.NotEqual(t, a, other.Hash("12345678Z"), "hash must depend on the key")

	var nilHasher *SubjectHasher
	assert.Empty(t, nilHasher.Hash("12345678Z"))

	_, err = NewSubjectHasher(nil)
	assert.Error(t, err)
	_, err = NewSubjectHasher([]byte(strings.Repeat("k", 65)))
	assert.Error(t, err)
}

func TestNewAuditEvent(t *testing.T) {
	h, err := NewSubjectHasher([]byte("key"))
	require.NoError(t, err)
	now := time.Date(2026, 10, 15, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	ev := NewAuditEvent(sampleResult(), domain.Decision{Escalate: true, Reason: "confidence_baixa:20"}, true, h, now)

	assert.Equal(t, domain.DocumentTypeDNI, ev.DocumentType)
	assert.Equal(t, domain.EngineGoogleVision, ev.Engine)
	assert.True(t, ev.Escalated)
	assert.Equal(t, "confidence_baixa:20", ev.EscalationReason)
	assert.Equal(t, 41, ev.Confidence)
	assert.Equal(t, []string{"DNI_UNDERAGE", "DNI_EXPIRED"}, ev.FindingCodes)
	assert.Equal(t, h.Hash("12345678Z"), ev.SubjectHash)
	assert.Equal(t, time.UTC, ev.ProcessedAt.Location())

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "12345678Z")
	assert.NotContains(t, string(raw), "JUAN")
}

func TestNewAuditEvent_NotEscalated(t *testing.T) {
	ev := NewAuditEvent(sampleResult(), domain.Decision{Reason: domain.Accepted}, false, nil, time.Now())
	assert.False(t, ev.Escalated)
	assert.Empty(t, ev.EscalationReason)
	assert.Empty(t, ev.SubjectHash)
}

func TestAMQPPublisher_PublishProcessed(t *testing.T) {
	log := logger.New("test", "test")

	t.Run("routes as document.processed", func(t *testing.T) {
		capture := &capturePublisher{}
		p := &AMQPPublisher{publisher: capture, logger: log}

		err := p.PublishProcessed(context.Background(), AuditEvent{DocumentType: domain.DocumentTypeNIF, Confidence: 80})
		require.NoError(t, err)

		assert.Equal(t, "document.processed", capture.eventType)
		var got AuditEvent
		require.NoError(t, json.Unmarshal(capture.data, &got))
		assert.Equal(t, domain.DocumentTypeNIF, got.DocumentType)
		assert.Equal(t, 80, got.Confidence)
	})

	t.Run("propagates publish errors", func(t *testing.T) {
		p := &AMQPPublisher{publisher: &capturePublisher{err: errors.New("channel closed")}, logger: log}
		err := p.PublishProcessed(context.Background(), AuditEvent{})
		assert.EqualError(t, err, "channel closed")
	})
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishProcessed(context.Background(), AuditEvent{}))
}
