// Package events publishes pseudonymised audit records of processed
// documents.
package events

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/pkg/logger"
	"github.com/ocragent/ocr-agent/pkg/messaging"
	"golang.org/x/crypto/blake2b"
)

// AuditEvent is the only trace of a processed document that leaves the
// process. It carries no personal data besides a keyed hash.
type AuditEvent struct {
	DocumentType     domain.DocumentType `json:"document_type"`
	Engine           string              `json:"engine"`
	Escalated        bool                `json:"escalated"`
	EscalationReason string              `json:"escalation_reason,omitempty"`
	Valid            bool                `json:"valid"`
	Confidence       int                 `json:"confidence"`
	FindingCodes     []string            `json:"finding_codes"`
	SubjectHash      string              `json:"subject_hash,omitempty"`
	ProcessedAt      time.Time           `json:"processed_at"`
}

// Publisher emits audit events.
type Publisher interface {
	PublishProcessed(ctx context.Context, ev AuditEvent) error
}

// eventPublisher is the subset of messaging.Publisher used here.
type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// AMQPPublisher publishes audit events to RabbitMQ.
type AMQPPublisher struct {
	publisher eventPublisher
	logger    *logger.Logger
}

// NewAMQPPublisher declares the OCR exchange and returns a publisher on it.
func NewAMQPPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangeOCREvents
	}
	p, err := messaging.NewPublisher(rmq, exchange, "ocr-service", log)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{publisher: p, logger: log}, nil
}

func (p *AMQPPublisher) PublishProcessed(ctx context.Context, ev AuditEvent) error {
	if err := p.publisher.Publish(ctx, messaging.EventDocumentProcessed, ev); err != nil {
		p.logger.Error().Err(err).
			Str("document_type", string(ev.DocumentType)).
			Msg("failed to publish document processed event")
		return err
	}
	return nil
}

// NopPublisher drops every event. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishProcessed(context.Context, AuditEvent) error { return nil }

// SubjectHasher pseudonymises document numbers with keyed BLAKE2b-256.
type SubjectHasher struct {
	key []byte
}

// NewSubjectHasher returns a hasher for key, which must be 1..64 bytes.
func NewSubjectHasher(key []byte) (*SubjectHasher, error) {
	if len(key) == 0 {
		return nil, errors.New("events: empty subject hash key")
	}
	if len(key) > blake2b.Size {
		return nil, errors.New("events: subject hash key longer than 64 bytes")
	}
	return &SubjectHasher{key: append([]byte(nil), key...)}, nil
}

// Hash returns the hex digest of subject, or "" for an empty subject.
func (h *SubjectHasher) Hash(subject string) string {
	if h == nil || subject == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		return ""
	}
	mac.Write([]byte(subject))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewAuditEvent summarises a validation result.
func NewAuditEvent(res *domain.ValidationResult, decision domain.Decision, escalated bool, hasher *SubjectHasher, now time.Time) AuditEvent {
	codes := (&domain.Findings{Alerts: res.Alerts, Errors: res.Errors}).Codes()

	ev := AuditEvent{
		DocumentType: res.DocumentType,
		Engine:       res.Raw.Engine,
		Escalated:    escalated,
		Valid:        res.Valid,
		Confidence:   res.Confidence,
		FindingCodes: codes,
		SubjectHash:  hasher.Hash(subjectOf(res.Data)),
		ProcessedAt:  now.UTC(),
	}
	if escalated {
		ev.EscalationReason = decision.Reason
	}
	return ev
}

func subjectOf(rec domain.Record) string {
	if rec == nil {
		return ""
	}
	if v := rec.SubjectID(); v != nil {
		return *v
	}
	return ""
}
