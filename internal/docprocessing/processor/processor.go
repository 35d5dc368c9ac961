package processor

import (
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

// Extraction is the raw output of an extractor, before validation.
type Extraction struct {
	Record domain.Record
	// MRZ is the raw machine-readable zone, identity cards only.
	MRZ string
	// Text is the OCR text the record was extracted from.
	Text string
}

// Processor defines the extract, validate and escalate phases for one
// document type. Implementations are pure: no I/O, no shared state.
type Processor interface {
	// CanProcess returns true if this processor handles the given document type
	CanProcess(docType domain.DocumentType) bool

	// Extract builds a structured record from OCR text. It never fails;
	// unreadable fields are left nil.
	Extract(text string) *Extraction

	// Validate checks an extracted record and builds the final result.
	// The record is owned by the returned result afterwards.
	Validate(ex *Extraction, engine string, engineConfidence float64) *domain.ValidationResult

	// ShouldEscalate decides whether a costlier OCR engine should be tried.
	ShouldEscalate(ex *Extraction, engineConfidence float64) domain.Decision

	// Name returns the processor name for logging/audit
	Name() string
}

// Option configures a processor.
type Option func(*clock)

type clock struct {
	now func() time.Time
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithClock overrides the reference time used for date checks.
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

// Registry holds all registered processors and dispatches to the right one
type Registry struct {
	processors []Processor
}

// NewRegistry creates a new processor registry
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// DefaultRegistry registers the identity, tax-card and permit processors.
func DefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(
		NewIdentityProcessor(opts...),
		NewTaxCardProcessor(opts...),
		NewPermitProcessor(opts...),
	)
}

// FindProcessor returns the first processor that can handle the given document type
func (r *Registry) FindProcessor(docType domain.DocumentType) Processor {
	for _, p := range r.processors {
		if p.CanProcess(docType) {
			return p
		}
	}
	return nil
}

// Process runs extract and validate in one step.
func Process(p Processor, text, engine string, engineConfidence float64) *domain.ValidationResult {
	return p.Validate(p.Extract(text), engine, engineConfidence)
}

// resultMessage prefixes the outcome message with the engine name.
func resultMessage(engine, msg string) string {
	return "[" + engine + "] " + msg
}

func today(now time.Time) string {
	return now.Format("2006-01-02")
}
