package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/events"
	"github.com/ocragent/ocr-agent/internal/docprocessing/metrics"
	"github.com/ocragent/ocr-agent/internal/docprocessing/ocr"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
	"github.com/ocragent/ocr-agent/internal/docprocessing/storage"
	apperrors "github.com/ocragent/ocr-agent/pkg/errors"
	"github.com/ocragent/ocr-agent/pkg/logger"
	"github.com/ocragent/ocr-agent/pkg/redact"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// Engine selection for a processing request.
const (
	EngineAuto = "auto"
)

// Escalation reasons when the cheap engine produced nothing to judge.
const (
	reasonCheapUnavailable = "tesseract_no_disponible"
	reasonCheapTimeout     = "tesseract_timeout"
	reasonCheapError       = "tesseract_error"
)

// Config holds scheduling limits.
type Config struct {
	// MaxConcurrent bounds simultaneous Tesseract runs.
	MaxConcurrent int64
	// AttemptTimeout bounds a single engine attempt.
	AttemptTimeout time.Duration
}

// Dependencies are the collaborators of the service. Cheap and Costed may
// be nil when the engine is not configured.
type Dependencies struct {
	Registry  *processor.Registry
	Cheap     ocr.Engine
	Costed    ocr.Engine
	Storage   *storage.TempStorage
	Publisher events.Publisher
	Hasher    *events.SubjectHasher
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Service orchestrates document processing: OCR with the cheap engine,
// escalation to the costed one, extraction, validation and audit.
type Service struct {
	registry  *processor.Registry
	cheap     ocr.Engine
	costed    ocr.Engine
	storage   *storage.TempStorage
	publisher events.Publisher
	hasher    *events.SubjectHasher
	metrics   *metrics.Metrics
	log       *logger.Logger

	sem     *semaphore.Weighted
	timeout time.Duration
	now     func() time.Time

	// background tracks audit publishing and compare jobs
	background sync.WaitGroup
}

// NewService creates a new document processing service
func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if deps.Registry == nil {
		deps.Registry = processor.DefaultRegistry()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Service{
		registry:  deps.Registry,
		cheap:     deps.Cheap,
		costed:    deps.Costed,
		storage:   deps.Storage,
		publisher: deps.Publisher,
		hasher:    deps.Hasher,
		metrics:   deps.Metrics,
		log:       deps.Logger.WithComponent("docprocessing"),
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout:   cfg.AttemptTimeout,
		now:       time.Now,
	}
}

// Process runs OCR on image and returns the validated result for docType.
// engine is "auto", "tesseract" or "google_vision". The image is zeroed
// before Process returns.
func (s *Service) Process(ctx context.Context, image []byte, docType domain.DocumentType, engine string) (*domain.ValidationResult, error) {
	defer storage.ZeroBytes(image)

	proc := s.registry.FindProcessor(docType)
	if proc == nil {
		return nil, apperrors.BadRequest("unsupported document type: " + string(docType))
	}

	var (
		res       *domain.ValidationResult
		decision  domain.Decision
		escalated bool
		err       error
	)
	switch engine {
	case domain.EngineTesseract:
		res, err = s.single(ctx, proc, s.cheap, image)
	case domain.EngineGoogleVision:
		res, err = s.single(ctx, proc, s.costed, image)
	case EngineAuto, "":
		res, decision, escalated, err = s.auto(ctx, proc, docType, image)
	default:
		return nil, apperrors.BadRequest("unknown engine: " + engine).
			WithDetails(map[string]string{"engine": engine})
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("doc_type", string(docType)).
			Str("engine", engine).
			Msg("document processing failed")
		return nil, err
	}

	s.metrics.ObserveVerdict(string(docType), res.Valid, res.Confidence)
	s.log.Info().
		Str("doc_type", string(docType)).
		Str("subject", redact.Ptr(res.Data.SubjectID(), redact.ID)).
		Str("engine", res.Raw.Engine).
		Bool("escalated", escalated).
		Str("reason", decision.Reason).
		Bool("valid", res.Valid).
		Int("confidence", res.Confidence).
		Int("errors", len(res.Errors)).
		Int("alerts", len(res.Alerts)).
		Msg("document processed")

	s.publishAudit(ctx, res, decision, escalated)
	return res, nil
}

// single runs one named engine without fallback.
func (s *Service) single(ctx context.Context, proc processor.Processor, eng ocr.Engine, image []byte) (*domain.ValidationResult, error) {
	if eng == nil || !eng.Available(ctx) {
		return nil, apperrors.Unavailable("requested OCR engine not available")
	}
	out, err := s.attempt(ctx, eng, image)
	if err != nil {
		return nil, engineFailure(err)
	}
	return processor.Process(proc, out.Text, eng.Name(), out.Confidence), nil
}

// auto runs the cheap engine and asks the processor whether its output
// is good enough. If not, the costed engine is tried. A failed costed
// attempt falls back to the cheap result when there is one.
func (s *Service) auto(ctx context.Context, proc processor.Processor, docType domain.DocumentType, image []byte) (*domain.ValidationResult, domain.Decision, bool, error) {
	cheapOK := s.cheap != nil && s.cheap.Available(ctx)
	costedOK := s.costed != nil && s.costed.Available(ctx)
	if !cheapOK && !costedOK {
		return nil, domain.Decision{}, false, apperrors.Unavailable("no OCR engine available")
	}

	var (
		cheapRes *domain.ValidationResult
		cheapErr error
		decision = domain.Decision{Escalate: true, Reason: reasonCheapUnavailable}
	)
	if cheapOK {
		out, err := s.attempt(ctx, s.cheap, image)
		if err != nil {
			cheapErr = err
			decision.Reason = reasonCheapError
			if isTimeout(err) {
				decision.Reason = reasonCheapTimeout
			}
		} else {
			ex := proc.Extract(out.Text)
			decision = proc.ShouldEscalate(ex, out.Confidence)
			cheapRes = proc.Validate(ex, s.cheap.Name(), out.Confidence)
		}
	}

	if !decision.Escalate {
		return cheapRes, decision, false, nil
	}
	s.metrics.IncrementEscalation(string(docType), decision.Reason)

	if !costedOK {
		if cheapRes != nil {
			s.log.Debug().Str("reason", decision.Reason).Msg("escalation wanted but costed engine unavailable")
			return cheapRes, decision, false, nil
		}
		return nil, decision, false, engineFailure(cheapErr)
	}

	s.log.Info().
		Str("doc_type", string(docType)).
		Str("reason", decision.Reason).
		Msg("escalating to costed engine")

	out, err := s.attempt(ctx, s.costed, image)
	if err != nil {
		if cheapRes != nil {
			s.log.Warn().Err(err).Msg("costed engine failed, keeping cheap result")
			return cheapRes, decision, false, nil
		}
		if isTimeout(err) && cheapErr != nil && !isTimeout(cheapErr) {
			// not every engine timed out, report the cheap failure
			return nil, decision, false, apperrors.EngineFailed(cheapErr)
		}
		return nil, decision, false, engineFailure(err)
	}
	return processor.Process(proc, out.Text, s.costed.Name(), out.Confidence), decision, true, nil
}

// attempt runs one engine under the per-attempt timeout. Tesseract runs
// also take a semaphore slot; waiting for the slot counts against the
// timeout.
func (s *Service) attempt(ctx context.Context, eng ocr.Engine, image []byte) (ocr.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if eng == s.cheap {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.metrics.ObserveAttempt(eng.Name(), outcomeOf(err), start)
			return ocr.Result{}, err
		}
		defer s.sem.Release(1)
	}

	out, err := eng.Recognize(ctx, image)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.metrics.ObserveAttempt(eng.Name(), outcomeOf(err), start)
	if err != nil {
		s.log.Warn().Err(err).Str("engine", eng.Name()).Dur("elapsed", time.Since(start)).Msg("ocr attempt failed")
	}
	return out, err
}

func (s *Service) publishAudit(ctx context.Context, res *domain.ValidationResult, decision domain.Decision, escalated bool) {
	ev := events.NewAuditEvent(res, decision, escalated, s.hasher, s.now())
	ctx = context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishProcessed(ctx, ev); err != nil {
			s.log.Warn().Err(err).Msg("audit event not published")
		}
	}()
}

// Health reports engine availability.
func (s *Service) Health(ctx context.Context) map[string]bool {
	return map[string]bool{
		domain.EngineTesseract:    s.cheap != nil && s.cheap.Available(ctx),
		domain.EngineGoogleVision: s.costed != nil && s.costed.Available(ctx),
	}
}

// Wait blocks until background work (audit publishing, compare jobs)
// has finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

func engineFailure(err error) error {
	if isTimeout(err) {
		return apperrors.Timeout(err)
	}
	if errors.Is(err, ocr.ErrUnavailable) {
		return apperrors.Unavailable(err.Error())
	}
	return apperrors.EngineFailed(err)
}
