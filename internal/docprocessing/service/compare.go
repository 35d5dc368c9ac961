package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/ocr"
	"github.com/ocragent/ocr-agent/internal/docprocessing/storage"
	apperrors "github.com/ocragent/ocr-agent/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Images are compared as uploaded.
const preprocessNone = "none"

var unavailableMessages = map[string]string{
	domain.EngineTesseract:    "Tesseract no disponible",
	domain.EngineGoogleVision: "Google Vision no disponible",
}

// StartComparison creates a comparison job and runs it in the background.
// Returns the job immediately so the caller can poll for results. The
// image is zeroed once every engine has finished with it.
func (s *Service) StartComparison(ctx context.Context, image []byte, engines []string) (*domain.ComparisonJob, error) {
	if s.storage == nil {
		storage.ZeroBytes(image)
		return nil, apperrors.Internal("comparison storage not configured")
	}
	if len(engines) == 0 {
		engines = []string{domain.EngineTesseract, domain.EngineGoogleVision}
	}

	job := &domain.ComparisonJob{
		JobID:     storage.GenerateJobID(),
		Status:    domain.StatusProcessing,
		CreatedAt: s.now(),
	}
	s.storage.StoreJob(job)

	// a detached context so the request ending does not cancel the job
	bgCtx := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.compareAsync(bgCtx, job.JobID, image, engines)
	}()

	return s.storage.GetJob(job.JobID), nil
}

// GetComparison returns a comparison job by ID, or nil.
func (s *Service) GetComparison(jobID string) *domain.ComparisonJob {
	if s.storage == nil {
		return nil
	}
	return s.storage.GetJob(jobID)
}

func (s *Service) compareAsync(ctx context.Context, jobID string, image []byte, engines []string) {
	defer storage.ZeroBytes(image)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job_id", jobID).Msg("comparison panicked")
			s.storage.UpdateJob(jobID, func(j *domain.ComparisonJob) {
				j.Status = domain.StatusFailed
				j.Error = "comparison failed"
			})
		}
	}()

	cmp := s.Compare(ctx, image, engines)

	s.storage.UpdateJob(jobID, func(j *domain.ComparisonJob) {
		j.Status = domain.StatusCompleted
		j.Result = cmp
	})
	s.log.Info().
		Str("job_id", jobID).
		Int("results", len(cmp.Results)).
		Str("recommended", cmp.Recommendations["recommended_engine"]).
		Msg("engine comparison completed")
}

// Compare runs every requested engine on image concurrently. Unknown
// engine names are skipped.
func (s *Service) Compare(ctx context.Context, image []byte, engines []string) *domain.Comparison {
	known := make([]string, 0, len(engines))
	for _, name := range engines {
		if _, ok := unavailableMessages[name]; ok {
			known = append(known, name)
		}
	}

	runs := make([]domain.EngineRun, len(known))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range known {
		g.Go(func() error {
			runs[i] = s.runEngine(gctx, name, image)
			return nil
		})
	}
	_ = g.Wait()

	return &domain.Comparison{
		Success:         true,
		Message:         fmt.Sprintf("Comparació completada: %d resultats", len(runs)),
		Results:         runs,
		Recommendations: Recommend(runs),
	}
}

func (s *Service) engineByName(name string) ocr.Engine {
	switch name {
	case domain.EngineTesseract:
		return s.cheap
	case domain.EngineGoogleVision:
		return s.costed
	}
	return nil
}

func (s *Service) runEngine(ctx context.Context, name string, image []byte) domain.EngineRun {
	run := domain.EngineRun{Engine: name, PreprocessMode: preprocessNone}

	eng := s.engineByName(name)
	if eng == nil || !eng.Available(ctx) {
		run.Error = unavailableMessages[name]
		return run
	}

	start := time.Now()
	out, err := s.attempt(ctx, eng, image)
	run.ProcessingTime = math.Round(time.Since(start).Seconds()*1000) / 1000
	if err != nil {
		run.Error = err.Error()
		return run
	}
	run.Text = out.Text
	run.Confidence = out.Confidence
	run.Success = true
	return run
}

// Recommend summarises a comparison: the most confident run, the fastest,
// the best confidence per second, and the engine with the higher average
// confidence. Ties go to the earliest run.
func Recommend(runs []domain.EngineRun) map[string]string {
	if len(runs) == 0 {
		return map[string]string{"error": "No hi ha resultats per analitzar"}
	}

	var ok []domain.EngineRun
	for _, r := range runs {
		if r.Success {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return map[string]string{"error": "Cap motor OCR ha funcionat correctament"}
	}

	balance := func(r domain.EngineRun) float64 { return r.Confidence / (r.ProcessingTime + 0.1) }
	bestAcc, bestSpeed, bestBal := ok[0], ok[0], ok[0]
	for _, r := range ok[1:] {
		if r.Confidence > bestAcc.Confidence {
			bestAcc = r
		}
		if r.ProcessingTime < bestSpeed.ProcessingTime {
			bestSpeed = r
		}
		if balance(r) > balance(bestBal) {
			bestBal = r
		}
	}

	tessAvg := averageConfidence(ok, domain.EngineTesseract)
	visionAvg := averageConfidence(ok, domain.EngineGoogleVision)
	recommended := domain.EngineTesseract
	if visionAvg > tessAvg {
		recommended = domain.EngineGoogleVision
	}

	return map[string]string{
		"best_accuracy":                fmt.Sprintf("%s + %s (%s%% confiança)", bestAcc.Engine, bestAcc.PreprocessMode, formatFloat(bestAcc.Confidence)),
		"best_speed":                   fmt.Sprintf("%s + %s (%ss)", bestSpeed.Engine, bestSpeed.PreprocessMode, formatFloat(bestSpeed.ProcessingTime)),
		"best_balance":                 fmt.Sprintf("%s + %s", bestBal.Engine, bestBal.PreprocessMode),
		"recommended_engine":           recommended,
		"tesseract_avg_confidence":     formatFloat(round2(tessAvg)) + "%",
		"google_vision_avg_confidence": formatFloat(round2(visionAvg)) + "%",
	}
}

func averageConfidence(runs []domain.EngineRun, engine string) float64 {
	var sum float64
	var n int
	for _, r := range runs {
		if r.Engine == engine {
			sum += r.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatFloat prints whole numbers with one decimal (95.0) and others
// with the shortest exact form (91.92).
func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
