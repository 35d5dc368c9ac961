// Package scoring computes the global confidence of a validated document.
package scoring

import (
	"math"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

// Penalties applied to the base score of 100.
const (
	CriticalPenalty = 35
	ErrorPenalty    = 15
	WarningPenalty  = 5
	MissingPenalty  = 20

	validationWeight = 0.85
	engineWeight     = 0.15
)

func penalty(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return CriticalPenalty
	case domain.SeverityError:
		return ErrorPenalty
	case domain.SeverityWarning:
		return WarningPenalty
	}
	return 0
}

// Confidence blends the validation score with the engine confidence.
// Every finding in either list is penalised by its severity and every
// missing mandatory field by MissingPenalty. Halves round to even. The
// result is clamped to [0,100].
func Confidence(alerts, errors []domain.Finding, missing int, engineConfidence float64) int {
	score := 100
	for _, f := range alerts {
		score -= penalty(f.Severity)
	}
	for _, f := range errors {
		score -= penalty(f.Severity)
	}
	score -= missing * MissingPenalty

	blended := math.RoundToEven(float64(score)*validationWeight + engineConfidence*engineWeight)
	return int(math.Max(0, math.Min(100, blended)))
}
