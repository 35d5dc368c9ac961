// Package ocr wraps the OCR engines that turn a document image into text.
package ocr

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable is returned by Recognize when the engine is disabled or
// not installed.
var ErrUnavailable = errors.New("ocr engine not available")

// Result is the text recognised on one image.
type Result struct {
	Text string
	// Confidence is on a 0..100 scale.
	Confidence float64
}

// Engine recognises text on an image.
type Engine interface {
	Name() string
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, image []byte) (Result, error)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
