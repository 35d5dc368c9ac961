package domain

import "math"

// RawOCR describes the engine output the result was built from.
type RawOCR struct {
	Engine     string  `json:"ocr_engine"`
	Confidence float64 `json:"ocr_confidence"`
}

// Meta carries the human-readable outcome.
type Meta struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidationResult is the validated output for one document. It is built
// once by a validator and not modified afterwards.
type ValidationResult struct {
	Valid        bool         `json:"valido"`
	Confidence   int          `json:"confianza_global"`
	DocumentType DocumentType `json:"tipo_documento"`
	Data         Record       `json:"datos"`
	Alerts       []Finding    `json:"alertas"`
	Errors       []Finding    `json:"errores_detectados"`
	Raw          RawOCR       `json:"raw"`
	Meta         Meta         `json:"meta"`
}

// NewRawOCR rounds the engine confidence to one decimal.
func NewRawOCR(engine string, confidence float64) RawOCR {
	return RawOCR{Engine: engine, Confidence: math.Round(confidence*10) / 10}
}
