package domain

import (
	"strings"
	"time"
)

// DocumentType represents the type of document being processed
type DocumentType string

const (
	DocumentTypeDNI    DocumentType = "dni"
	DocumentTypeNIF    DocumentType = "nif"
	DocumentTypePermit DocumentType = "permiso_circulacion"
)

// ParseDocumentType maps an endpoint or CLI name to a document type.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dni", "nie":
		return DocumentTypeDNI, true
	case "nif", "tif", "cif":
		return DocumentTypeNIF, true
	case "permis", "permiso", "permiso_circulacion":
		return DocumentTypePermit, true
	}
	return "", false
}

// Engine names reported in results.
const (
	EngineTesseract    = "tesseract"
	EngineGoogleVision = "google_vision"
)

// ExtractionStatus represents the processing state of a comparison job
type ExtractionStatus string

const (
	StatusPending    ExtractionStatus = "pending"
	StatusProcessing ExtractionStatus = "processing"
	StatusCompleted  ExtractionStatus = "completed"
	StatusFailed     ExtractionStatus = "failed"
)

// EngineRun is the outcome of running one OCR engine on one image.
type EngineRun struct {
	Engine         string  `json:"engine"`
	PreprocessMode string  `json:"preprocess_mode"`
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	// ProcessingTime is in seconds, rounded to milliseconds.
	ProcessingTime float64 `json:"processing_time"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
}

// Comparison is the result of running every available engine on an image.
type Comparison struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	Results         []EngineRun       `json:"results"`
	Recommendations map[string]string `json:"recommendations"`
}

// ComparisonJob tracks an asynchronous engine comparison
type ComparisonJob struct {
	JobID     string           `json:"job_id"`
	Status    ExtractionStatus `json:"status"`
	Result    *Comparison      `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Decision is the outcome of the engine fallback policy.
type Decision struct {
	Escalate bool   `json:"escalate"`
	Reason   string `json:"reason"`
}

// Accepted is the reason reported when the cheap engine's output is kept.
const Accepted = "tesseract_acceptat"
