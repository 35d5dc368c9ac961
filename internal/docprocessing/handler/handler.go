package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/ocr"
	"github.com/ocragent/ocr-agent/internal/docprocessing/service"
	apperrors "github.com/ocragent/ocr-agent/pkg/errors"
	"github.com/ocragent/ocr-agent/pkg/httputil"
	"github.com/ocragent/ocr-agent/pkg/logger"
	"github.com/ocragent/ocr-agent/pkg/messaging"
)

// multipart framing allowed on top of the image itself
const formOverhead = 64 << 10

// Handler handles HTTP requests for document extraction
type Handler struct {
	service     *service.Service
	maxFileSize int64
	version     string
	log         *logger.Logger
}

// NewHandler creates a new document extraction handler. maxFileSize
// bounds the uploaded image in bytes.
func NewHandler(svc *service.Service, maxFileSize int64, version string, log *logger.Logger) *Handler {
	return &Handler{
		service:     svc,
		maxFileSize: maxFileSize,
		version:     version,
		log:         log.WithComponent("handler"),
	}
}

// Mount registers the /ocr routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/ocr", func(r chi.Router) {
		r.Post("/dni", h.extract(domain.DocumentTypeDNI))
		r.Post("/nif", h.extract(domain.DocumentTypeNIF))
		r.Post("/permis", h.extract(domain.DocumentTypePermit))
		r.Post("/compare", h.StartComparison)
		r.Get("/compare/{jobId}", h.GetComparison)
	})
}

type extractQuery struct {
	Engine string `validate:"oneof=auto tesseract google_vision"`
}

type compareQuery struct {
	Engines []string `validate:"max=2,unique,dive,oneof=tesseract google_vision"`
}

// Info handles GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]any{
		"service": "ocr-agent",
		"version": h.version,
		"endpoints": map[string]string{
			"dni":     "POST /ocr/dni",
			"nif":     "POST /ocr/nif",
			"permis":  "POST /ocr/permis",
			"compare": "POST /ocr/compare",
			"job":     "GET /ocr/compare/{jobId}",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
		"engines": h.service.Health(r.Context()),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	engines := h.service.Health(r.Context())
	status := "healthy"
	if !engines[domain.EngineTesseract] && !engines[domain.EngineGoogleVision] {
		status = "degraded"
	}
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"service": "ocr-agent",
		"engines": engines,
	})
}

// extract handles POST /ocr/{dni,nif,permis}
// Accepts a multipart form with the image in "file" and an optional
// engine query parameter. The validation result is returned unwrapped.
func (h *Handler) extract(docType domain.DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := extractQuery{Engine: r.URL.Query().Get("engine")}
		if q.Engine == "" {
			q.Engine = service.EngineAuto
		}
		if err := httputil.Validate(q); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		image, err := h.readImage(w, r)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		// audit events carry the request ID
		ctx := messaging.WithCorrelationID(r.Context(), httputil.GetRequestID(r.Context()))

		// image is zeroed by the service
		res, err := h.service.Process(ctx, image, docType, q.Engine)
		if err != nil {
			h.log.Warn().Err(err).
				Str("request_id", httputil.GetRequestID(r.Context())).
				Str("doc_type", string(docType)).
				Msg("extraction failed")
			httputil.ErrorLocalized(w, r, err)
			return
		}

		httputil.Raw(w, http.StatusOK, res)
	}
}

// StartComparison handles POST /ocr/compare
// Starts an asynchronous comparison of the OCR engines and returns the job.
func (h *Handler) StartComparison(w http.ResponseWriter, r *http.Request) {
	var q compareQuery
	if raw := r.URL.Query().Get("engines"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			q.Engines = append(q.Engines, strings.TrimSpace(e))
		}
	}
	if err := httputil.Validate(q); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	image, err := h.readImage(w, r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	job, err := h.service.StartComparison(r.Context(), image, q.Engines)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, job)
}

// GetComparison handles GET /ocr/compare/{jobId}
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	job := h.service.GetComparison(chi.URLParam(r, "jobId"))
	if job == nil {
		httputil.ErrorLocalized(w, r, apperrors.NotFoundWithKey("job"))
		return
	}
	httputil.JSON(w, http.StatusOK, job)
}

// readImage reads the "file" part of a multipart upload into memory and
// checks its size and format.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+formOverhead)

	// the memory limit covers the whole form so nothing spills to disk
	if err := r.ParseMultipartForm(h.maxFileSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.PayloadTooLarge(h.maxFileSize)
		}
		return nil, apperrors.Wrap(err, "BAD_REQUEST", "invalid multipart form", http.StatusBadRequest)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.NewWithKey("MISSING_FILE", "errors.missing_file", http.StatusBadRequest)
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		return nil, apperrors.PayloadTooLarge(h.maxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return nil, apperrors.Wrap(err, "BAD_REQUEST", "failed to read uploaded file", http.StatusBadRequest)
	}
	if int64(len(data)) > h.maxFileSize {
		return nil, apperrors.PayloadTooLarge(h.maxFileSize)
	}

	if detected, ok := ocr.SniffImage(data); !ok {
		clear(data)
		return nil, apperrors.UnsupportedMedia(detected)
	}
	return data, nil
}
