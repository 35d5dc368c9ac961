package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

const (
	defaultVisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

	// DOCUMENT_TEXT_DETECTION has no page-level confidence, so a fixed
	// value is reported whenever text came back.
	visionConfidence = 95.0
)

// VisionConfig configures the Google Cloud Vision engine.
type VisionConfig struct {
	Enabled  bool
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// GoogleVision calls the Cloud Vision images:annotate REST endpoint with
// DOCUMENT_TEXT_DETECTION. Every call is billed.
type GoogleVision struct {
	cfg        VisionConfig
	httpClient *http.Client
}

// NewGoogleVision creates a Vision engine.
func NewGoogleVision(cfg VisionConfig) *GoogleVision {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultVisionEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GoogleVision{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (v *GoogleVision) Name() string { return domain.EngineGoogleVision }

func (v *GoogleVision) Available(context.Context) bool {
	return v.cfg.Enabled && v.cfg.APIKey != ""
}

func (v *GoogleVision) Recognize(ctx context.Context, image []byte) (Result, error) {
	if !v.Available(ctx) {
		return Result{}, fmt.Errorf("vision: %w", ErrUnavailable)
	}

	payload := annotateRequest{Requests: []annotateImageRequest{{
		Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []visionFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
	}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("vision: encode request: %w", err)
	}

	endpoint := v.cfg.Endpoint + "?key=" + url.QueryEscape(v.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		// the key travels in the query string, keep it out of the error
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return Result{}, fmt.Errorf("vision: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Result{}, fmt.Errorf("vision: read response body: %w", err)
	}

	var parsed annotateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Result{}, fmt.Errorf("vision: service returned %d", resp.StatusCode)
		}
		return Result{}, fmt.Errorf("vision: parse response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return Result{}, fmt.Errorf("vision: Google Vision API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("vision: service returned %d", resp.StatusCode)
	}
	if len(parsed.Responses) == 0 {
		return Result{}, nil
	}

	r := parsed.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return Result{}, fmt.Errorf("vision: Google Vision API error: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil || r.FullTextAnnotation.Text == "" {
		return Result{}, nil
	}
	return Result{Text: r.FullTextAnnotation.Text, Confidence: visionConfidence}, nil
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []annotateImageResponse `json:"responses"`
	Error     *visionStatus           `json:"error,omitempty"`
}

type annotateImageResponse struct {
	FullTextAnnotation *struct {
		Text string `json:"text"`
	} `json:"fullTextAnnotation,omitempty"`
	Error *visionStatus `json:"error,omitempty"`
}

type visionStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
