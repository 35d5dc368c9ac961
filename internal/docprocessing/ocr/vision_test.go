package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visionServer(t *testing.T, status int, body string, check func(r *http.Request, req annotateRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req annotateRequest
		_ = json.Unmarshal(raw, &req)
		if check != nil {
			check(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVision_Recognize(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	srv := visionServer(t, http.StatusOK,
		`{"responses":[{"fullTextAnnotation":{"text":"PERMISO DE CIRCULACION\n1234BCD\n"}}]}`,
		func(r *http.Request, req annotateRequest) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "secret", r.URL.Query().Get("key"))
			require.Len(t, req.Requests, 1)
			assert.Equal(t, base64.StdEncoding.EncodeToString(img), req.Requests[0].Image.Content)
			assert.Equal(t, "DOCUMENT_TEXT_DETECTION", req.Requests[0].Features[0].Type)
		})

	engine := NewGoogleVision(VisionConfig{Enabled: true, APIKey: "secret", Endpoint: srv.URL})
	res, err := engine.Recognize(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, "PERMISO DE CIRCULACION\n1234BCD\n", res.Text)
	assert.Equal(t, 95.0, res.Confidence)
}

func TestGoogleVision_NoText(t *testing.T) {
	srv := visionServer(t, http.StatusOK, `{"responses":[{}]}`, nil)
	engine := NewGoogleVision(VisionConfig{Enabled: true, APIKey: "k", Endpoint: srv.URL})

	res, err := engine.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Confidence)
}

func TestGoogleVision_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"per image error", http.StatusOK, `{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`, "vision: Google Vision API error: Bad image data."},
		{"request error", http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid."}}`, "vision: Google Vision API error: API key not valid."},
		{"non json failure", http.StatusBadGateway, `upstream down`, "vision: service returned 502"},
		{"garbage", http.StatusOK, `{`, "vision: parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := visionServer(t, tt.status, tt.body, nil)
			engine := NewGoogleVision(VisionConfig{Enabled: true, APIKey: "k", Endpoint: srv.URL})
			_, err := engine.Recognize(context.Background(), []byte("img"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGoogleVision_Available(t *testing.T) {
	ctx := context.Background()
	assert.False(t, NewGoogleVision(VisionConfig{APIKey: "k"}).Available(ctx))
	assert.False(t, NewGoogleVision(VisionConfig{Enabled: true}).Available(ctx))
	assert.True(t, NewGoogleVision(VisionConfig{Enabled: true, APIKey: "k"}).Available(ctx))

	_, err := NewGoogleVision(VisionConfig{}).Recognize(ctx, []byte("img"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
