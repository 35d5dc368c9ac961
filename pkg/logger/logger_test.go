package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("ocr-service", &buf, zerolog.InfoLevel).
		WithComponent("service").
		WithRequestID("req-1")

	log.Debug().Msg("hidden")
	log.Info().Str("engine", "tesseract").Msg("ocr attempt")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	for k, want := range map[string]string{
		"service":    "ocr-service",
		"component":  "service",
		"request_id": "req-1",
		"engine":     "tesseract",
		"message":    "ocr attempt",
	} {
		if entry[k] != want {
			t.Errorf("%s = %v, want %q", k, entry[k], want)
		}
	}
}

func TestNop(t *testing.T) {
	Nop().Info().Msg("discarded")
}
