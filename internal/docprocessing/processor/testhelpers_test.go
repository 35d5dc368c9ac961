package processor_test

import (
	"strings"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func str(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func codes(items []domain.Finding) []string {
	out := make([]string, 0, len(items))
	for _, f := range items {
		out = append(out, f.Code)
	}
	return out
}

func hasCode(items []domain.Finding, code string) bool {
	for _, f := range items {
		if f.Code == code {
			return true
		}
	}
	return false
}

func byField(items []domain.Finding, field string) []domain.Finding {
	var out []domain.Finding
	for _, f := range items {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}

// mrz pads each line to the 30-character TD1 width.
func mrz(lines ...string) string {
	padded := make([]string, len(lines))
	for i, l := range lines {
		if len(l) < 30 {
			l += strings.Repeat("<", 30-len(l))
		}
		padded[i] = l[:30]
	}
	return strings.Join(padded, "\n")
}
