package processor_test

import (
	"testing"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

func TestRegistry_FindProcessor(t *testing.T) {
	r := processor.DefaultRegistry(processor.WithClock(clock))

	tests := []struct {
		docType domain.DocumentType
		want    string
	}{
		{domain.DocumentTypeDNI, "identity"},
		{domain.DocumentTypeNIF, "taxcard"},
		{domain.DocumentTypePermit, "permit"},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			p := r.FindProcessor(tt.docType)
			if p == nil {
				t.Fatalf("no processor for %s", tt.docType)
			}
			if p.Name() != tt.want {
				t.Errorf("FindProcessor(%s) = %s, want %s", tt.docType, p.Name(), tt.want)
			}
		})
	}

	if p := r.FindProcessor(domain.DocumentType("passport")); p != nil {
		t.Errorf("FindProcessor(passport) = %s, want nil", p.Name())
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	r := processor.DefaultRegistry(processor.WithClock(clock))

	tests := []struct {
		docType domain.DocumentType
		text    string
		conf    float64
		valid   bool
	}{
		{domain.DocumentTypeDNI, mrz("IDESPBHV122738077612097T", "7301245M2808288ESP", "COLL<CEREZO<<JOAQUIN"), 80, true},
		{domain.DocumentTypeNIF, taxCardBasic, 90, true},
		{domain.DocumentTypePermit, permitBasic, 60, true},
		{domain.DocumentTypePermit, "", 60, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			res := processor.Process(r.FindProcessor(tt.docType), tt.text, domain.EngineTesseract, tt.conf)
			if res.Valid != tt.valid {
				t.Errorf("valid = %v, want %v (errors %v)", res.Valid, tt.valid, codes(res.Errors))
			}
			if res.DocumentType != tt.docType {
				t.Errorf("document type = %s, want %s", res.DocumentType, tt.docType)
			}
			if res.Alerts == nil || res.Errors == nil {
				t.Error("finding lists must be non-nil")
			}
		})
	}
}

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		in   string
		want domain.DocumentType
		ok   bool
	}{
		{"dni", domain.DocumentTypeDNI, true},
		{"NIE", domain.DocumentTypeDNI, true},
		{"cif", domain.DocumentTypeNIF, true},
		{"permis", domain.DocumentTypePermit, true},
		{"permiso_circulacion", domain.DocumentTypePermit, true},
		{"passport", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := domain.ParseDocumentType(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseDocumentType(%q) = %s, %v", tt.in, got, ok)
			}
		})
	}
}
