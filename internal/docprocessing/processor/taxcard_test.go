package processor_test

import (
	"strings"
	"testing"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
)

const taxCardBasic = `TARJETA DE IDENTIFICACIÓN FISCAL
Número de Identificación Fiscal Definitivo
B76261874
Denominación
CASAACTIVA GESTION, S.L.
Domicilio Fiscal
CALLE ORINOCO, NUM. 5, PLANTA 0, PUERTA 3
35014 PALMAS DE GRAN CANARIA (LAS)
PALMAS, LAS
Fecha N.I.F. Definitivo
26-07-2016
Administración
35601 PALMAS G.C
`

const taxCardComplete = `TARJETA DE IDENTIFICACIÓN FISCAL
Número de Identificación Fiscal Definitivo
B76261874
Denominación
CASAACTIVA GESTION, S.L.
Anagrama Comercial
CASAACTIVA
Domicilio Social
CALLE EXAMPLE 123
28001 MADRID
MADRID
Domicilio Fiscal
CALLE ORINOCO, NUM. 5, PLANTA 0, PUERTA 3
35014 PALMAS DE GRAN CANARIA (LAS)
PALMAS, LAS
Fecha N.I.F. Definitivo
26-07-2016
Fecha de Expedición
15-01-2020
Administración
35601 PALMAS G.C
Código Electrónico
A1B2C3D4E5F6
`

func TestExtractTaxCard_Basic(t *testing.T) {
	rec := processor.ExtractTaxCard(taxCardBasic, fixedNow)

	tests := []struct {
		field string
		got   *string
		want  string
	}{
		{"numero_nif", rec.NumeroNIF, "B76261874"},
		{"tipo_nif", rec.TipoNIF, "CIF"},
		{"razon_social", rec.RazonSocial, "CASAACTIVA GESTION, S.L."},
		{"denominacion", rec.Denominacion, "CASAACTIVA GESTION, S.L."},
		{"domicilio_fiscal_numero", rec.DomicilioFiscalNumero, "5"},
		{"domicilio_fiscal_codigo_postal", rec.DomicilioFiscalCodigoPostal, "35014"},
		{"fecha_nif_definitivo", rec.FechaNIFDefinitivo, "2016-07-26"},
		{"codigo_administracion", rec.CodigoAdministracion, "35601"},
		{"nombre_administracion", rec.NombreAdministracion, "PALMAS G.C"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if deref(tt.got) != tt.want {
				t.Errorf("%s = %s, want %s", tt.field, deref(tt.got), tt.want)
			}
		})
	}

	contains := []struct {
		field string
		got   *string
		want  []string
	}{
		{"domicilio_fiscal", rec.DomicilioFiscal, []string{"ORINOCO"}},
		{"domicilio_fiscal_calle", rec.DomicilioFiscalCalle, []string{"ORINOCO"}},
		{"domicilio_fiscal_piso_puerta", rec.DomicilioFiscalPisoPuerta, []string{"PLANTA 0", "PUERTA 3"}},
		{"domicilio_fiscal_municipio", rec.DomicilioFiscalMunicipio, []string{"PALMAS"}},
		{"domicilio_fiscal_provincia", rec.DomicilioFiscalProvincia, []string{"PALMAS"}},
		{"administracion_aeat", rec.AdministracionAEAT, []string{"35601"}},
	}
	for _, tt := range contains {
		t.Run(tt.field, func(t *testing.T) {
			for _, w := range tt.want {
				if !strings.Contains(deref(tt.got), w) {
					t.Errorf("%s = %s, want it to contain %s", tt.field, deref(tt.got), w)
				}
			}
		})
	}

	t.Run("optional fields absent", func(t *testing.T) {
		if rec.AnagramaComercial != nil || rec.DomicilioSocial != nil || rec.FechaExpedicion != nil || rec.CodigoElectronico != nil {
			t.Errorf("unexpected optional fields: %+v", rec)
		}
	})
}

func TestExtractTaxCard_Complete(t *testing.T) {
	rec := processor.ExtractTaxCard(taxCardComplete, fixedNow)

	if deref(rec.AnagramaComercial) != "CASAACTIVA" {
		t.Errorf("anagrama_comercial = %s", deref(rec.AnagramaComercial))
	}
	if !strings.Contains(deref(rec.DomicilioSocial), "EXAMPLE") || deref(rec.DomicilioSocialCodigoPostal) != "28001" {
		t.Errorf("domicilio_social = %s (%s)", deref(rec.DomicilioSocial), deref(rec.DomicilioSocialCodigoPostal))
	}
	if !strings.Contains(deref(rec.DomicilioFiscal), "ORINOCO") || deref(rec.DomicilioFiscalCodigoPostal) != "35014" {
		t.Errorf("domicilio_fiscal = %s (%s)", deref(rec.DomicilioFiscal), deref(rec.DomicilioFiscalCodigoPostal))
	}
	if deref(rec.DomicilioSocial) == deref(rec.DomicilioFiscal) {
		t.Error("social and fiscal addresses must not be mixed")
	}
	if deref(rec.FechaExpedicion) != "2020-01-15" {
		t.Errorf("fecha_expedicion = %s", deref(rec.FechaExpedicion))
	}
	if deref(rec.CodigoElectronico) != "A1B2C3D4E5F6" {
		t.Errorf("codigo_electronico = %s", deref(rec.CodigoElectronico))
	}
}

func TestExtractTaxCard_InlineLabels(t *testing.T) {
	text := "N.I.F. B76261874\n" +
		"Razón Social: CASAACTIVA GESTION, S.L.\n" +
		"Administración de la AEAT 35601 PALMAS G.C\n"
	rec := processor.ExtractTaxCard(text, fixedNow)

	if deref(rec.RazonSocial) != "CASAACTIVA GESTION, S.L." {
		t.Errorf("razon_social = %s", deref(rec.RazonSocial))
	}
	if deref(rec.CodigoAdministracion) != "35601" {
		t.Errorf("codigo_administracion = %s", deref(rec.CodigoAdministracion))
	}
}

func baseTaxCard() *domain.TaxCardRecord {
	return &domain.TaxCardRecord{
		NumeroNIF:       str("B76261874"),
		RazonSocial:     str("CASAACTIVA GESTION, S.L."),
		DomicilioFiscal: str("CALLE ORINOCO, NUM. 5"),
	}
}

func TestValidateTaxCard(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		res := processor.ValidateTaxCard(baseTaxCard(), "google_vision", 95, fixedNow)
		if !res.Valid || len(res.Errors) != 0 {
			t.Fatalf("valid=%v errors=%v", res.Valid, codes(res.Errors))
		}
		if res.DocumentType != domain.DocumentTypeNIF {
			t.Errorf("document type = %s", res.DocumentType)
		}
		if res.Confidence <= 80 {
			t.Errorf("confidence = %d, want > 80", res.Confidence)
		}
		if !res.Meta.Success || !strings.Contains(res.Meta.Message, "google_vision") {
			t.Errorf("meta = %+v", res.Meta)
		}
	})

	t.Run("missing number", func(t *testing.T) {
		rec := baseTaxCard()
		rec.NumeroNIF = nil
		res := processor.ValidateTaxCard(rec, "google_vision", 90, fixedNow)
		got := byField(res.Errors, "numero_nif")
		if res.Valid || len(got) != 1 || got[0].Severity != domain.SeverityCritical || got[0].Code != "NIF_MISSING_FIELD" {
			t.Errorf("valid=%v numero_nif findings=%+v", res.Valid, got)
		}
	})

	t.Run("wrong control digit", func(t *testing.T) {
		rec := baseTaxCard()
		rec.NumeroNIF = str("B76261875")
		res := processor.ValidateTaxCard(rec, "google_vision", 90, fixedNow)
		var found []domain.Finding
		for _, f := range res.Errors {
			if f.Code == "NIF_CHECKDIGIT_MISMATCH" {
				found = append(found, f)
			}
		}
		if res.Valid || len(found) != 1 {
			t.Fatalf("valid=%v errors=%v", res.Valid, codes(res.Errors))
		}
		if found[0].Severity != domain.SeverityCritical || !strings.Contains(strings.ToLower(found[0].Evidence), "esperat") {
			t.Errorf("finding = %+v", found[0])
		}
	})

	t.Run("missing company name", func(t *testing.T) {
		rec := baseTaxCard()
		rec.RazonSocial = nil
		res := processor.ValidateTaxCard(rec, "google_vision", 90, fixedNow)
		got := byField(res.Errors, "razon_social")
		if res.Valid || len(got) != 1 || got[0].Severity != domain.SeverityError {
			t.Errorf("valid=%v razon_social findings=%+v", res.Valid, got)
		}
	})

	t.Run("missing fiscal address", func(t *testing.T) {
		rec := baseTaxCard()
		rec.DomicilioFiscal = nil
		res := processor.ValidateTaxCard(rec, "google_vision", 100, fixedNow)
		got := byField(res.Errors, "domicilio_fiscal")
		if res.Valid || len(got) != 1 || got[0].Severity != domain.SeverityError {
			t.Errorf("valid=%v domicilio_fiscal findings=%+v", res.Valid, got)
		}
		// 100 - 15 - 20 = 65; 65*0.85 + 100*0.15 = 70.25
		if res.Confidence != 70 {
			t.Errorf("confidence = %d, want 70", res.Confidence)
		}
	})

	t.Run("future date", func(t *testing.T) {
		rec := baseTaxCard()
		rec.FechaNIFDefinitivo = str("2099-12-31")
		res := processor.ValidateTaxCard(rec, "google_vision", 90, fixedNow)
		var found []domain.Finding
		for _, f := range res.Errors {
			if f.Code == "NIF_DATE_INVALID" {
				found = append(found, f)
			}
		}
		if len(found) != 1 || found[0].Severity != domain.SeverityError {
			t.Errorf("date findings = %+v", found)
		}
	})

	t.Run("perfect read scores 100", func(t *testing.T) {
		res := processor.ValidateTaxCard(baseTaxCard(), "google_vision", 100, fixedNow)
		if res.Confidence != 100 {
			t.Errorf("confidence = %d, want 100", res.Confidence)
		}
		if res.Raw.Engine != "google_vision" {
			t.Errorf("raw engine = %s", res.Raw.Engine)
		}
	})

	t.Run("raw confidence rounded to one decimal", func(t *testing.T) {
		res := processor.ValidateTaxCard(baseTaxCard(), "google_vision", 87.34, fixedNow)
		if res.Raw.Confidence != 87.3 {
			t.Errorf("raw confidence = %v, want 87.3", res.Raw.Confidence)
		}
	})
}

func TestTaxCardEscalation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.TaxCardRecord)
		conf   float64
		want   domain.Decision
	}{
		{"accepted", func(*domain.TaxCardRecord) {}, 80, domain.Decision{Reason: domain.Accepted}},
		{"no cif", func(r *domain.TaxCardRecord) { r.NumeroNIF = nil }, 80, domain.Decision{Escalate: true, Reason: "cif_absent"}},
		{"bad cif", func(r *domain.TaxCardRecord) { r.NumeroNIF = str("B76261875") }, 80, domain.Decision{Escalate: true, Reason: "cif_invalid"}},
		{"no name", func(r *domain.TaxCardRecord) { r.RazonSocial = nil }, 80, domain.Decision{Escalate: true, Reason: "rao_social_absent"}},
		{"no address", func(r *domain.TaxCardRecord) { r.DomicilioFiscal = nil }, 80, domain.Decision{Escalate: true, Reason: "domicili_fiscal_absent"}},
		{"low confidence", func(*domain.TaxCardRecord) {}, 42, domain.Decision{Escalate: true, Reason: "confidence_baixa:42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseTaxCard()
			tt.mutate(rec)
			if got := processor.TaxCardEscalation(rec, tt.conf); got != tt.want {
				t.Errorf("decision = %+v, want %+v", got, tt.want)
			}
		})
	}
}
