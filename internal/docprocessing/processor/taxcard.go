package processor

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
	"github.com/ocragent/ocr-agent/internal/docprocessing/scoring"
)

// Labels that end an address block on the tax card.
var taxAddressStop = []string{
	"DOMICILIO", "FECHA", "ADMINISTRACIÓN", "ADMINISTRACION",
	"CÓDIGO", "CODIGO", "ANAGRAMA", "N.I.F", "NIF",
}

var (
	cifInText         = regexp.MustCompile(`\b([ABCDEFGHJKLMNPQRSUVW]\d{7}[A-J0-9])\b`)
	cifLine           = regexp.MustCompile(`(?i)^[ABCDEFGHJKLMNPQRSUVW]\d{7}[A-J0-9]$`)
	denominationValue = regexp.MustCompile(`(?i)(?:DENOMINACIÓN|DENOMINACION)[:\s]+(.+)`)
	companyNameValue  = regexp.MustCompile(`(?i)(?:RAZÓN SOCIAL|RAZON SOCIAL)[:\s]+(.+)`)
	tradeNameValue    = regexp.MustCompile(`(?i)ANAGRAMA COMERCIAL[:\s]+(.+)`)
	addressValue      = regexp.MustCompile(`(?i)DOMICILIO\s+(.+)`)
	typedAddressValue = regexp.MustCompile(`(?i)DOMICILIO\s+(?:SOCIAL|FISCAL)?\s*(.+)`)
	officeValue       = regexp.MustCompile(`(?i)ADMINISTRACI[OÓ]N\s+(?:DE\s+LA\s+)?AEAT\s+(.+)`)
	electronicCode    = regexp.MustCompile(`(?i)^[A-F0-9]{10,}$`)
)

// addressKind selects the registered (social) or tax (fiscal) address.
type addressKind int

const (
	addressSocial addressKind = iota
	addressFiscal
)

func (b *taxCardBuilder) set(kind addressKind, a normalize.Address) {
	dst := b.rec
	if kind == addressSocial {
		dst.DomicilioSocial = a.Full
		dst.DomicilioSocialCalle = a.Street
		dst.DomicilioSocialNumero = a.Number
		dst.DomicilioSocialPisoPuerta = a.FloorDoor
		dst.DomicilioSocialMunicipio = a.Municipality
		dst.DomicilioSocialProvincia = a.Province
		dst.DomicilioSocialCodigoPostal = a.PostalCode
		return
	}
	dst.DomicilioFiscal = a.Full
	dst.DomicilioFiscalCalle = a.Street
	dst.DomicilioFiscalNumero = a.Number
	dst.DomicilioFiscalPisoPuerta = a.FloorDoor
	dst.DomicilioFiscalMunicipio = a.Municipality
	dst.DomicilioFiscalProvincia = a.Province
	dst.DomicilioFiscalCodigoPostal = a.PostalCode
}

func (b *taxCardBuilder) has(kind addressKind) bool {
	if kind == addressSocial {
		return domain.Present(b.rec.DomicilioSocial)
	}
	return domain.Present(b.rec.DomicilioFiscal)
}

// taxCardBuilder routes decomposed addresses into a tax-card record.
type taxCardBuilder struct {
	rec *domain.TaxCardRecord
}

// inlineAddressLines collects the lines following an address whose first
// line sat next to its label. Lines starting with the SOCIAL or FISCAL
// qualifier contribute only the text after it.
func inlineAddressLines(lines []string, i int, first string) []string {
	out := []string{first}
	end := i + 5
	if end > len(lines) {
		end = len(lines)
	}
	for j := i + 1; j < end; j++ {
		nl := strings.TrimSpace(lines[j])
		if nl == "" {
			break
		}
		nu := strings.ToUpper(nl)
		if normalize.ContainsAny(nu, taxAddressStop) || cifLine.MatchString(nl) {
			break
		}
		if strings.HasPrefix(nu, "SOCIAL") || strings.HasPrefix(nu, "FISCAL") {
			if _, rest, ok := strings.Cut(nl, " "); ok && strings.TrimSpace(rest) != "" {
				out = append(out, strings.TrimSpace(rest))
			}
			continue
		}
		out = append(out, nl)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractTaxCard reads a tax identification card by its printed labels.
func ExtractTaxCard(text string, now time.Time) *domain.TaxCardRecord {
	rec := &domain.TaxCardRecord{}
	b := &taxCardBuilder{rec: rec}

	if m := cifInText.FindStringSubmatch(text); m != nil {
		rec.NumeroNIF = domain.StrPtr(strings.ToUpper(m[1]))
		rec.TipoNIF = domain.StrPtr("CIF")
	}

	nifYears := normalize.YearRange{Min: 1980, Max: now.Year()}
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lu := strings.ToUpper(line)
		next, hasNext := lineAfter(lines, i)

		switch {
		case (strings.Contains(lu, "DENOMINACIÓN") || strings.Contains(lu, "DENOMINACION")) && !strings.Contains(lu, "FISCAL"):
			var val string
			if m := denominationValue.FindStringSubmatch(line); m != nil {
				val = strings.TrimSpace(m[1])
			} else if hasNext {
				val = strings.TrimSpace(next)
			}
			// A label read as the value ("Anagrama Comercial:") or a stray glyph
			if val != "" && val != "0" && val != "o" && val != "O" && !strings.Contains(val, ":") {
				rec.Denominacion = domain.StrPtr(val)
				rec.RazonSocial = domain.StrPtr(val)
			}

		case (strings.Contains(lu, "RAZÓN SOCIAL") || strings.Contains(lu, "RAZON SOCIAL")) && !domain.Present(rec.RazonSocial):
			if m := companyNameValue.FindStringSubmatch(line); m != nil {
				if val := strings.TrimSpace(m[1]); val != "" && !strings.Contains(val, ":") {
					rec.RazonSocial = domain.StrPtr(val)
					rec.Denominacion = domain.StrPtr(val)
				}
			}

		case strings.Contains(lu, "ANAGRAMA COMERCIAL"):
			if m := tradeNameValue.FindStringSubmatch(line); m != nil {
				rec.AnagramaComercial = nonEmpty(m[1])
			} else if hasNext {
				rec.AnagramaComercial = nonEmpty(next)
			}

		case strings.Contains(lu, "DOMICILIO") && !strings.Contains(lu, "SOCIAL") && !strings.Contains(lu, "FISCAL"):
			// Bare label: the qualifier is printed on the following line.
			m := addressValue.FindStringSubmatch(line)
			if m == nil || !hasNext {
				continue
			}
			nu := strings.ToUpper(next)
			if strings.Contains(nu, "DOMICILIO") {
				continue
			}
			var kind addressKind
			switch {
			case strings.Contains(nu, "SOCIAL"):
				kind = addressSocial
			case strings.Contains(nu, "FISCAL"):
				kind = addressFiscal
			default:
				continue
			}
			if !b.has(kind) {
				b.set(kind, normalize.DecomposeFiscalInline(inlineAddressLines(lines, i, strings.TrimSpace(m[1]))))
			}

		case strings.Contains(lu, "DOMICILIO"):
			m := typedAddressValue.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			var a normalize.Address
			val := strings.TrimSpace(m[1])
			vu := strings.ToUpper(val)
			if val != "" && !strings.Contains(vu, "SOCIAL") && !strings.Contains(vu, "FISCAL") {
				a = normalize.DecomposeFiscalInline(inlineAddressLines(lines, i, val))
			} else {
				a = normalize.DecomposeFiscal(normalize.ReadAddressLines(lines, i, 7, taxAddressStop))
			}
			if strings.Contains(lu, "SOCIAL") {
				b.set(addressSocial, a)
			} else {
				b.set(addressFiscal, a)
			}

		case isOfficeLabel(lu):
			var val string
			if m := officeValue.FindStringSubmatch(line); m != nil {
				val = strings.TrimSpace(m[1])
			} else if hasNext {
				val = strings.TrimSpace(next)
			}
			if val == "" {
				continue
			}
			rec.AdministracionAEAT = domain.StrPtr(val)
			if code, name, ok := strings.Cut(val, " "); ok && isDigits(code) {
				rec.CodigoAdministracion = domain.StrPtr(code)
				rec.NombreAdministracion = nonEmpty(name)
			}

		case strings.Contains(lu, "FECHA N.I.F. DEFINITIVO") || strings.Contains(lu, "FECHA NIF DEFINITIVO"):
			if hasNext {
				rec.FechaNIFDefinitivo = normalize.FirstDate(next, normalize.DateDashSlash, nifYears)
			}

		case strings.Contains(lu, "FECHA DE EXPEDICIÓN") || strings.Contains(lu, "FECHA DE EXPEDICION"):
			if hasNext {
				rec.FechaExpedicion = normalize.FirstDate(next, normalize.DateDashSlash, nifYears)
			}

		case strings.Contains(lu, "CÓDIGO ELECTRÓNICO") || strings.Contains(lu, "CODIGO ELECTRONICO"):
			if hasNext {
				if val := strings.TrimSpace(next); electronicCode.MatchString(val) {
					rec.CodigoElectronico = domain.StrPtr(strings.ToUpper(val))
				}
			}
		}
	}
	return rec
}

// isOfficeLabel matches the tax-office label, either "Administración de la
// AEAT ..." or a bare "Administración" line with the office below.
func isOfficeLabel(lu string) bool {
	if !strings.Contains(lu, "ADMINISTRACIÓN") && !strings.Contains(lu, "ADMINISTRACION") {
		return false
	}
	if strings.Contains(lu, "AEAT") {
		return true
	}
	bare := strings.TrimSpace(lu)
	return bare == "ADMINISTRACIÓN" || bare == "ADMINISTRACION"
}

// TaxCardProcessor handles tax identification cards.
type TaxCardProcessor struct {
	clock
}

// NewTaxCardProcessor creates a new tax card processor
func NewTaxCardProcessor(opts ...Option) *TaxCardProcessor {
	return &TaxCardProcessor{clock: newClock(opts)}
}

func (p *TaxCardProcessor) Name() string { return "taxcard" }

func (p *TaxCardProcessor) CanProcess(docType domain.DocumentType) bool {
	return docType == domain.DocumentTypeNIF
}

func (p *TaxCardProcessor) Extract(text string) *Extraction {
	return &Extraction{Record: ExtractTaxCard(text, p.now()), Text: text}
}

func (p *TaxCardProcessor) Validate(ex *Extraction, engine string, engineConfidence float64) *domain.ValidationResult {
	return ValidateTaxCard(ex.Record.(*domain.TaxCardRecord), engine, engineConfidence, p.now())
}

func (p *TaxCardProcessor) ShouldEscalate(ex *Extraction, engineConfidence float64) domain.Decision {
	return TaxCardEscalation(ex.Record.(*domain.TaxCardRecord), engineConfidence)
}

// ValidateTaxCard checks a tax-card record and builds its result.
func ValidateTaxCard(rec *domain.TaxCardRecord, engine string, engineConfidence float64, now time.Time) *domain.ValidationResult {
	f := domain.NewFindings()
	todayISO := today(now)

	if domain.Present(rec.NumeroNIF) {
		if res := checksum.ValidateCIF(*rec.NumeroNIF); !res.Valid {
			expected := res.Expected
			if expected == "" {
				expected = "?"
			}
			f.Error(domain.Finding{
				Code:     "NIF_CHECKDIGIT_MISMATCH",
				Severity: domain.SeverityCritical,
				Field:    "numero_nif",
				Message:  "Dígit de control CIF incorrecte.",
				Evidence: fmt.Sprintf("Llegit: '%s', esperat: '%s'", lastChar(*rec.NumeroNIF), expected),
			})
		}
	}

	missing := 0
	for _, m := range []struct {
		name string
		val  *string
		sev  domain.Severity
	}{
		{"numero_nif", rec.NumeroNIF, domain.SeverityCritical},
		{"razon_social", rec.RazonSocial, domain.SeverityError},
		{"domicilio_fiscal", rec.DomicilioFiscal, domain.SeverityError},
	} {
		if domain.Present(m.val) {
			continue
		}
		missing++
		f.Error(domain.Finding{
			Code:     "NIF_MISSING_FIELD",
			Severity: m.sev,
			Field:    m.name,
			Message:  fmt.Sprintf("Camp mínim '%s' no detectat.", m.name),
		})
	}

	if domain.Present(rec.FechaNIFDefinitivo) && *rec.FechaNIFDefinitivo > todayISO {
		f.Error(domain.Finding{
			Code:     "NIF_DATE_INVALID",
			Severity: domain.SeverityError,
			Field:    "fecha_nif_definitivo",
			Message:  "Data NIF Definitiu en el futur.",
		})
	}
	if domain.Present(rec.FechaExpedicion) && *rec.FechaExpedicion > todayISO {
		f.Error(domain.Finding{
			Code:     "NIF_DATE_INVALID",
			Severity: domain.SeverityError,
			Field:    "fecha_expedicion",
			Message:  "Data expedició en el futur.",
		})
	}

	valid := !f.HasCritical() &&
		domain.Present(rec.NumeroNIF) && domain.Present(rec.RazonSocial) && domain.Present(rec.DomicilioFiscal)

	msg := "Errors detectats"
	if valid {
		msg = "Validació correcta"
	}

	return &domain.ValidationResult{
		Valid:        valid,
		Confidence:   scoring.Confidence(f.Alerts, f.Errors, missing, engineConfidence),
		DocumentType: domain.DocumentTypeNIF,
		Data:         rec,
		Alerts:       f.Alerts,
		Errors:       f.Errors,
		Raw:          domain.NewRawOCR(engine, engineConfidence),
		Meta:         domain.Meta{Success: valid, Message: resultMessage(engine, msg)},
	}
}

const taxCardMinConfidence = 50

// TaxCardEscalation decides whether a tax card read by the cheap engine
// should be re-read by the costed one.
func TaxCardEscalation(rec *domain.TaxCardRecord, confidence float64) domain.Decision {
	switch {
	case !domain.Present(rec.NumeroNIF):
		return domain.Decision{Escalate: true, Reason: "cif_absent"}
	case !checksum.ValidateCIF(*rec.NumeroNIF).Valid:
		return domain.Decision{Escalate: true, Reason: "cif_invalid"}
	case !domain.Present(rec.RazonSocial):
		return domain.Decision{Escalate: true, Reason: "rao_social_absent"}
	case !domain.Present(rec.DomicilioFiscal):
		return domain.Decision{Escalate: true, Reason: "domicili_fiscal_absent"}
	case confidence < taxCardMinConfidence:
		return domain.Decision{Escalate: true, Reason: fmt.Sprintf("confidence_baixa:%.0f", confidence)}
	}
	return domain.Decision{Reason: domain.Accepted}
}

func lastChar(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}
