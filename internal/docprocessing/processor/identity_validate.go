package processor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
	"github.com/ocragent/ocr-agent/internal/docprocessing/scoring"
)

const adultAge = 18

var nationalityCode = regexp.MustCompile(`^[A-Z]{2,3}$`)

// IdentityProcessor handles DNI and NIE cards.
type IdentityProcessor struct {
	clock
}

// NewIdentityProcessor creates a new identity card processor
func NewIdentityProcessor(opts ...Option) *IdentityProcessor {
	return &IdentityProcessor{clock: newClock(opts)}
}

func (p *IdentityProcessor) Name() string { return "identity" }

func (p *IdentityProcessor) CanProcess(docType domain.DocumentType) bool {
	return docType == domain.DocumentTypeDNI
}

func (p *IdentityProcessor) Extract(text string) *Extraction {
	rec, raw := ExtractIdentity(text, p.now())
	return &Extraction{Record: rec, MRZ: raw, Text: text}
}

func (p *IdentityProcessor) Validate(ex *Extraction, engine string, engineConfidence float64) *domain.ValidationResult {
	return ValidateIdentity(ex.Record.(*domain.IdentityRecord), engine, engineConfidence, p.now())
}

func (p *IdentityProcessor) ShouldEscalate(ex *Extraction, engineConfidence float64) domain.Decision {
	return IdentityEscalation(ex.Record.(*domain.IdentityRecord), engineConfidence, ex.Text)
}

// nameField addresses one of the personal-name fields of the record.
type nameField struct {
	name string
	ptr  **string
}

func nameFields(rec *domain.IdentityRecord) []nameField {
	return []nameField{
		{"nombre", &rec.Nombre},
		{"apellidos", &rec.Apellidos},
		{"nombre_completo", &rec.NombreCompleto},
		{"lugar_nacimiento", &rec.LugarNacimiento},
		{"nombre_padre", &rec.NombrePadre},
		{"nombre_madre", &rec.NombreMadre},
	}
}

// ValidateIdentity checks an identity record and builds its result.
// Unreliable values (bad document number, future birth date) are discarded
// from the record.
func ValidateIdentity(rec *domain.IdentityRecord, engine string, engineConfidence float64, now time.Time) *domain.ValidationResult {
	f := domain.NewFindings()
	todayISO := today(now)

	for _, nf := range nameFields(rec) {
		if v := *nf.ptr; v != nil && normalize.HasNameNoise(*v) {
			f.Alert(domain.Finding{
				Code:         "DNI_NAME_OCR_NOISE",
				Severity:     domain.SeverityWarning,
				Field:        nf.name,
				Message:      fmt.Sprintf("El camp '%s' conté caràcters inesperats (possible soroll OCR).", nf.name),
				Evidence:     *v,
				SuggestedFix: "Verificar manualment el valor llegit.",
			})
		}
		*nf.ptr = normalize.CleanName(*nf.ptr)
	}
	if domain.Present(rec.Nombre) && domain.Present(rec.Apellidos) {
		rec.NombreCompleto = domain.StrPtr(*rec.Nombre + " " + *rec.Apellidos)
	}

	validateDocumentNumber(rec, f)

	missing := 0
	for _, m := range []struct {
		name string
		val  *string
	}{
		{"numero_documento", rec.NumeroDocumento},
		{"nombre", rec.Nombre},
		{"apellidos", rec.Apellidos},
		{"fecha_nacimiento", rec.FechaNacimiento},
	} {
		if domain.Present(m.val) {
			continue
		}
		missing++
		if m.name == "numero_documento" {
			continue
		}
		f.Error(domain.Finding{
			Code:         "DNI_MISSING_FIELD",
			Severity:     domain.SeverityError,
			Field:        m.name,
			Message:      fmt.Sprintf("Camp mínim no detectat: '%s'.", m.name),
			SuggestedFix: "Verificar que la imatge mostra la cara correcta del document.",
		})
	}

	if domain.Present(rec.FechaNacimiento) {
		birth := *rec.FechaNacimiento
		if birth > todayISO {
			f.Error(domain.Finding{
				Code:     "DNI_BIRTHDATE_INVALID",
				Severity: domain.SeverityCritical,
				Field:    "fecha_nacimiento",
				Message:  "Data de naixement en el futur.",
				Evidence: birth,
			})
			rec.FechaNacimiento = nil
		} else if age, ok := ageInYears(birth, now); ok && age < adultAge {
			f.Alert(domain.Finding{
				Code:         "DNI_UNDERAGE",
				Severity:     domain.SeverityWarning,
				Field:        "fecha_nacimiento",
				Message:      fmt.Sprintf("El titular és menor d'edat (%d anys).", age),
				Evidence:     birth,
				SuggestedFix: "Verificar si el tràmit requereix majoria d'edat.",
			})
		}
	}

	if domain.Present(rec.FechaCaducidad) && *rec.FechaCaducidad < todayISO {
		f.Error(domain.Finding{
			Code:         "DNI_EXPIRED",
			Severity:     domain.SeverityError,
			Field:        "fecha_caducidad",
			Message:      fmt.Sprintf("Document caducat (%s).", *rec.FechaCaducidad),
			Evidence:     *rec.FechaCaducidad,
			SuggestedFix: "Sol·licitar renovació o document vigent.",
		})
	}

	if rec.MRZ != nil && domain.Present(rec.MRZ.DocumentNumber) && domain.Present(rec.NumeroDocumento) &&
		*rec.MRZ.DocumentNumber != *rec.NumeroDocumento {
		f.Error(domain.Finding{
			Code:         "DNI_MRZ_MISMATCH",
			Severity:     domain.SeverityCritical,
			Field:        "numero_documento",
			Message:      "El número del document no coincideix entre el text i la zona MRZ.",
			Evidence:     fmt.Sprintf("Text: '%s', MRZ: '%s'", *rec.NumeroDocumento, *rec.MRZ.DocumentNumber),
			SuggestedFix: "Possible error OCR crític o document alterat. Verificació manual obligatòria.",
		})
	}

	if rec.Nacionalidad != nil && !nationalityCode.MatchString(*rec.Nacionalidad) {
		rec.Nacionalidad = nil
	}

	valid := !f.HasCritical() &&
		domain.Present(rec.NumeroDocumento) && domain.Present(rec.Nombre) && domain.Present(rec.Apellidos)

	msg := "Document amb errors que requereixen revisió."
	if valid {
		msg = "Document processat correctament."
	}

	return &domain.ValidationResult{
		Valid:        valid,
		Confidence:   scoring.Confidence(f.Alerts, f.Errors, missing, engineConfidence),
		DocumentType: domain.DocumentTypeDNI,
		Data:         rec,
		Alerts:       f.Alerts,
		Errors:       f.Errors,
		Raw:          domain.NewRawOCR(engine, engineConfidence),
		Meta:         domain.Meta{Success: valid, Message: resultMessage(engine, msg)},
	}
}

// validateDocumentNumber checks the DNI/NIE letter and discards the number
// when it cannot be trusted.
func validateDocumentNumber(rec *domain.IdentityRecord, f *domain.Findings) {
	if !domain.Present(rec.NumeroDocumento) {
		rec.NumeroDocumento = nil
		f.Error(domain.Finding{
			Code:         "DNI_MISSING_FIELD",
			Severity:     domain.SeverityCritical,
			Field:        "numero_documento",
			Message:      "Número de document no detectat.",
			SuggestedFix: "Revisar la qualitat de la imatge o orientació.",
		})
		return
	}

	number := *rec.NumeroDocumento
	res := checksum.ValidateID(number)
	if res.Valid {
		return
	}

	if res.Kind != checksum.KindUnknown {
		f.Error(domain.Finding{
			Code:         "DNI_CHECKLETTER_MISMATCH",
			Severity:     domain.SeverityCritical,
			Field:        "numero_documento",
			Message:      fmt.Sprintf("Lletra de control incorrecta per %s.", res.Kind),
			Evidence:     fmt.Sprintf("Llegit: '%s', esperat: '%s'", res.Normalized[len(res.Normalized)-1:], res.Expected),
			SuggestedFix: "Possible error OCR en la lletra final. Verificar manualment.",
		})
	} else {
		f.Error(domain.Finding{
			Code:         "DNI_NUMBER_INVALID",
			Severity:     domain.SeverityCritical,
			Field:        "numero_documento",
			Message:      fmt.Sprintf("Format de document no reconegut: '%s'.", number),
			SuggestedFix: "Ha de ser DNI (8 dígits + lletra) o NIE (X/Y/Z + 7 dígits + lletra).",
		})
	}
	rec.NumeroDocumento = nil
}

// ageInYears counts whole 365-day years between birth and now.
func ageInYears(birthISO string, now time.Time) (int, bool) {
	birth, err := time.Parse("2006-01-02", birthISO)
	if err != nil {
		return 0, false
	}
	ref := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ref.Sub(birth).Hours() / 24)
	return days / 365, true
}

var (
	backSideKeywords = []string{
		"DOMICILIO", "DOMICILI", "EQUIPO", "EQUIP", "HIJO", "FILL",
		"PADRE", "PARE", "MADRE", "MARE", "LUGAR DE NACIMIENTO",
	}
	frontSideKeywords = []string{
		"APELLIDOS", "COGNOMS", "SEXO", "SEXE", "NACIONALIDAD", "NACIONALITAT",
	}
)

const (
	identityEscalateBelow = 70
	identityMinConfidence = 35
	identityMinQuality    = 60
	shortBackSideText     = 250
)

// IdentityEscalation decides whether an identity card read by the cheap
// engine should be re-read by the costed one.
func IdentityEscalation(rec *domain.IdentityRecord, confidence float64, text string) domain.Decision {
	if !domain.Present(rec.NumeroDocumento) || !checksum.ValidateID(*rec.NumeroDocumento).Valid {
		return domain.Decision{Escalate: true, Reason: "document_invalid_o_absent"}
	}
	if !domain.Present(rec.Nombre) {
		return domain.Decision{Escalate: true, Reason: "nom_absent"}
	}
	if !domain.Present(rec.Apellidos) {
		return domain.Decision{Escalate: true, Reason: "apellidos_absents"}
	}

	upper := strings.ToUpper(text)
	noAddress := !domain.Present(rec.Domicilio) && !domain.Present(rec.Municipio) && !domain.Present(rec.Provincia)
	if normalize.ContainsAny(upper, backSideKeywords) && noAddress && confidence < identityEscalateBelow {
		return domain.Decision{Escalate: true, Reason: "posterior_sense_adreca"}
	}

	hasMRZ := strings.Contains(text, "IDESP") || strings.Contains(text, "<<<")
	if hasMRZ && !normalize.ContainsAny(upper, frontSideKeywords) &&
		len([]rune(text)) < shortBackSideText && confidence < identityEscalateBelow {
		return domain.Decision{Escalate: true, Reason: "mrz_sols_posterior_mal_llegit"}
	}

	quality := 0
	for _, v := range []*string{rec.NumeroDocumento, rec.Nombre, rec.Apellidos, rec.FechaNacimiento, rec.FechaCaducidad} {
		if domain.Present(v) {
			quality += 20
		}
	}
	if quality < identityMinQuality {
		return domain.Decision{Escalate: true, Reason: fmt.Sprintf("qualitat_baixa:%d", quality)}
	}
	if confidence < identityMinConfidence {
		return domain.Decision{Escalate: true, Reason: fmt.Sprintf("confidence_baixa:%.0f", confidence)}
	}
	return domain.Decision{Reason: domain.Accepted}
}
