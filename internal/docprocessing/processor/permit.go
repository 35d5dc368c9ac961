package processor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
	"github.com/ocragent/ocr-agent/internal/docprocessing/scoring"
)

const cvToKW = 0.7355

var permitYears = normalize.YearRange{Min: 1970, Max: 2050}

// EU harmonised field codes (Directive 1999/37/EC) printed on the permit.
var (
	codeD1  = regexp.MustCompile(`\bD\.?\s*1\b`)
	codeD2  = regexp.MustCompile(`\bD\.?\s*2\b`)
	codeD3  = regexp.MustCompile(`\bD\.?\s*3\b`)
	codeP1  = regexp.MustCompile(`\bP\.?\s*1\b`)
	codeP2  = regexp.MustCompile(`\bP\s*\.?\s*2\b`)
	codeP3  = regexp.MustCompile(`\bP\.?\s*3\b`)
	codeV7  = regexp.MustCompile(`\bV\s*\.?\s*7\b`)
	codeF1  = regexp.MustCompile(`\bF\.?\s*1\b`)
	codeG   = regexp.MustCompile(`^G\s*$`)
	codeGI  = regexp.MustCompile(`\bG\s+I\b`)
	codeS1  = regexp.MustCompile(`\bS\.?\s*1\b`)
	codeC1  = regexp.MustCompile(`\bC\.?\s*1\b`)
	codeC11 = regexp.MustCompile(`\bC\.?\s*1\.?\s*1\b`)
	codeC12 = regexp.MustCompile(`\bC\.?\s*1\.?\s*2\b`)
	codeC13 = regexp.MustCompile(`\bC\.?\s*1\.?\s*3\b`)
	codeCV  = regexp.MustCompile(`(?i)\b(CV|HP)\b`)
)

var (
	modernPlateInText = regexp.MustCompile(`\b(\d{4}[A-Z]{3})\b`)
	noisyPlateInText  = regexp.MustCompile(`\b([0-9OISBZG]{4}[A-Z0-8]{3})\b`)
	modernPlate       = regexp.MustCompile(`^\d{4}[A-Z]{3}$`)
	anyDigit          = regexp.MustCompile(`\d`)
	legacyPlateInText = regexp.MustCompile(`\b([A-Z]{1,2}\d{4}[A-Z]{2})\b`)
	vinInText         = regexp.MustCompile(`\b([A-HJ-NPR-Z0-9]{17})\b`)
	plateNoise        = regexp.MustCompile(`[\s\-]`)

	variantValue   = regexp.MustCompile(`[/(]`)
	modelForbidden = regexp.MustCompile(`[/(*]`)
	modelShape     = regexp.MustCompile(`^[A-Za-z0-9 \-\.]{3,40}$`)
	modelFallback  = regexp.MustCompile(`[/()*]`)
	subLabel       = regexp.MustCompile(`^\(?\d\.\d\)?$`)
	intValue       = regexp.MustCompile(`^(\d{3,5})$`)
	kwValue        = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*(kW)?$`)
	cvValue        = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*(CV|HP)?$`)
	fuelValue      = regexp.MustCompile(`^[A-ZÁÉÍÓÚÜ/ ]{3,20}$`)
	co2Value       = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*(g/km)?$`)
	seatsValue     = regexp.MustCompile(`^(\d{1,2})$`)
	personalID     = regexp.MustCompile(`^(\d{8}[A-Z]|[XYZ]\d{7}[A-Z])$`)
	permitProvince = regexp.MustCompile(`^(BARCELONA|MADRID|RIOJA \(LA\)|LA RIOJA|TARRAGONA|GIRONA|LLEIDA|` +
		`VALENCIA|ALICANTE|SEVILLA|MALAGA|CADIZ|ZARAGOZA|BILBAO|` +
		`VIZCAYA|GUIPUZCOA|NAVARRA|MURCIA|ASTURIAS|CANTABRIA)$`)
)

// OCR confusions inside each half of a current-format plate.
var (
	plateDigitFix  = strings.NewReplacer("O", "0", "I", "1", "S", "5", "B", "8", "Z", "2", "G", "6")
	plateLetterFix = strings.NewReplacer("0", "O", "8", "B", "1", "I")
	idDigitFix     = strings.NewReplacer("O", "0", "I", "1", "S", "5", "B", "8", "Z", "2")
)

// correctPlate normalises a plate and, for the current format, undoes the
// usual digit/letter confusions in each half.
func correctPlate(raw string, modern bool) string {
	p := plateNoise.ReplaceAllString(strings.ToUpper(raw), "")
	if !modern || len(p) != 7 {
		return p
	}
	return plateDigitFix.Replace(p[:4]) + plateLetterFix.Replace(p[4:])
}

// findNoisyPlate returns the first current-format plate that only reads
// as one after correcting OCR confusions.
func findNoisyPlate(text string) string {
	for _, m := range noisyPlateInText.FindAllStringSubmatch(text, -1) {
		if !anyDigit.MatchString(m[1][:4]) {
			continue
		}
		if p := correctPlate(m[1], true); modernPlate.MatchString(p) {
			return p
		}
	}
	return ""
}

// correctOwnerID undoes digit confusions in the numeric part of a DNI/NIE.
func correctOwnerID(raw string) string {
	v := strings.NewReplacer(" ", "", "-", "").Replace(strings.ToUpper(strings.TrimSpace(raw)))
	if v == "" {
		return v
	}
	switch c := v[0]; {
	case c >= '0' && c <= '9':
		if len(v) <= 8 {
			return idDigitFix.Replace(v)
		}
		return idDigitFix.Replace(v[:8]) + v[8:]
	case c == 'X' || c == 'Y' || c == 'Z':
		if len(v) <= 8 {
			return v[:1] + idDigitFix.Replace(v[1:])
		}
		return v[:1] + idDigitFix.Replace(v[1:8]) + v[8:]
	}
	return v
}

// nextValue returns the first non-empty line among the four starting at
// idx+skip.
func nextValue(lines []string, idx, skip int) string {
	end := idx + skip + 4
	if end > len(lines) {
		end = len(lines)
	}
	for j := idx + skip; j < end; j++ {
		if v := strings.TrimSpace(lines[j]); v != "" {
			return v
		}
	}
	return ""
}

func inRange[T int | float64](v, lo, hi T) bool { return v >= lo && v <= hi }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// ownerParts collects the owner's name pieces, printed under separate codes.
type ownerParts struct {
	surnames string
	name     string
}

func (o ownerParts) fullName() *string {
	switch {
	case o.name != "" && o.surnames != "":
		return domain.StrPtr(o.name + " " + o.surnames)
	case o.surnames != "":
		return domain.StrPtr(o.surnames)
	case o.name != "":
		return domain.StrPtr(o.name)
	}
	return nil
}

// ExtractPermit reads a circulation permit by its EU field codes.
func ExtractPermit(text string) *domain.PermitRecord {
	rec := &domain.PermitRecord{}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	if m := modernPlateInText.FindStringSubmatch(text); m != nil {
		rec.Matricula = domain.StrPtr(correctPlate(m[1], true))
	} else if p := findNoisyPlate(text); p != "" {
		rec.Matricula = domain.StrPtr(p)
	} else if m := legacyPlateInText.FindStringSubmatch(text); m != nil {
		rec.Matricula = domain.StrPtr(correctPlate(m[1], false))
	}

	if m := vinInText.FindStringSubmatch(text); m != nil {
		rec.NumeroBastidor = domain.StrPtr(strings.ToUpper(m[1]))
	}

	var owner ownerParts
	for i, line := range lines {
		lu := strings.ToUpper(line)

		if codeD1.MatchString(lu) {
			if v := strings.ToUpper(nextValue(lines, i, 1)); v != "" {
				for _, brand := range knownBrands {
					if strings.Contains(v, brand) {
						rec.Marca = domain.StrPtr(brand)
						break
					}
				}
			}
		}

		if codeD2.MatchString(lu) {
			if v := nextValue(lines, i, 1); v != "" && variantValue.MatchString(v) {
				rec.VarianteVersion = domain.StrPtr(v)
			}
		}

		if codeD3.MatchString(lu) {
			end := i + 6
			if end > len(lines) {
				end = len(lines)
			}
			for j := i + 1; j < end; j++ {
				c := lines[j]
				if modelForbidden.MatchString(c) || !modelShape.MatchString(c) {
					continue
				}
				if domain.Present(rec.Marca) && strings.Contains(strings.ToUpper(c), *rec.Marca) {
					rec.Modelo = domain.StrPtr(c)
					break
				}
				if rec.Modelo == nil {
					rec.Modelo = domain.StrPtr(c)
				}
			}
		}

		if codeP1.MatchString(lu) {
			v := nextValue(lines, i, 1)
			if subLabel.MatchString(v) {
				if after := nextValue(lines, i+1, 1); after != "" {
					v = after
				}
			}
			if m := intValue.FindStringSubmatch(v); m != nil {
				if cc, _ := strconv.Atoi(m[1]); inRange(cc, 50, 10000) {
					rec.CilindradaCC = &cc
				}
			}
		}

		if codeP2.MatchString(lu) {
			if m := kwValue.FindStringSubmatch(nextValue(lines, i, 1)); m != nil {
				if kw, err := strconv.ParseFloat(m[1], 64); err == nil && inRange(kw, 1, 1000) {
					rec.PotenciaKW = &kw
				}
			}
		}

		if rec.PotenciaKW == nil && codeCV.MatchString(lu) {
			if m := cvValue.FindStringSubmatch(nextValue(lines, i, 1)); m != nil {
				if cv, err := strconv.ParseFloat(m[1], 64); err == nil && inRange(cv, 1, 1500) {
					kw := round1(cv * cvToKW)
					rec.PotenciaKW = &kw
				}
			}
		}

		if codeP3.MatchString(lu) {
			if v := strings.ToUpper(nextValue(lines, i, 1)); v != "" && fuelValue.MatchString(v) {
				rec.Combustible = domain.StrPtr(strings.TrimSpace(v))
			}
		}

		if codeV7.MatchString(lu) {
			if m := co2Value.FindStringSubmatch(nextValue(lines, i, 1)); m != nil {
				if co2, err := strconv.ParseFloat(m[1], 64); err == nil && inRange(co2, 0, 999) {
					rec.EmissionsCO2 = &co2
				}
			}
		}

		if codeF1.MatchString(lu) {
			v := nextValue(lines, i, 1)
			// The B box of the form is often read between label and value.
			if strings.ToUpper(v) == "B" {
				v = nextValue(lines, i, 2)
			}
			if m := intValue.FindStringSubmatch(v); m != nil {
				if kg, _ := strconv.Atoi(m[1]); inRange(kg, 500, 50000) {
					rec.MasaMaxima = &kg
				}
			}
		}

		if codeG.MatchString(lu) || codeGI.MatchString(lu) {
			v := nextValue(lines, i, 1)
			if u := strings.ToUpper(v); u == "I" || u == "1" {
				v = nextValue(lines, i, 2)
			}
			if m := intValue.FindStringSubmatch(v); m != nil {
				if kg, _ := strconv.Atoi(m[1]); inRange(kg, 300, 20000) {
					rec.MasaOrdenMarcha = &kg
				}
			}
		}

		if codeS1.MatchString(lu) {
			if m := seatsValue.FindStringSubmatch(nextValue(lines, i, 1)); m != nil {
				if seats, _ := strconv.Atoi(m[1]); inRange(seats, 1, 100) {
					rec.Plazas = &seats
				}
			}
		}

		if codeC11.MatchString(lu) {
			if v := nextValue(lines, i, 1); v != "" && !codeC1.MatchString(strings.ToUpper(v)) {
				owner.surnames = v
			}
		}

		if codeC12.MatchString(lu) {
			if v := nextValue(lines, i, 1); v != "" && !codeC1.MatchString(strings.ToUpper(v)) {
				owner.name = v
			}
		}

		if codeC13.MatchString(lu) {
			if v := nextValue(lines, i, 1); v != "" {
				if id := correctOwnerID(v); personalID.MatchString(id) {
					rec.TitularNIF = domain.StrPtr(id)
				}
			}
		}

		if strings.Contains(lu, "PROXIMA ITV") || strings.Contains(lu, "PRÓXIMA ITV") {
			if d := normalize.FirstDate(line, normalize.DateAnySep, permitYears); d != nil {
				rec.ProximaITV = d
			}
		}

		if strings.Contains(lu, "OBSERVACION") || strings.Contains(lu, "OBSERVACIÓ") {
			end := i + 6
			if end > len(lines) {
				end = len(lines)
			}
			if i+1 < end {
				rec.Observaciones = domain.StrPtr(strings.Join(lines[i+1:end], " "))
			}
		}

		if rec.Provincia == nil && permitProvince.MatchString(lu) {
			rec.Provincia = domain.StrPtr(line)
		}
	}

	rec.TitularNombre = owner.fullName()

	if dates := normalize.AllDates(text, normalize.DateAnySep, permitYears); len(dates) > 0 && rec.FechaMatriculacion == nil {
		rec.FechaMatriculacion = domain.StrPtr(dates[0])
	}

	if rec.Marca == nil {
		for i, brand := range knownBrands {
			if brandInText[i].MatchString(text) {
				rec.Marca = domain.StrPtr(brand)
				break
			}
		}
	}

	if rec.Modelo == nil && domain.Present(rec.Marca) {
		brand := *rec.Marca
		for _, l := range lines {
			if strings.Contains(strings.ToUpper(l), brand) && len(l) > len(brand)+2 && !modelFallback.MatchString(l) {
				rec.Modelo = domain.StrPtr(l)
				break
			}
		}
	}

	if rec.Categoria == nil && rec.Plazas != nil {
		switch {
		case *rec.Plazas <= 9:
			rec.Categoria = domain.StrPtr("M1")
		case *rec.Plazas <= 16:
			rec.Categoria = domain.StrPtr("M2")
		}
	}
	if domain.Present(rec.Categoria) {
		rec.TipoVehiculo = domain.StrPtr(VehicleType(strings.ToUpper(strings.TrimSpace(*rec.Categoria))))
	}
	if rec.Servicio == nil {
		rec.Servicio = domain.StrPtr("PARTICULAR")
	}
	return rec
}

// PermitProcessor handles vehicle circulation permits.
type PermitProcessor struct {
	clock
}

// NewPermitProcessor creates a new circulation permit processor
func NewPermitProcessor(opts ...Option) *PermitProcessor {
	return &PermitProcessor{clock: newClock(opts)}
}

func (p *PermitProcessor) Name() string { return "permit" }

func (p *PermitProcessor) CanProcess(docType domain.DocumentType) bool {
	return docType == domain.DocumentTypePermit
}

func (p *PermitProcessor) Extract(text string) *Extraction {
	return &Extraction{Record: ExtractPermit(text), Text: text}
}

func (p *PermitProcessor) Validate(ex *Extraction, engine string, engineConfidence float64) *domain.ValidationResult {
	return ValidatePermit(ex.Record.(*domain.PermitRecord), engine, engineConfidence, p.now())
}

func (p *PermitProcessor) ShouldEscalate(ex *Extraction, engineConfidence float64) domain.Decision {
	return PermitEscalation(ex.Record.(*domain.PermitRecord), engineConfidence)
}

// ValidatePermit checks a permit record and builds its result. Fiscal
// power is derived from kW when absent.
func ValidatePermit(rec *domain.PermitRecord, engine string, engineConfidence float64, now time.Time) *domain.ValidationResult {
	f := domain.NewFindings()
	todayISO := today(now)

	missing := 0
	for _, v := range []*string{rec.Matricula, rec.NumeroBastidor, rec.Marca, rec.Modelo, rec.TitularNombre} {
		if !domain.Present(v) {
			missing++
		}
	}

	if domain.Present(rec.Matricula) {
		if res := checksum.ValidatePlate(*rec.Matricula); !res.Valid {
			msg := fmt.Sprintf("Format invàlid '%s' (esperat: 4 dígits + 3 lletres)", *rec.Matricula)
			if res.BadLetters != "" {
				msg = fmt.Sprintf("Lletres no permeses en matrícula: %s (vocals i Q excloses)",
					strings.Join(strings.Split(res.BadLetters, ""), ", "))
			}
			f.Error(domain.Finding{
				Code:         "VEH_PLATE_INVALID",
				Severity:     domain.SeverityCritical,
				Field:        "matricula",
				Message:      msg,
				Evidence:     *rec.Matricula,
				SuggestedFix: "Verificar format: 4 dígits + 3 consonants (sense vocals ni Q).",
			})
		}
	} else {
		f.Error(domain.Finding{
			Code:         "VEH_MISSING_FIELD",
			Severity:     domain.SeverityCritical,
			Field:        "matricula",
			Message:      "Matrícula no detectada.",
			SuggestedFix: "Verificar qualitat de la imatge o orientació.",
		})
	}

	if domain.Present(rec.NumeroBastidor) {
		validateVIN(*rec.NumeroBastidor, f)
	} else {
		f.Alert(domain.Finding{
			Code:     "VEH_MISSING_FIELD",
			Severity: domain.SeverityError,
			Field:    "numero_bastidor",
			Message:  "Número de bastidor (VIN) no detectat.",
		})
	}

	if domain.Present(rec.TitularNIF) {
		validateOwnerID(*rec.TitularNIF, f)
	}

	if d := rec.FechaMatriculacion; domain.Present(d) && (*d < "1970-01-01" || *d > todayISO) {
		f.Error(domain.Finding{
			Code:     "VEH_DATES_INCONSISTENT",
			Severity: domain.SeverityError,
			Field:    "fecha_matriculacion",
			Message:  "Data de matriculació fora de rang.",
			Evidence: *d,
		})
	}
	if domain.Present(rec.FechaPrimeraMatriculacion) && domain.Present(rec.FechaMatriculacion) &&
		*rec.FechaPrimeraMatriculacion > *rec.FechaMatriculacion {
		f.Alert(domain.Finding{
			Code:     "VEH_DATES_INCONSISTENT",
			Severity: domain.SeverityWarning,
			Field:    "fecha_primera_matriculacion",
			Message:  "Data 1a matriculació posterior a data del permís.",
			Evidence: fmt.Sprintf("1a: %s, permís: %s", *rec.FechaPrimeraMatriculacion, *rec.FechaMatriculacion),
		})
	}
	if domain.Present(rec.FechaExpedicion) && domain.Present(rec.FechaMatriculacion) &&
		*rec.FechaExpedicion < *rec.FechaMatriculacion {
		f.Alert(domain.Finding{
			Code:     "VEH_DATES_INCONSISTENT",
			Severity: domain.SeverityWarning,
			Field:    "fecha_expedicion",
			Message:  "Data d'expedició anterior a la matriculació.",
			Evidence: fmt.Sprintf("Expedició: %s, Matriculació: %s", *rec.FechaExpedicion, *rec.FechaMatriculacion),
		})
	}

	if domain.Present(rec.Marca) && domain.Present(rec.Modelo) {
		if known := modelsByBrand[strings.ToUpper(*rec.Marca)]; len(known) > 0 &&
			!normalize.ContainsAny(strings.ToUpper(*rec.Modelo), known) {
			f.Alert(domain.Finding{
				Code:         "VEH_OCR_SUSPECT",
				Severity:     domain.SeverityWarning,
				Field:        "modelo",
				Message:      fmt.Sprintf("Model '%s' no figura a la llista coneguda per %s.", *rec.Modelo, *rec.Marca),
				Evidence:     *rec.Modelo,
				SuggestedFix: "Model poc comú o possible error OCR. Verificar manualment.",
			})
		}
	}

	if rec.CilindradaCC != nil && rec.PotenciaKW != nil && *rec.CilindradaCC > 0 {
		ratio := *rec.PotenciaKW / float64(*rec.CilindradaCC)
		if !inRange(ratio, 0.02, 0.20) {
			f.Alert(domain.Finding{
				Code:     "VEH_OCR_SUSPECT",
				Severity: domain.SeverityWarning,
				Field:    "potencia_kw",
				Message:  fmt.Sprintf("Relació potència/cilindrada inusual (%.3f kW/cc).", ratio),
				Evidence: fmt.Sprintf("%v kW / %v cc", *rec.PotenciaKW, *rec.CilindradaCC),
			})
		}
	}

	if rec.PotenciaKW != nil && rec.PotenciaFiscal == nil {
		fiscal := round1(*rec.PotenciaKW * 1.36)
		rec.PotenciaFiscal = &fiscal
	}

	if rec.MasaMaxima != nil && rec.MasaOrdenMarcha != nil && *rec.MasaOrdenMarcha > *rec.MasaMaxima {
		f.Error(domain.Finding{
			Code:     "VEH_MASS_INCONSISTENT",
			Severity: domain.SeverityError,
			Field:    "masa_orden_marcha",
			Message: fmt.Sprintf("Massa en ordre de marxa (%d kg) superior a massa màxima (%d kg).",
				*rec.MasaOrdenMarcha, *rec.MasaMaxima),
			Evidence: fmt.Sprintf("%d > %d", *rec.MasaOrdenMarcha, *rec.MasaMaxima),
		})
	}

	if !domain.Present(rec.TitularNombre) {
		f.Alert(domain.Finding{
			Code:     "VEH_MISSING_FIELD",
			Severity: domain.SeverityError,
			Field:    "titular_nombre",
			Message:  "Nom del titular no detectat.",
		})
	}

	if !domain.Present(rec.Marca) {
		f.Error(domain.Finding{
			Code:     "VEH_MISSING_FIELD",
			Severity: domain.SeverityCritical,
			Field:    "marca",
			Message:  "Marca del vehicle no detectada.",
		})
	}

	valid := !f.HasCritical() && domain.Present(rec.Matricula) && domain.Present(rec.Marca)

	msg := "Permís amb errors que requereixen revisió."
	if valid {
		msg = "Permís processat correctament."
	}

	return &domain.ValidationResult{
		Valid:        valid,
		Confidence:   scoring.Confidence(f.Alerts, f.Errors, missing, engineConfidence),
		DocumentType: domain.DocumentTypePermit,
		Data:         rec,
		Alerts:       f.Alerts,
		Errors:       f.Errors,
		Raw:          domain.NewRawOCR(engine, engineConfidence),
		Meta:         domain.Meta{Success: valid, Message: resultMessage(engine, msg)},
	}
}

func validateVIN(vin string, f *domain.Findings) {
	res := checksum.ValidateVIN(vin)
	switch res.Problem {
	case checksum.VINBadLength:
		f.Error(domain.Finding{
			Code:     "VEH_VIN_INVALID_LENGTH",
			Severity: domain.SeverityCritical,
			Field:    "numero_bastidor",
			Message:  fmt.Sprintf("VIN ha de tenir 17 caràcters (té %d): '%s'", len([]rune(res.Normalized)), res.Normalized),
			Evidence: vin,
		})
	case checksum.VINBadChars:
		if strings.ContainsAny(res.Normalized, "IOQ") {
			f.Error(domain.Finding{
				Code:     "VEH_VIN_INVALID_CHARS",
				Severity: domain.SeverityCritical,
				Field:    "numero_bastidor",
				Message:  "VIN conté caràcters prohibits (I/O/Q).",
				Evidence: vin,
			})
		}
		f.Error(domain.Finding{
			Code:     "VEH_VIN_INVALID_CHARS",
			Severity: domain.SeverityCritical,
			Field:    "numero_bastidor",
			Message:  "VIN conté caràcters no alfanumèrics vàlids",
			Evidence: vin,
		})
	case checksum.VINBadCheckDigit:
		f.Alert(domain.Finding{
			Code:     "VEH_VIN_CHECKDIGIT",
			Severity: domain.SeverityWarning,
			Field:    "numero_bastidor",
			Message: fmt.Sprintf("Dígit de control VIN no coincideix (posició 9: trobat '%s', esperat '%s'). "+
				"Normal en vehicles EU/asiàtics.", res.Observed, res.Expected),
			Evidence: vin,
		})
	}
}

// validateOwnerID checks the owner's DNI/NIE letter. Organisation CIFs are
// accepted on format alone.
func validateOwnerID(id string, f *domain.Findings) {
	var msg string
	switch res := checksum.ValidateID(id); {
	case res.Valid:
		return
	case res.Kind != checksum.KindUnknown:
		msg = fmt.Sprintf("Lletra de control %s incorrecta: '%s' (esperada '%s')", res.Kind, lastChar(res.Normalized), res.Expected)
	case checksum.ClassifyID(id) == checksum.KindCIF:
		return
	default:
		msg = fmt.Sprintf("Format NIF/DNI/NIE/CIF no reconegut: '%s'", strings.ToUpper(strings.TrimSpace(id)))
	}
	f.Error(domain.Finding{
		Code:         "VEH_OWNER_ID_INVALID",
		Severity:     domain.SeverityError,
		Field:        "titular_nif",
		Message:      msg,
		Evidence:     id,
		SuggestedFix: "Verificar NIF/CIF del titular manualment.",
	})
}

const permitMinConfidence = 50

// PermitEscalation decides whether a permit read by the cheap engine should
// be re-read by the costed one.
func PermitEscalation(rec *domain.PermitRecord, confidence float64) domain.Decision {
	switch {
	case !domain.Present(rec.Matricula):
		return domain.Decision{Escalate: true, Reason: "matricula_absent"}
	case !domain.Present(rec.Marca):
		return domain.Decision{Escalate: true, Reason: "marca_absent"}
	case confidence < permitMinConfidence:
		return domain.Decision{Escalate: true, Reason: fmt.Sprintf("confidence_baixa:%.0f", confidence)}
	case !checksum.ValidatePlate(*rec.Matricula).Valid:
		return domain.Decision{Escalate: true, Reason: "matricula_invalida"}
	}
	return domain.Decision{Reason: domain.Accepted}
}
