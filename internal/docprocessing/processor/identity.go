package processor

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
)

// Labels printed on the identity card, Spanish and Catalan. A value read
// across several lines stops at the next line holding one of these.
var identityLabels = []string{
	"APELLIDOS", "COGNOMS", "NOMBRE", "NOM", "SEXO", "SEXE",
	"NACIONALIDAD", "NACIONALITAT", "FECHA", "DATA",
	"DOMICILIO", "DOMICILI", "LUGAR", "LLOC", "PADRE", "PARE",
	"MADRE", "MARE", "DNI", "EQUIPO", "EQUIP", "IDNUM",
}

// Keywords that end the address block on the back of the card.
var residenceStop = []string{
	"FECHA", "DATA", "LUGAR", "LLOC", "PADRE", "PARE",
	"MADRE", "MARE", "EQUIPO", "EQUIP", "HIJO", "FILL",
	"IDNUM", "TEAM",
}

var parentLabels = []string{"PADRE", "PARE", "MADRE", "MARE"}

var (
	idNumberInText   = regexp.MustCompile(`\b(\d{8}[A-Z]|[XYZ]\d{7}[A-Z])\b`)
	residenceLabel   = regexp.MustCompile(`D[O0]MICILI[O0]`)
	postalSplit      = regexp.MustCompile(`(\d{5})`)
	residenceSameRow = []*regexp.Regexp{
		regexp.MustCompile(`(?i)D[O0]MICILI[O0]/D[O0]MICILI\s+(.+)$`),
		regexp.MustCompile(`(?i)D[O0]MICILI[O0]\s+(.+)$`),
		regexp.MustCompile(`(?i)DOMICILI\s+(.+)$`),
	}
)

// readField joins lines from start until a blank line or, after the first
// line, a line holding another label.
func readField(lines []string, start int) string {
	var parts []string
	for j := start; j < len(lines); j++ {
		lc := strings.TrimSpace(lines[j])
		if lc == "" {
			break
		}
		if j > start && normalize.ContainsAny(strings.ToUpper(lc), identityLabels) {
			break
		}
		parts = append(parts, lc)
	}
	return strings.Join(parts, " ")
}

// isMixedToken reports tokens mixing letters and digits, such as the
// support number printed next to the surnames.
func isMixedToken(tok string) bool {
	var digit, letter bool
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
	}
	return digit && letter
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func lineAfter(lines []string, i int) (string, bool) {
	if i+1 < len(lines) {
		return lines[i+1], true
	}
	return "", false
}

// ExtractIdentityKeywords reads an identity card by its printed labels.
func ExtractIdentityKeywords(text string, now time.Time) *domain.IdentityRecord {
	rec := &domain.IdentityRecord{}

	if m := idNumberInText.FindStringSubmatch(text); m != nil {
		rec.NumeroDocumento = domain.StrPtr(m[1])
		rec.TipoNumero = kindOf(m[1])
	}

	birthYears := normalize.YearRange{Min: 1900, Max: now.Year()}
	validityYears := normalize.YearRange{Min: 2000, Max: 2060}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lu := strings.ToUpper(line)
		next, hasNext := lineAfter(lines, i)

		switch {
		case strings.Contains(lu, "APELLIDOS") || strings.Contains(lu, "COGNOMS"):
			if !hasNext {
				continue
			}
			var kept []string
			for _, tok := range strings.Fields(readField(lines, i+1)) {
				if !isMixedToken(tok) {
					kept = append(kept, tok)
				}
			}
			rec.Apellidos = nonEmpty(strings.Join(kept, " "))

		case strings.Contains(lu, "NOMBRE") || strings.Contains(lu, "NOM"):
			if normalize.ContainsAny(lu, parentLabels) || !hasNext {
				continue
			}
			tokens := strings.Fields(readField(lines, i+1))
			if len(tokens) > 0 && len([]rune(tokens[0])) == 1 {
				tokens = tokens[1:]
			}
			rec.Nombre = nonEmpty(strings.Join(tokens, " "))

		case residenceLabel.MatchString(lu) || strings.Contains(lu, "DOMICILI"):
			applyResidence(rec, residenceLines(lines, i))

		case (strings.Contains(lu, "FECHA") && strings.Contains(lu, "NACIMIENTO")) ||
			(strings.Contains(lu, "DATA") && strings.Contains(lu, "NAIXEMENT")):
			if hasNext {
				rec.FechaNacimiento = normalize.FirstDate(next, normalize.DateSpaceSlash, birthYears)
			}

		case (strings.Contains(lu, "NACIMIENTO") || strings.Contains(lu, "NAIXEMENT")) &&
			!normalize.ContainsAny(lu, []string{"FECHA", "DATA", "LUGAR", "LLOC"}):
			if hasNext && rec.FechaNacimiento == nil {
				rec.FechaNacimiento = normalize.FirstDate(next, normalize.DateSpaceSlash, birthYears)
			}

		case strings.Contains(lu, "VALIDEZ") || strings.Contains(lu, "VALIDESA"):
			if hasNext {
				rec.FechaCaducidad = normalize.LastDate(next, normalize.DateSpaceSlash, validityYears)
			}

		case strings.Contains(lu, "SEXO") || strings.Contains(lu, "SEXE"):
			if hasNext {
				if sex := sexFromLabel(next); sex != nil {
					rec.Sexo = sex
				}
			}

		case strings.Contains(lu, "NACIONALIDAD") || strings.Contains(lu, "NACIONALITAT"):
			if !hasNext {
				continue
			}
			nv := strings.TrimSpace(next)
			switch {
			case len([]rune(nv)) <= 3 && isAlpha(nv):
				rec.Nacionalidad = domain.StrPtr(strings.ToUpper(nv))
			case strings.Contains(strings.ToUpper(nv), "ESPA"):
				rec.Nacionalidad = domain.StrPtr("ESP")
			}

		case (strings.Contains(lu, "LUGAR") && strings.Contains(lu, "NACIMIENTO")) ||
			(strings.Contains(lu, "LLOC") && strings.Contains(lu, "NAIXEMENT")):
			if hasNext {
				rec.LugarNacimiento = domain.StrPtr(strings.TrimSpace(next))
			}

		case strings.Contains(lu, "PADRE") || strings.Contains(lu, "PARE"):
			if hasNext {
				rec.NombrePadre = domain.StrPtr(strings.TrimSpace(next))
			}

		case strings.Contains(lu, "MADRE") || strings.Contains(lu, "MARE"):
			if hasNext {
				rec.NombreMadre = domain.StrPtr(strings.TrimSpace(next))
			}
		}
	}

	if domain.Present(rec.Nombre) && domain.Present(rec.Apellidos) {
		rec.NombreCompleto = domain.StrPtr(*rec.Nombre + " " + *rec.Apellidos)
	}
	return rec
}

// sexFromLabel maps the value under the sex label. Catalan cards print
// H/D (home/dona).
func sexFromLabel(line string) *string {
	sv := strings.ToUpper(strings.TrimSpace(line))
	if len([]rune(sv)) > 6 {
		return nil
	}
	switch sv {
	case "M", "H", "HOME", "HOMBRE":
		return domain.StrPtr("M")
	case "F", "D", "V", "DONA", "MUJER":
		return domain.StrPtr("F")
	}
	return nil
}

// residenceLines returns the address block for the label on lines[i]: the
// same-line value split around its postal code, or up to eight lines below.
func residenceLines(lines []string, i int) []string {
	for _, re := range residenceSameRow {
		m := re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(m[1])
		var out []string
		idx := postalSplit.FindAllStringIndex(rest, -1)
		prev := 0
		for _, loc := range idx {
			out = appendTrimmed(out, rest[prev:loc[0]])
			out = appendTrimmed(out, rest[loc[0]:loc[1]])
			prev = loc[1]
		}
		return appendTrimmed(out, rest[prev:])
	}
	return normalize.ReadAddressLines(lines, i, 8, residenceStop)
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

func applyResidence(rec *domain.IdentityRecord, lines []string) {
	if len(lines) == 0 {
		return
	}
	a := normalize.DecomposeResidence(lines)
	rec.Domicilio = a.Full
	rec.Calle = a.Street
	rec.Numero = a.Number
	rec.CodigoPostal = a.PostalCode
	rec.Provincia = a.Province
	rec.Municipio = a.Municipality
}

// ExtractIdentity combines the MRZ and keyword readings of an identity
// card. The MRZ wins when it yields a document number; address, birthplace
// and parents always come from the printed text.
func ExtractIdentity(text string, now time.Time) (*domain.IdentityRecord, string) {
	rec, raw, ok := ParseMRZ(text, now)
	if !ok || rec.NumeroDocumento == nil {
		return ExtractIdentityKeywords(text, now), ""
	}

	kw := ExtractIdentityKeywords(text, now)

	// The printed number stays on the record and the MRZ one on rec.MRZ,
	// so validation can cross-check them.
	if domain.Present(kw.NumeroDocumento) {
		rec.NumeroDocumento = kw.NumeroDocumento
		rec.TipoNumero = kw.TipoNumero
	}

	for _, f := range []struct{ dst, src **string }{
		{&rec.Domicilio, &kw.Domicilio},
		{&rec.Calle, &kw.Calle},
		{&rec.Numero, &kw.Numero},
		{&rec.PisoPuerta, &kw.PisoPuerta},
		{&rec.Municipio, &kw.Municipio},
		{&rec.Provincia, &kw.Provincia},
		{&rec.CodigoPostal, &kw.CodigoPostal},
		{&rec.LugarNacimiento, &kw.LugarNacimiento},
		{&rec.NombrePadre, &kw.NombrePadre},
		{&rec.NombreMadre, &kw.NombreMadre},
	} {
		if domain.Present(*f.src) {
			*f.dst = *f.src
		}
	}

	// The MRZ drops the filler between compound surnames more often than
	// the printed text does.
	if domain.Present(kw.Apellidos) && strings.Contains(*kw.Apellidos, " ") &&
		(!domain.Present(rec.Apellidos) || !strings.Contains(*rec.Apellidos, " ")) {
		rec.Apellidos = kw.Apellidos
		if domain.Present(rec.Nombre) {
			rec.NombreCompleto = domain.StrPtr(*rec.Nombre + " " + *rec.Apellidos)
		}
	}
	return rec, raw
}
