package processor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
)

// Spanish identity cards carry an ICAO 9303 TD1 zone on the back:
// 3 lines x 30 chars. OCR output rarely keeps the fixed width, so fields
// are read from space-stripped lines by position.
const (
	mrzLineCount  = 3
	mrzMinLineLen = 30
)

var (
	mrzDocNumber  = regexp.MustCompile(`(\d{8}[A-Z]|[XYZ]\d{7}[A-Z])`)
	mrzFillerRuns = regexp.MustCompile(` *< *`)
	mrzDigits6    = regexp.MustCompile(`^\d{6}$`)
	mrzYears      = normalize.YearRange{Min: 1900, Max: 2099}
)

// collectMRZLines returns the first three candidate MRZ lines. The first
// must start with "ID"; the following ones only need the minimum length.
func collectMRZLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		clean := strings.ToUpper(strings.TrimSpace(line))
		if len(clean) < mrzMinLineLen {
			continue
		}
		if len(lines) == 0 && !strings.HasPrefix(clean, "ID") {
			continue
		}
		lines = append(lines, clean)
		if len(lines) == mrzLineCount {
			break
		}
	}
	return lines
}

// ParseMRZ reads the identity-card MRZ found in text. ok is false when no
// complete zone is present or a positional field cannot be read.
func ParseMRZ(text string, now time.Time) (rec *domain.IdentityRecord, raw string, ok bool) {
	// OCR noise must never take the request down
	defer func() {
		if r := recover(); r != nil {
			rec, raw, ok = nil, "", false
		}
	}()

	lines := collectMRZLines(text)
	if len(lines) < mrzLineCount {
		return nil, "", false
	}

	// Line 1: document code, issuing state, support number, document number
	line1 := strings.ReplaceAll(lines[0], " ", "")
	var docNumber *string
	if m := mrzDocNumber.FindString(line1); m != "" {
		docNumber = &m
	}

	// Line 2: YYMMDD birth, check, sex, YYMMDD expiry, check, nationality
	line2 := strings.ReplaceAll(lines[1], " ", "")
	if len(line2) < 14 {
		return nil, "", false
	}
	birthRaw, expiryRaw := line2[0:6], line2[8:14]
	if !mrzDigits6.MatchString(birthRaw) || !mrzDigits6.MatchString(expiryRaw) {
		return nil, "", false
	}
	sexRaw := line2[7:8]
	var nationality *string
	if len(line2) >= 18 {
		nationality = nonEmpty(strings.ReplaceAll(line2[15:18], "<", ""))
	}

	// Line 3: SURNAME<SURNAME<<NAME<NAME
	line3 := strings.ReplaceAll(mrzFillerRuns.ReplaceAllString(lines[2], "<"), " ", "<")
	var surname, name *string
	if before, after, found := strings.Cut(line3, "<<"); found {
		surname = nonEmpty(cleanMRZName(before))
		name = nonEmpty(cleanMRZName(after))
	} else {
		surname = nonEmpty(cleanMRZName(line3))
	}

	raw = strings.Join(lines, "\n")
	yy := now.Year() % 100

	rec = &domain.IdentityRecord{
		NumeroDocumento: docNumber,
		Nombre:          name,
		Apellidos:       surname,
		Sexo:            mrzSex(sexRaw),
		Nacionalidad:    nationality,
		FechaNacimiento: mrzDateToISO(birthRaw, yy),
		FechaCaducidad:  mrzDateToISO(expiryRaw, yy),
		MRZ: &domain.MRZ{
			Raw:            raw,
			DocumentNumber: docNumber,
			Surname:        surname,
			Name:           name,
			Nationality:    nationality,
			BirthDate:      domain.StrPtr(birthRaw),
			ExpiryDate:     domain.StrPtr(expiryRaw),
			Sex:            domain.StrPtr(sexRaw),
		},
	}
	if docNumber != nil {
		rec.TipoNumero = kindOf(*docNumber)
	}
	if rec.Nacionalidad == nil {
		rec.Nacionalidad = domain.StrPtr("ESP")
	}
	if name != nil && surname != nil {
		rec.NombreCompleto = domain.StrPtr(*name + " " + *surname)
	}
	return rec, raw, true
}

// mrzDateToISO expands YYMMDD. Two-digit years more than ten years ahead
// of the current one belong to the previous century.
func mrzDateToISO(yymmdd string, currentYY int) *string {
	yy, _ := strconv.Atoi(yymmdd[0:2])
	century := 2000
	if yy > currentYY+10 {
		century = 1900
	}
	return normalize.DMYToISO(yymmdd[4:6], yymmdd[2:4], strconv.Itoa(century+yy), mrzYears)
}

func mrzSex(s string) *string {
	if s == "M" || s == "F" {
		return &s
	}
	return nil
}

func cleanMRZName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", " "))
}

func kindOf(number string) *string {
	switch k := checksum.ClassifyID(number); k {
	case checksum.KindDNI, checksum.KindNIE:
		s := string(k)
		return &s
	}
	return nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
