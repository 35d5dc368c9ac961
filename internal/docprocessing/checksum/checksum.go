// Package checksum implements the control-character algorithms of Spanish
// identifiers: DNI/NIE check letter, CIF control character, VIN check digit
// and the current plate format.
package checksum

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies an identifier by its format.
type Kind string

const (
	KindUnknown Kind = ""
	KindDNI     Kind = "DNI"
	KindNIE     Kind = "NIE"
	KindCIF     Kind = "CIF"
)

// Result contains the outcome of a checksum validation
type Result struct {
	Valid bool
	Kind  Kind
	// Normalized is the trimmed, upper-cased input.
	Normalized string
	// Expected is the control character the algorithm computed. Empty when
	// the format was not recognised.
	Expected string
	Message  string
}

const dniLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

var (
	dniPattern = regexp.MustCompile(`^\d{8}[A-Z]$`)
	niePattern = regexp.MustCompile(`^[XYZ]\d{7}[A-Z]$`)
	cifPattern = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSUVW]\d{7}[A-J0-9]$`)
)

var niePrefix = map[byte]byte{'X': '0', 'Y': '1', 'Z': '2'}

// ClassifyID returns the format of a personal ID number without checking it.
func ClassifyID(value string) Kind {
	clean := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case dniPattern.MatchString(clean):
		return KindDNI
	case niePattern.MatchString(clean):
		return KindNIE
	case cifPattern.MatchString(clean):
		return KindCIF
	}
	return KindUnknown
}

// ValidateID validates a DNI (8 digits + letter) or NIE (X/Y/Z + 7 digits + letter).
func ValidateID(value string) *Result {
	clean := strings.ToUpper(strings.TrimSpace(value))

	var digits string
	var kind Kind
	switch {
	case dniPattern.MatchString(clean):
		kind = KindDNI
		digits = clean[:8]
	case niePattern.MatchString(clean):
		kind = KindNIE
		digits = string(niePrefix[clean[0]]) + clean[1:8]
	default:
		return &Result{Normalized: clean, Message: "unrecognised DNI/NIE format"}
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return &Result{Normalized: clean, Message: "unrecognised DNI/NIE format"}
	}
	expected := string(dniLetters[n%23])
	if clean[8:] != expected {
		return &Result{Kind: kind, Normalized: clean, Expected: expected, Message: "check letter mismatch"}
	}
	return &Result{Valid: true, Kind: kind, Normalized: clean, Expected: expected}
}

// IDCheckLetter returns the check letter for an 8-digit DNI body.
func IDCheckLetter(number int) string {
	return string(dniLetters[number%23])
}

const cifControlLetters = "JABCDEFGHI"

// ValidateCIF validates an organisation tax ID.
// Format: type letter + 7 digits + control character. Inner spaces are not
// tolerated.
func ValidateCIF(value string) *Result {
	clean := strings.ToUpper(strings.TrimSpace(value))
	if !cifPattern.MatchString(clean) {
		return &Result{Normalized: clean, Message: "unrecognised CIF format"}
	}

	digit, letter := cifControl(clean[1:8])
	control := clean[8:]

	var ok bool
	var expected string
	switch clean[0] {
	case 'A', 'B', 'E', 'H':
		ok = control == digit
		expected = digit
	case 'K', 'P', 'Q', 'S':
		ok = control == letter
		expected = letter
	default:
		ok = control == digit || control == letter
		expected = digit + "/" + letter
	}
	if !ok {
		return &Result{Kind: KindCIF, Normalized: clean, Expected: expected, Message: "control character mismatch"}
	}
	return &Result{Valid: true, Kind: KindCIF, Normalized: clean, Expected: expected}
}

// cifControl computes the control digit and letter of a 7-digit CIF body.
// Digits at even offsets are doubled with digit-sum correction, odd offsets
// are added as-is.
func cifControl(body string) (digit, letter string) {
	total := 0
	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d >= 10 {
				d -= 9
			}
		}
		total += d
	}
	c := (10 - total%10) % 10
	return strconv.Itoa(c), string(cifControlLetters[c])
}
