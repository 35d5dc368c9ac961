package checksum

import (
	"regexp"
	"strconv"
	"strings"
)

// VINProblem describes why a VIN failed validation.
type VINProblem string

const (
	VINOK            VINProblem = ""
	VINBadLength     VINProblem = "length"
	VINBadChars      VINProblem = "chars"
	VINBadCheckDigit VINProblem = "checkdigit"
)

// VINResult contains the outcome of VIN validation
type VINResult struct {
	Normalized string
	Problem    VINProblem
	// Expected and Observed are set for check digit mismatches.
	Expected string
	Observed string
}

// Valid reports whether the VIN passed every check.
func (r *VINResult) Valid() bool { return r.Problem == VINOK }

var (
	vinCharset = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	vinCleaner = strings.NewReplacer(" ", "", "-", "")
	vinWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}
	vinLetters = map[rune]int{
		'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
		'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
		'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
	}
)

// NormalizeVIN upper-cases a VIN and strips spaces and dashes.
func NormalizeVIN(vin string) string {
	return vinCleaner.Replace(strings.ToUpper(vin))
}

// ValidateVIN validates a 17-character vehicle identification number.
// The ISO 3779 check digit at position 9 is verified last; most European
// manufacturers do not use it, so callers treat a mismatch as a warning.
func ValidateVIN(vin string) *VINResult {
	clean := NormalizeVIN(vin)
	res := &VINResult{Normalized: clean}

	if len(clean) != 17 {
		res.Problem = VINBadLength
		return res
	}
	if strings.ContainsAny(clean, "IOQ") || !vinCharset.MatchString(clean) {
		res.Problem = VINBadChars
		return res
	}

	expected := VINCheckDigit(clean)
	if observed := clean[8:9]; observed != expected {
		res.Problem = VINBadCheckDigit
		res.Expected = expected
		res.Observed = observed
	}
	return res
}

// VINCheckDigit computes the check digit of a normalised 17-character VIN.
// A remainder of 10 is written as X.
func VINCheckDigit(vin string) string {
	total := 0
	for i, c := range vin {
		if i >= len(vinWeights) {
			break
		}
		v, ok := vinLetters[c]
		if !ok {
			v = int(c - '0')
		}
		total += v * vinWeights[i]
	}
	rem := total % 11
	if rem == 10 {
		return "X"
	}
	return strconv.Itoa(rem)
}

var (
	modernPlate = regexp.MustCompile(`^\d{4}[A-Z]{3}$`)
	legacyPlate = regexp.MustCompile(`^[A-Z]{1,2}\d{4}[A-Z]{2}$`)
)

// Letters allowed in the series of a current-format plate: no vowels, no Ñ, no Q.
const plateLetters = "BCDFGHJKLMNPRSTVWXYZ"

// PlateResult contains the outcome of plate validation
type PlateResult struct {
	Valid   bool
	Legacy  bool
	Message string
	// BadLetters lists series letters outside the allowed set, in order.
	BadLetters string
}

// ValidatePlate validates a Spanish registration plate. Current plates are
// four digits and three consonants; provincial plates (one or two province
// letters, four digits, two letters) are accepted on format alone.
func ValidatePlate(plate string) *PlateResult {
	clean := strings.ToUpper(strings.TrimSpace(plate))
	if legacyPlate.MatchString(clean) {
		return &PlateResult{Valid: true, Legacy: true}
	}
	if !modernPlate.MatchString(clean) {
		return &PlateResult{Message: "format must be 0000BBB"}
	}
	var bad strings.Builder
	for _, c := range clean[4:] {
		if !strings.ContainsRune(plateLetters, c) {
			bad.WriteRune(c)
		}
	}
	if bad.Len() > 0 {
		return &PlateResult{Message: "plate letters cannot contain vowels or Q", BadLetters: bad.String()}
	}
	return &PlateResult{Valid: true}
}
