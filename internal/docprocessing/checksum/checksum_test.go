package checksum_test

import (
	"testing"

	"github.com/ocragent/ocr-agent/internal/docprocessing/checksum"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		valid    bool
		kind     checksum.Kind
		expected string
	}{
		{"valid DNI", "77612097T", true, checksum.KindDNI, "T"},
		{"lowercase DNI", "77612097t", true, checksum.KindDNI, "T"},
		{"padded DNI", "  77612097T ", true, checksum.KindDNI, "T"},
		{"wrong DNI letter", "77612097A", false, checksum.KindDNI, "T"},
		{"valid NIE", "X1234567L", true, checksum.KindNIE, "L"},
		{"wrong NIE letter", "X1234567A", false, checksum.KindNIE, "L"},
		{"too short", "1234567T", false, checksum.KindUnknown, ""},
		{"empty", "", false, checksum.KindUnknown, ""},
		{"CIF is not a personal ID", "B76261874", false, checksum.KindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checksum.ValidateID(tt.input)
			if res.Valid != tt.valid {
				t.Errorf("ValidateID(%q).Valid = %v, want %v", tt.input, res.Valid, tt.valid)
			}
			if res.Kind != tt.kind {
				t.Errorf("ValidateID(%q).Kind = %q, want %q", tt.input, res.Kind, tt.kind)
			}
			if res.Expected != tt.expected {
				t.Errorf("ValidateID(%q).Expected = %q, want %q", tt.input, res.Expected, tt.expected)
			}
		})
	}
}

func TestIDCheckLetter(t *testing.T) {
	if got := checksum.IDCheckLetter(77612097); got != "T" {
		t.Errorf("IDCheckLetter(77612097) = %q, want T", got)
	}
	if got := checksum.IDCheckLetter(0); got != "T" {
		t.Errorf("IDCheckLetter(0) = %q, want T", got)
	}
	if got := checksum.IDCheckLetter(22); got != "E" {
		t.Errorf("IDCheckLetter(22) = %q, want E", got)
	}
}

func TestValidateCIF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		valid    bool
		expected string
	}{
		{"B with digit", "B76261874", true, "4"},
		{"lowercase", "b76261874", true, "4"},
		{"surrounding spaces", " B76261874 ", true, "4"},
		{"A with digit", "A58818501", true, "1"},
		{"wrong digit above", "B76261875", false, "4"},
		{"wrong digit below", "B76261873", false, "4"},
		{"A rejects letter", "A5881850J", false, "1"},
		{"B rejects letter", "B7626187D", false, "4"},
		{"K requires letter", "K1234567D", true, "D"},
		{"K rejects digit", "K12345674", false, "D"},
		{"C accepts digit", "C12345674", true, "4/D"},
		{"C accepts letter", "C1234567D", true, "4/D"},
		{"C wrong digit", "C12345675", false, "4/D"},
		{"invalid type letter", "Z1234567A", false, ""},
		{"all digits", "123456789", false, ""},
		{"too short", "B762618", false, ""},
		{"too long", "B76261874X", false, ""},
		{"empty", "", false, ""},
		{"letters only", "ABCDEFGHI", false, ""},
		{"inner space", "B 76261874", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checksum.ValidateCIF(tt.input)
			if res.Valid != tt.valid {
				t.Errorf("ValidateCIF(%q).Valid = %v, want %v", tt.input, res.Valid, tt.valid)
			}
			if res.Expected != tt.expected {
				t.Errorf("ValidateCIF(%q).Expected = %q, want %q", tt.input, res.Expected, tt.expected)
			}
		})
	}
}

func TestClassifyID(t *testing.T) {
	tests := map[string]checksum.Kind{
		"77612097T": checksum.KindDNI,
		"y1234567x": checksum.KindNIE,
		"B76261874": checksum.KindCIF,
		"1234":      checksum.KindUnknown,
	}
	for input, want := range tests {
		if got := checksum.ClassifyID(input); got != want {
			t.Errorf("ClassifyID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValidateVIN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		problem checksum.VINProblem
	}{
		{"valid check digit", "YARKAAC3100018794", checksum.VINOK},
		{"check digit X", "1M8GDM9AXKP042788", checksum.VINOK},
		{"dashes and spaces", "yark-aac3 100018794", checksum.VINOK},
		{"short", "YARKAAC310001879", checksum.VINBadLength},
		{"contains O", "YARKAAC31000O8794", checksum.VINBadChars},
		{"contains symbol", "YARKAAC31000#8794", checksum.VINBadChars},
		{"bad check digit", "YARKAAC3200018794", checksum.VINBadCheckDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checksum.ValidateVIN(tt.input)
			if res.Problem != tt.problem {
				t.Errorf("ValidateVIN(%q).Problem = %q, want %q", tt.input, res.Problem, tt.problem)
			}
		})
	}
}

func TestValidateVIN_CheckDigitEvidence(t *testing.T) {
	res := checksum.ValidateVIN("YARKAAC3200018794")
	if res.Observed != "2" || res.Expected != "1" {
		t.Errorf("got observed=%q expected=%q, want 2 and 1", res.Observed, res.Expected)
	}
}

func TestValidatePlate(t *testing.T) {
	tests := []struct {
		input  string
		valid  bool
		legacy bool
	}{
		{"1177MTM", true, false},
		{"1234BCF", true, false},
		{" 1234bcf ", true, false},
		{"1234ABC", false, false},
		{"1234BQC", false, false},
		{"B1234XY", true, true},
		{"GI1234AB", true, true},
		{"123BCD", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := checksum.ValidatePlate(tt.input)
			if res.Valid != tt.valid || res.Legacy != tt.legacy {
				t.Errorf("ValidatePlate(%q) = {valid:%v legacy:%v}, want {valid:%v legacy:%v}",
					tt.input, res.Valid, res.Legacy, tt.valid, tt.legacy)
			}
		})
	}
}
