package normalize_test

import (
	"testing"

	"github.com/ocragent/ocr-agent/internal/docprocessing/normalize"
)

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestFirstDate(t *testing.T) {
	permitYears := normalize.YearRange{Min: 1970, Max: 2050}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"slashes", "08/08/2024", "2024-08-08"},
		{"dots", "28.02.2025", "2025-02-28"},
		{"dashes", "PROXIMA ITV 28-08-2028", "2028-08-28"},
		{"month out of range", "01/13/2024", "<nil>"},
		{"day zero", "00/10/2024", "<nil>"},
		{"day past month end", "31/02/2020", "<nil>"},
		{"leap day", "29/02/2024", "2024-02-29"},
		{"leap day in common year", "29/02/2023", "<nil>"},
		{"year before range", "01/01/1900", "<nil>"},
		{"no date", "TOYOTA", "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := str(normalize.FirstDate(tt.input, normalize.DateAnySep, permitYears))
			if got != tt.want {
				t.Errorf("FirstDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestLastDate(t *testing.T) {
	got := str(normalize.LastDate("01 01 2015 01 01 2025", normalize.DateSpaceSlash, normalize.YearRange{Min: 2000, Max: 2060}))
	if got != "2025-01-01" {
		t.Errorf("LastDate = %s, want 2025-01-01", got)
	}
}

func TestAllDates(t *testing.T) {
	got := normalize.AllDates("12/03/2019 99/99/2019 01.02.2020", normalize.DateAnySep, normalize.YearRange{Min: 1970, Max: 2050})
	if len(got) != 2 || got[0] != "2019-03-12" || got[1] != "2020-02-01" {
		t.Errorf("AllDates = %v", got)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input string
		want  string
		noise bool
	}{
		{"JOAQUIN", "JOAQUIN", false},
		{"DNI COLL CEREZO", "COLL CEREZO", false},
		{"MARÍA  JOSÉ", "MARÍA JOSÉ", false},
		{"O'NEILL-SMITH", "O'NEILL-SMITH", false},
		{"J0AQUIN|", "JAQUIN", true},
		{"1234", "<nil>", true},
		{"", "<nil>", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			in := tt.input
			if got := str(normalize.CleanName(&in)); got != tt.want {
				t.Errorf("CleanName(%q) = %s, want %s", tt.input, got, tt.want)
			}
			if got := normalize.HasNameNoise(tt.input); got != tt.noise {
				t.Errorf("HasNameNoise(%q) = %v, want %v", tt.input, got, tt.noise)
			}
		})
	}

	if normalize.CleanName(nil) != nil {
		t.Error("CleanName(nil) should be nil")
	}
}

func TestDecomposeResidence(t *testing.T) {
	a := normalize.DecomposeResidence([]string{"C. ARTAIL 9", "43800 VALLS", "TARRAGONA"})

	checks := map[string][2]string{
		"full":         {str(a.Full), "C. ARTAIL 9"},
		"street":       {str(a.Street), "C. ARTAIL"},
		"number":       {str(a.Number), "9"},
		"postal code":  {str(a.PostalCode), "43800"},
		"municipality": {str(a.Municipality), "VALLS"},
		"province":     {str(a.Province), "TARRAGONA"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
}

func TestDecomposeResidence_NoProvince(t *testing.T) {
	a := normalize.DecomposeResidence([]string{"CRER. VENDRELL, 5", "08001 SOMEWHERE"})
	if str(a.Street) != "CRER. VENDRELL" || str(a.Number) != "5" {
		t.Errorf("street/number = %s/%s", str(a.Street), str(a.Number))
	}
	if str(a.Municipality) != "SOMEWHERE" {
		t.Errorf("municipality = %s, want SOMEWHERE", str(a.Municipality))
	}
	if a.Province != nil {
		t.Errorf("province = %s, want nil", str(a.Province))
	}
}

func TestDecomposeFiscal(t *testing.T) {
	a := normalize.DecomposeFiscal([]string{
		"CALLE ORINOCO, NUM. 5, PLANTA 0, PUERTA 3",
		"35014 PALMAS DE GRAN CANARIA (LAS)",
		"PALMAS, LAS",
	})

	checks := map[string][2]string{
		"street":       {str(a.Street), "CALLE ORINOCO"},
		"number":       {str(a.Number), "5"},
		"floor door":   {str(a.FloorDoor), "PLANTA 0, PUERTA 3"},
		"postal code":  {str(a.PostalCode), "35014"},
		"municipality": {str(a.Municipality), "PALMAS DE GRAN CANARIA (LAS)"},
		"province":     {str(a.Province), "PALMAS, LAS"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
}

func TestDecomposeFiscalInline(t *testing.T) {
	a := normalize.DecomposeFiscalInline([]string{
		"CALLE ORINOCO, NUM. 5",
		"PLANTA 0, PUERTA 3",
		"35014 PALMAS DE GRAN CANARIA (LAS) - (PALMAS, LAS)",
	})

	if str(a.Street) != "CALLE ORINOCO" || str(a.Number) != "5" {
		t.Errorf("street/number = %s/%s", str(a.Street), str(a.Number))
	}
	if str(a.FloorDoor) != "PLANTA 0, PUERTA 3" {
		t.Errorf("floor door = %s", str(a.FloorDoor))
	}
	if str(a.PostalCode) != "35014" {
		t.Errorf("postal code = %s", str(a.PostalCode))
	}
	if str(a.Municipality) != "PALMAS DE GRAN CANARIA" {
		t.Errorf("municipality = %s", str(a.Municipality))
	}
	if str(a.Province) != "LAS" {
		t.Errorf("province = %s", str(a.Province))
	}
}

func TestReadAddressLines(t *testing.T) {
	lines := []string{"DOMICILIO", "C. ARTAIL 9", "VALLS", "FECHA", "IGNORED"}
	got := normalize.ReadAddressLines(lines, 0, 8, []string{"FECHA"})
	if len(got) != 2 || got[1] != "VALLS" {
		t.Errorf("ReadAddressLines = %v", got)
	}
}
