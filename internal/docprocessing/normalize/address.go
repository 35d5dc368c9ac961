package normalize

import (
	"regexp"
	"strings"
)

// Address holds the components of a postal address. Fields are nil when
// not found.
type Address struct {
	Full         *string
	Street       *string
	Number       *string
	FloorDoor    *string
	Municipality *string
	Province     *string
	PostalCode   *string
}

// Province names recognised on identity cards.
var IdentityProvinces = []string{
	"BARCELONA", "TARRAGONA", "LLEIDA", "GIRONA",
	"MADRID", "VALENCIA", "ALICANTE", "CASTELLON", "CASTELLÓ",
	"SEVILLA", "MALAGA", "MÁLAGA", "CADIZ", "CÁDIZ", "HUELVA",
	"CORDOBA", "CÓRDOBA", "GRANADA", "JAEN", "JAÉN", "ALMERIA", "ALMERÍA",
	"ZARAGOZA", "HUESCA", "TERUEL",
	"A CORUÑA", "LA CORUÑA", "CORUÑA", "PONTEVEDRA", "OURENSE", "LUGO",
	"VIZCAYA", "BIZKAIA", "GUIPUZCOA", "GIPUZKOA", "ALAVA", "ARABA",
	"NAVARRA", "LA RIOJA", "RIOJA", "CANTABRIA", "ASTURIAS",
	"MURCIA", "BADAJOZ", "CACERES", "CÁCERES",
	"SALAMANCA", "ZAMORA", "VALLADOLID", "LEON", "LEÓN",
	"PALENCIA", "BURGOS", "SORIA", "SEGOVIA", "AVILA", "ÁVILA",
	"TOLEDO", "CIUDAD REAL", "CUENCA", "GUADALAJARA", "ALBACETE",
}

// TaxProvinces extends IdentityProvinces with the island provinces, which
// the tax agency prints in "NAME, ARTICLE" form.
var TaxProvinces = append(append([]string{}, IdentityProvinces...),
	"PALMAS, LAS", "SANTA CRUZ DE TENERIFE", "TENERIFE",
	"BALEARES", "BALEARS", "ILLES BALEARS",
)

var (
	trailingNumber  = regexp.MustCompile(`[,\s]+(\d+[A-Z]?)\s*$`)
	postalCode      = regexp.MustCompile(`\b(\d{5})\b`)
	leadingPostal   = regexp.MustCompile(`^\d{5}\s+`)
	streetNumberPat = regexp.MustCompile(`(?i)[,\s]+(?:NUM\.?\s*)?(\d{1,4}[A-Z]?)\s*[,]?\s*(PLANTA\s*\d+[,]?\s*PUERTA\s*\d+|P[O0]?\d+\s*\d*|[PB]\d+|\d+[ºª°]?\s*[A-Z]?)?`)
	trailingNumTag  = regexp.MustCompile(`(?i),?\s*NUM\.?\s*$`)
	floorDoorPat    = regexp.MustCompile(`(?i)(PLANTA\s*\d+[,]?\s*PUERTA\s*\d+|PLANTA\s*\d+|PUERTA\s*\d+|P[O0]?\d+\s*\d*)`)
	municipalitySep = regexp.MustCompile(`\s*-\s*|\s*\(\s*`)
)

// ContainsAny reports whether s contains any of the given substrings.
func ContainsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func ptr(s string) *string { return &s }

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ReadAddressLines collects up to max trimmed lines following lines[start],
// stopping at a blank line or at a line containing any stop keyword.
func ReadAddressLines(lines []string, start, max int, stop []string) []string {
	var out []string
	end := start + 1 + max
	if end > len(lines) {
		end = len(lines)
	}
	for j := start + 1; j < end; j++ {
		nl := strings.TrimSpace(lines[j])
		if nl == "" || ContainsAny(strings.ToUpper(nl), stop) {
			break
		}
		out = append(out, nl)
	}
	return out
}

// firstPostalCode returns the first 5-digit code found in any line.
func firstPostalCode(lines []string) *string {
	for _, l := range lines {
		if m := postalCode.FindStringSubmatch(l); m != nil {
			return ptr(m[1])
		}
	}
	return nil
}

// provinceLine scans lines bottom-up, down to index floor, for a line that
// names one of provinces. Returns -1 when none does.
func provinceLine(lines []string, floor int, provinces []string) int {
	for idx := len(lines) - 1; idx >= floor; idx-- {
		if ContainsAny(strings.ToUpper(strings.TrimSpace(lines[idx])), provinces) {
			return idx
		}
	}
	return -1
}

// DecomposeResidence splits the address block of an identity card: first
// line is street and number, then municipality and province lines.
func DecomposeResidence(lines []string) Address {
	var a Address
	if len(lines) == 0 {
		return a
	}

	first := lines[0]
	a.Full = ptr(first)
	if loc := trailingNumber.FindStringSubmatchIndex(first); loc != nil {
		a.Number = ptr(strings.TrimSpace(first[loc[2]:loc[3]]))
		a.Street = ptr(strings.TrimSpace(first[:loc[0]]))
	} else {
		a.Street = ptr(first)
	}

	a.PostalCode = firstPostalCode(lines)

	// The province is never on the street line.
	idx := provinceLine(lines, 1, IdentityProvinces)
	switch {
	case idx > 0:
		a.Province = ptr(strings.TrimSpace(lines[idx]))
		a.Municipality = nonEmpty(leadingPostal.ReplaceAllString(lines[idx-1], ""))
	case len(lines) > 1:
		a.Municipality = nonEmpty(leadingPostal.ReplaceAllString(lines[1], ""))
	}
	return a
}

// splitStreetLine separates street, number and floor/door from the first
// line of a tax-card address.
func splitStreetLine(first string, a *Address) bool {
	loc := streetNumberPat.FindStringSubmatchIndex(first)
	if loc == nil {
		return false
	}
	a.Number = ptr(strings.TrimSpace(first[loc[2]:loc[3]]))
	if loc[4] >= 0 {
		a.FloorDoor = nonEmpty(first[loc[4]:loc[5]])
	}
	street := strings.TrimSpace(first[:loc[0]])
	a.Street = ptr(trailingNumTag.ReplaceAllString(street, ""))
	return true
}

// DecomposeFiscal splits a tax-card address block read from the lines
// under its label.
func DecomposeFiscal(lines []string) Address {
	var a Address
	if len(lines) == 0 {
		return a
	}
	a.Full = ptr(strings.Join(lines, " "))

	first := lines[0]
	if !splitStreetLine(first, &a) {
		if loc := trailingNumber.FindStringSubmatchIndex(first); loc != nil {
			a.Number = ptr(strings.TrimSpace(first[loc[2]:loc[3]]))
			a.Street = ptr(strings.TrimSpace(first[:loc[0]]))
		} else {
			a.Street = ptr(first)
		}
	}

	a.PostalCode = firstPostalCode(lines)

	idx := provinceLine(lines, 0, TaxProvinces)
	if idx >= 0 {
		a.Province = ptr(leadingPostal.ReplaceAllString(strings.TrimSpace(lines[idx]), ""))
	}
	switch {
	case idx > 0:
		a.Municipality = nonEmpty(leadingPostal.ReplaceAllString(lines[idx-1], ""))
	case len(lines) > 1:
		a.Municipality = nonEmpty(leadingPostal.ReplaceAllString(lines[1], ""))
	}
	return a
}

// DecomposeFiscalInline splits a tax-card address whose first line was
// printed next to its label. The postal-code line carries municipality and
// province as "MUNICIPALITY - PROVINCE" or "MUNICIPALITY (PROVINCE)".
func DecomposeFiscalInline(lines []string) Address {
	var a Address
	if len(lines) == 0 {
		return a
	}
	a.Full = ptr(strings.Join(lines, " "))

	first := lines[0]
	if !splitStreetLine(first, &a) {
		a.Street = ptr(first)
	}

	if a.FloorDoor == nil {
		for _, l := range lines[1:] {
			if m := floorDoorPat.FindStringSubmatch(l); m != nil {
				a.FloorDoor = nonEmpty(m[1])
				break
			}
		}
	}

	for _, l := range lines {
		loc := postalCode.FindStringSubmatchIndex(l)
		if loc == nil {
			continue
		}
		a.PostalCode = ptr(l[loc[2]:loc[3]])
		if rest := strings.TrimSpace(l[loc[1]:]); rest != "" {
			parts := municipalitySep.Split(rest, -1)
			a.Municipality = ptr(strings.TrimRight(strings.TrimSpace(parts[0]), ")"))
			if len(parts) > 1 {
				a.Province = ptr(strings.TrimRight(strings.TrimSpace(parts[1]), ")"))
			}
		}
		break
	}
	return a
}
