package processor

import "regexp"

// Brands recognised on circulation permits, in match priority order.
var knownBrands = []string{
	"SEAT", "VOLKSWAGEN", "VW", "RENAULT", "PEUGEOT", "CITROEN", "CITROËN",
	"FORD", "OPEL", "FIAT", "AUDI", "BMW", "MERCEDES", "MERCEDES-BENZ",
	"TOYOTA", "NISSAN", "HYUNDAI", "KIA", "MAZDA", "HONDA", "SUZUKI",
	"DACIA", "SKODA", "VOLVO", "LAND ROVER", "JEEP", "MITSUBISHI",
	"SUBARU", "LEXUS", "ALFA ROMEO", "LANCIA", "PORSCHE", "MINI",
	"SMART", "TESLA", "POLESTAR", "CUPRA",
}

// brandInText holds a whole-word matcher for each entry of knownBrands.
var brandInText = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownBrands))
	for i, b := range knownBrands {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(b) + `\b`)
	}
	return out
}()

// Commercial models per brand used to flag unlikely brand/model pairs.
// Brands without an entry are not checked.
var modelsByBrand = map[string][]string{
	"TOYOTA":     {"YARIS", "COROLLA", "AURIS", "AVENSIS", "RAV4", "PRIUS", "HILUX", "C-HR", "CAMRY"},
	"SEAT":       {"IBIZA", "LEON", "ARONA", "ATECA", "TARRACO", "ALHAMBRA", "MII", "TOLEDO"},
	"VOLKSWAGEN": {"GOLF", "POLO", "PASSAT", "TIGUAN", "TOUAREG", "T-ROC", "ID.3", "ID.4"},
	"RENAULT":    {"CLIO", "MEGANE", "CAPTUR", "KADJAR", "SCENIC", "ZOE", "ARKANA"},
	"PEUGEOT":    {"208", "308", "3008", "5008", "107", "206", "207", "407", "508"},
	"FORD":       {"FIESTA", "FOCUS", "MONDEO", "KUGA", "PUMA", "MUSTANG", "TRANSIT"},
	"BMW":        {"SERIE 1", "SERIE 2", "SERIE 3", "SERIE 5", "X1", "X3", "X5"},
	"AUDI":       {"A1", "A3", "A4", "A6", "Q2", "Q3", "Q5", "Q7", "TT"},
	"MERCEDES":   {"CLASE A", "CLASE B", "CLASE C", "CLASE E", "GLA", "GLB", "GLC"},
	"KIA":        {"PICANTO", "RIO", "CEED", "SPORTAGE", "SORENTO", "NIRO", "STONIC"},
	"HYUNDAI":    {"I10", "I20", "I30", "TUCSON", "SANTA FE", "IONIQ", "KONA"},
	"HONDA":      {"JAZZ", "CIVIC", "CR-V", "HR-V", "ACCORD"},
	"NISSAN":     {"MICRA", "JUKE", "QASHQAI", "X-TRAIL", "LEAF", "NAVARA"},
	"OPEL":       {"CORSA", "ASTRA", "INSIGNIA", "MOKKA", "CROSSLAND", "GRANDLAND"},
	"DACIA":      {"SANDERO", "DUSTER", "LOGAN", "SPRING", "JOGGER"},
	"SKODA":      {"FABIA", "OCTAVIA", "SUPERB", "KODIAQ", "KAROQ", "SCALA"},
	"FIAT":       {"PUNTO", "PANDA", "500", "TIPO", "BRAVO", "DUCATO"},
}

// EU vehicle categories (Directive 2007/46/EC) and their readable labels.
var vehicleTypes = map[string]string{
	"M1":  "Turisme",
	"M2":  "Autobús lleuger",
	"M3":  "Autobús pesant",
	"N1":  "Furgoneta",
	"N2":  "Camió mitjà",
	"N3":  "Camió pesant",
	"L1E": "Ciclomotor",
	"L2E": "Ciclomotor 3 rodes",
	"L3E": "Motocicleta",
	"L4E": "Motocicleta sidecar",
	"L5E": "Tricicle motor",
	"L6E": "Quadricicle lleuger",
	"L7E": "Quadricicle pesant",
}

// VehicleType returns the readable label of an EU category, or the
// category itself when unknown.
func VehicleType(category string) string {
	if label, ok := vehicleTypes[category]; ok {
		return label
	}
	return category
}
