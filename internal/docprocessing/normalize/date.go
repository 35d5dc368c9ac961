// Package normalize turns raw OCR fragments into canonical field values:
// ISO dates, cleaned personal names and decomposed postal addresses.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date layouts seen on the supported documents. Each captures day, month
// and year in that order.
var (
	// DateSpaceSlash matches identity-card dates ("24 01 1973", "24/01/1973").
	DateSpaceSlash = regexp.MustCompile(`(\d{2})[\s/](\d{2})[\s/](\d{4})`)
	// DateDashSlash matches tax-card dates ("26-07-2016").
	DateDashSlash = regexp.MustCompile(`(\d{2})[-/](\d{2})[-/](\d{4})`)
	// DateAnySep matches permit dates, which also use dots ("28.02.2025").
	DateAnySep = regexp.MustCompile(`(\d{2})[-/.](\d{2})[-/.](\d{4})`)
)

// YearRange bounds the accepted year of a date, inclusive.
type YearRange struct {
	Min, Max int
}

// DMYToISO converts day, month and year components to YYYY-MM-DD.
// Returns nil when the components do not form a calendar date or the
// year falls outside yr.
func DMYToISO(day, month, year string, yr YearRange) *string {
	dd, err1 := strconv.Atoi(day)
	mm, err2 := strconv.Atoi(month)
	yyyy, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if dd < 1 || dd > 31 || mm < 1 || mm > 12 {
		return nil
	}
	if yyyy < yr.Min || yyyy > yr.Max {
		return nil
	}
	if time.Date(yyyy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC).Day() != dd {
		return nil
	}
	iso := fmt.Sprintf("%04d-%02d-%02d", yyyy, mm, dd)
	return &iso
}

// FirstDate returns the first date matched by pattern in s, validated
// against yr. Only the first match is considered.
func FirstDate(s string, pattern *regexp.Regexp, yr YearRange) *string {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return DMYToISO(m[1], m[2], m[3], yr)
}

// LastDate returns the last date matched by pattern in s, validated
// against yr.
func LastDate(s string, pattern *regexp.Regexp, yr YearRange) *string {
	all := pattern.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return nil
	}
	m := all[len(all)-1]
	return DMYToISO(m[1], m[2], m[3], yr)
}

// AllDates returns every valid date matched by pattern in s, in order of
// appearance.
func AllDates(s string, pattern *regexp.Regexp, yr YearRange) []string {
	var out []string
	for _, m := range pattern.FindAllStringSubmatch(s, -1) {
		if iso := DMYToISO(m[1], m[2], m[3], yr); iso != nil {
			out = append(out, *iso)
		}
	}
	return out
}
