package normalize

import (
	"regexp"
	"strings"
)

var (
	namePrefix     = regexp.MustCompile(`(?i)^(bdr|nif|dni|nie|doc)\s+`)
	nameDisallowed = regexp.MustCompile(`[^A-Za-zÀ-ÖØ-öø-ÿ \-']`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// HasNameNoise reports whether a personal name contains characters that do
// not belong in a Latin-script name.
func HasNameNoise(value string) bool {
	return value != "" && nameDisallowed.MatchString(value)
}

// CleanName strips a leading document-label prefix, drops disallowed
// characters and collapses whitespace. An empty result yields nil.
func CleanName(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := namePrefix.ReplaceAllString(*value, "")
	v = nameDisallowed.ReplaceAllString(v, "")
	v = strings.TrimSpace(whitespace.ReplaceAllString(v, " "))
	if v == "" {
		return nil
	}
	return &v
}

// CollapseSpaces trims s and reduces inner whitespace runs to single spaces.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
