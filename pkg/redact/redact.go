// Package redact masks personal data before it reaches logs.
package redact

import "strings"

// ID keeps the first four characters and the last one of a document
// number: 12345678Z -> 1234****Z.
func ID(id string) string {
	if len(id) < 3 {
		return "***"
	}
	return id[:min(4, len(id))] + "****" + id[len(id)-1:]
}

// Name keeps the first letter: JUAN -> J***.
func Name(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) == 0 {
		return "***"
	}
	return string(r[0]) + strings.Repeat("*", len(r)-1)
}

// Ptr applies fn to a possibly absent value.
func Ptr(v *string, fn func(string) string) string {
	if v == nil {
		return "***"
	}
	return fn(*v)
}
