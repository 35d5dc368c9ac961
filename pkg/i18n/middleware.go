package i18n

import (
	"net/http"
)

// Middleware extracts locale from Accept-Language header and adds it to context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Parse Accept-Language header
		acceptLang := r.Header.Get("Accept-Language")
		locale := ParseAcceptLanguage(acceptLang)

		// Add locale to context
		ctx := WithLocale(r.Context(), locale)

		// Call next handler with updated context
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
