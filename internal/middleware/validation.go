package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// MaxRequestBodySize caps request bodies at 10MB. Layout params are tiny;
// anything near the cap is abuse.
const MaxRequestBodySize = 10 * 1024 * 1024

// ValidateRequestBody limits the body size of mutating requests.
func ValidateRequestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" || r.Method == "PATCH" {
			r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// SanitizeString trims whitespace, truncates to maxLength and strips
// invalid UTF-8. Used on caller-supplied run keys before lookups.
func SanitizeString(input string, maxLength int) string {
	input = strings.TrimSpace(input)

	if len(input) > maxLength {
		input = input[:maxLength]
	}

	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}

	return input
}
