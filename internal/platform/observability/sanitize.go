package observability

import (
	"strings"
	"unicode"
)

const defaultStringLimit = 256

// sanitizeString drops control characters and caps the rune count so request data cannot forge log lines.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultStringLimit
	}
	var b strings.Builder
	count := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if count == limit {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// SanitizeRoute cleans chi route patterns before they are logged.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod removes control characters in HTTP methods.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}

// SanitizeUserID limits admin identifiers to reduce PII leakage in logs.
func SanitizeUserID(uid string) string {
	return sanitizeString(strings.TrimSpace(uid), 64)
}

// SanitizeSessionID keeps the first characters of a cart session, enough to correlate requests.
func SanitizeSessionID(id string) string {
	id = sanitizeString(strings.TrimSpace(id), 64)
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
