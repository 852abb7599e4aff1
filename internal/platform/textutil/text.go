package textutil

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes every HTML tag from user supplied text and trims the result.
// Entities produced by the sanitizer are decoded back to plain characters.
func StripMarkup(value string) string {
	cleaned := strictPolicy.Sanitize(value)
	cleaned = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'").Replace(cleaned)
	return strings.TrimSpace(cleaned)
}

// Fold lowercases and removes diacritics so "Azúcar" matches "azucar".
func Fold(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Slugify folds the value and joins alphanumeric runs with hyphens.
func Slugify(value string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range Fold(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Digits keeps only ASCII digits, used for phone numbers in wa.me links.
func Digits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
