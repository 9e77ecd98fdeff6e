package photoindex

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips diacritical marks (e.g. "Výlet" -> "Vylet").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// CollectionKey normalizes a collection title into a stable identifier:
// lowercase ASCII with dashes, so "Léto 2024 / Itálie" and "leto 2024
// italie" key the same collection across renames that only touch casing or
// accents.
func CollectionKey(title string) string {
	key := removeDiacritics(title)
	key = strings.ToLower(key)

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
