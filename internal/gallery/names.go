package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName canonicalizes a user-entered identity name (lowercase,
// no diacritics, dashes to spaces, collapsed whitespace). The gallery
// itself stores names verbatim and case-sensitively; the CLI and HTTP
// layers normalize before enrolling so that "Jan-Novák" and
// "jan novak" resolve to the same identity.
func NormalizeName(name string) string {
	name = RemoveDiacritics(strings.TrimSpace(name))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}
