// Package slug derives URL path segments from product names.
package slug

import (
	"strings"
	"unicode"
)

// fold maps the accented letters of Portuguese product names to ASCII.
var fold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// Generate lowercases name, folds accents and joins the remaining runs of
// ASCII letters and digits with single hyphens:
// "Anel de Diamante Solitário" becomes "anel-de-diamante-solitario".
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		if f, ok := fold[r]; ok {
			r = f
		}
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
