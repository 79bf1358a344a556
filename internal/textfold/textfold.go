// internal/textfold/textfold.go
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritics stripped and case folded, so "Título" and "TITULO" fold to
// the same string. Transformers carry state, so a fresh chain is built per call.
func Fold(s string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		stripped = s
	}

	return cases.Fold().String(stripped)
}

// Equal reports whether two names are the same ignoring case, diacritics and surrounding space.
func Equal(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Related reports whether either folded string contains the other.
func Related(a, b string) bool {
	fa, fb := Fold(a), Fold(b)
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
