// Package textfold normaliza texto para búsquedas sin distinguir tildes ni mayúsculas
// ("Cilindro Válvula" coincide con "valvula").
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold quita marcas diacríticas, pasa a minúsculas y colapsa espacios.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Contains indica si needle aparece en haystack tras normalizar ambos.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Equal compara a y b tras normalizar ambos.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
