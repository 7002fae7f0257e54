// Package asciifold ASCII-folds card names for the asciiName field. It
// only maps the small, closed set of non-ASCII characters that actually
// occur in Magic card names rather than pulling in a general Unicode
// transliteration table — the domain is finite and known.
package asciifold

import "strings"

var replacer = strings.NewReplacer(
	"Æ", "Ae", "æ", "ae",
	"á", "a", "à", "a", "â", "a", "ä", "a",
	"Á", "A", "À", "A", "Â", "A", "Ä", "A",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o",
	"Ó", "O", "Ò", "O", "Ô", "O", "Ö", "O",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"ñ", "n", "Ñ", "N",
	"ç", "c", "Ç", "C",
	"û", "u",
	"’", "'",
	"—", "-",
)

// Fold returns the ASCII-folded form of name, or nil if name was already
// pure ASCII — matching the nullable asciiName field, which is only
// populated when folding actually changes something.
func Fold(name string) *string {
	folded := replacer.Replace(name)
	if folded == name {
		return nil
	}
	return &folded
}

// IsASCII reports whether s contains only 7-bit ASCII bytes.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
