package textutil

import "strings"

var accentFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
}

// NormalizeName produces a canonical matching key for a place or
// institution name: lowercase, accented vowels folded to their plain
// form, everything outside ASCII [a-z0-9] dropped. Spreadsheet names
// and portal option labels both go through here so the two
// vocabularies agree.
func NormalizeName(name string) string {
	name = strings.ToLower(name)

	out := strings.Builder{}
	out.Grow(len(name))
	for _, r := range name {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return out.String()
}
