package utils

import (
	"strings"
	"unicode"
)

// Common street-type prefixes stripped during canonicalization so that
// "Calle Mayor" and "C/ Mayor" key the same.
var streetPrefixes = []string{
	"calle ", "c/ ", "c/", "avenida ", "avda ", "avda. ", "av ", "av. ",
	"paseo ", "po ", "po. ", "plaza ", "pza ", "pza. ", "camino ",
	"carretera ", "ctra ", "ctra. ", "ronda ", "travesia ", "rua ",
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n", "ç", "c",
)

// StreetToken returns the canonical street portion of an address: the
// text before the first comma, lowercased, accent-folded, with street
// type prefixes and the house number removed, spaces collapsed.
// Returns "" for an empty address.
func StreetToken(address string) string {
	street := address
	if idx := strings.Index(street, ","); idx >= 0 {
		street = street[:idx]
	}
	street = accentFolder.Replace(strings.ToLower(strings.TrimSpace(street)))

	for _, p := range streetPrefixes {
		if strings.HasPrefix(street, p) {
			street = strings.TrimSpace(street[len(p):])
			break
		}
	}

	// Drop trailing number tokens so "mayor 12" and "mayor 12 3a" match.
	fields := strings.Fields(street)
	for len(fields) > 0 && startsWithDigit(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// StreetNumber returns the first numeric token found in the address,
// or "" when the address carries no number.
func StreetNumber(address string) string {
	var num strings.Builder
	inNumber := false
	for _, r := range address {
		if unicode.IsDigit(r) {
			num.WriteRune(r)
			inNumber = true
			continue
		}
		if inNumber {
			break
		}
	}
	return num.String()
}

// NormalizeCondition maps free-form condition labels to a canonical
// lowercase form so rule lookups and equality checks are not defeated
// by casing or accents.
func NormalizeCondition(condition string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(condition)))
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}
