package shipping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/RedAvocado22/quadzone-checkout/pkg/types"
)

// stripDiacritics decomposes accented characters and removes the combining
// marks. The upstream geocoder rejects accented input.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAddress flattens structured address fields into the single-line
// form the geocoder expects: comma-joined non-empty fields, diacritics
// stripped, punctuation other than commas, hyphens, and slashes removed.
func NormalizeAddress(address types.Address) string {
	parts := make([]string, 0, 6)
	for _, field := range []string{
		address.Street,
		address.Apartment,
		address.Ward,
		address.District,
		address.City,
		address.Country,
	} {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	joined := strings.Join(parts, ", ")
	if normalized, _, err := transform.String(stripDiacritics, joined); err == nil {
		joined = normalized
	}

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == ',' || r == '-' || r == '/':
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
