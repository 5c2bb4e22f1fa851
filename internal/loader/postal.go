package loader

import "regexp"

// postalCodeRe matches a 5-digit ZIP code with an optional 4-digit extension.
var postalCodeRe = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// PostalExtractor derives a postal code from a free-text address.
type PostalExtractor func(address string) (string, bool)

// ExtractPostalCode returns the first ZIP or ZIP+4 in address.
func ExtractPostalCode(address string) (string, bool) {
	m := postalCodeRe.FindString(address)
	if m == "" {
		return "", false
	}
	return m, true
}
