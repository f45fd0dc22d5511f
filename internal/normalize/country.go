package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countryAliases maps country names and common misspellings found in
// Sugar exports to ISO 3166-1 alpha-2 codes. Keys are upper case.
var countryAliases = map[string]string{
	"NEDERLAND":            "NL",
	"NETHERLANDS":          "NL",
	"THE NETHERLANDS":      "NL",
	"HOLLAND":              "NL",
	"NDERLAND":             "NL",
	"NEDELAND":             "NL",
	"NLN":                  "NL",
	"THE NETHERLAND":       "NL",
	"SURINAME":             "SR",
	"BELGIE":               "BE",
	"BELGIUM":              "BE",
	"BELGI&#235;":          "BE",
	"DUITSLAND":            "DE",
	"GERMANY":              "DE",
	"LUXEMBOURG":           "LU",
	"MAROC":                "MA",
	"UK":                   "GB",
	"UNITED KINGDOM":       "GB",
	"FINLAND":              "FI",
	"NEDERLANDSE ANTILLEN": "AN",
	"CANADA":               "CA",
	"SPAIN":                "ES",
	"SPANJE":               "ES",
	"ESPANA":               "ES",
	"USA":                  "US",
	"U.S.A.":               "US",
	"AUSTRALIA":            "AU",
	"IRELAND":              "IE",
	"FRANKRIJK":            "FR",
	"FRANCE":               "FR",
	"POLEN":                "PL",
	"MALTA":                "MT",
	"PHILIPPINES":          "PH",
}

// withdrawnCountries are codes no longer in ISO 3166-1 that older CRM data
// still uses.
var withdrawnCountries = map[string]bool{
	"AN": true,
}

// Country normalizes a free-form country to an ISO 3166-1 alpha-2 code. It
// trims, upper-cases and resolves known aliases. Anything that does not end
// up as a recognized two letter country code yields "".
func Country(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return ""
	}

	if alias, ok := countryAliases[c]; ok {
		c = alias
	} else if alias, ok := countryAliases[stripDiacritics(c)]; ok {
		c = alias
	}

	if len(c) != 2 {
		return ""
	}
	if withdrawnCountries[c] {
		return c
	}

	region, err := language.ParseRegion(c)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return region.String()
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
