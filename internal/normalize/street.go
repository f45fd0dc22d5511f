// Package normalize cleans up free-form values from CRM exports before they
// are stored: street lines, country names and over-long strings.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// "Kerkstraat 12 bis", "2e Helmersstraat 7-III"
	streetFirstRe = regexp.MustCompile(`^(.*?[^\d\s])\s*(\d+)\s*(.*)$`)
	// "221 Baker Street", "221B Baker Street"
	numberFirstRe = regexp.MustCompile(`^(\d+)([A-Za-z]?)\s*,?\s+(.+)$`)
)

// ParseStreet splits a street line into street name, house number and
// complement. The number is returned as found in the input (digits only) and
// is empty when the line has none; callers decide whether it is usable.
func ParseStreet(line string) (street, number, complement string) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return "", "", ""
	}

	if m := streetFirstRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), m[2], cleanComplement(m[3])
	}
	if m := numberFirstRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[3]), m[1], m[2]
	}
	return line, "", ""
}

func cleanComplement(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, " -,/"))
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
