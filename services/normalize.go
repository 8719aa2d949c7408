package services

import (
	"strconv"
	"strings"
)

// numericScrubber strips the unit suffixes and currency decoration seen
// in scraped values before numeric parsing. The en dash shows up in
// rent ranges copied from the source markup.
var numericScrubber = strings.NewReplacer(
	"Sq Ft", "",
	"Bed", "",
	"Bath", "",
	"+", "",
	"$", "",
	",", "",
	"–", "-",
)

// ParseNumeric extracts a float from free-text scraped values like
// "$1,500 - $1,800", "2 Bed" or "650 Sq Ft". Ranges collapse to their
// lower bound. Returns nil when no number can be recovered.
func ParseNumeric(text string) *float64 {
	clean := strings.TrimSpace(numericScrubber.Replace(text))
	if clean == "" {
		return nil
	}

	if i := strings.Index(clean, "-"); i > 0 {
		clean = strings.TrimSpace(clean[:i])
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt is ParseNumeric truncated to an integer.
func ParseInt(text string) *int {
	v := ParseNumeric(text)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
