package util

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	unitPattern      = regexp.MustCompile(`[A-Za-z].*`)
	magnitudePattern = regexp.MustCompile(`\d+\.?\d*`)
)

type ParsedSize struct {
	Magnitude decimal.NullDecimal
	Unit      *string
}

// ParseSize splits a size string into the first numeric run and the text from the first
// letter to the end. Neither part is normalized.
func ParseSize(input string) ParsedSize {
	var out ParsedSize

	if unit := unitPattern.FindString(input); unit != "" {
		out.Unit = StringPtr(unit)
	}

	raw := magnitudePattern.FindString(input)
	if raw == "" {
		return out
	}
	if parsed, err := decimal.NewFromString(raw); err == nil {
		out.Magnitude = decimal.NewNullDecimal(parsed)
	}
	return out
}
