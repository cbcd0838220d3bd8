// internal/pricing/normalize.go

// Package pricing turns free-form price text scraped from retail pages into
// comparable numeric amounts. Retail sites mix currency symbols, locale
// conventions for thousands/decimal separators, and trailing marketing
// qualifiers, so normalization is heuristic and never fails hard: input that
// cannot be parsed simply yields no value.
package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRe  = regexp.MustCompile(`(R\$|US\$|\$|€|£)\s*`)
	qualifierRe = regexp.MustCompile(`(?i)\s+(a partir de|à vista|no pix|cash price|starting from|with instant discount)`)
	nonNumRe    = regexp.MustCompile(`[^\d.]+`)
)

// Normalize parses a price string into a numeric amount. The boolean is
// false when the text carries no usable number.
//
// Separator disambiguation follows the position of the last comma and the
// last period: whichever occurs later is the decimal separator and the other
// kind is stripped as a thousands separator. "1.234,56" and "1,234.56" both
// come out as 1234.56. A lone separator is always read as the decimal
// separator, so "1.234" is 1.234 and "1,000" is 1.0.
func Normalize(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	s := strings.TrimSpace(currencyRe.ReplaceAllString(text, ""))

	// Everything after a marketing qualifier is noise.
	if loc := qualifierRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma > lastDot:
		// Comma is the decimal separator (BR/EU style): drop grouping
		// periods, promote the final comma to a decimal point.
		s = strings.ReplaceAll(s, ".", "")
		i := strings.LastIndex(s, ",")
		s = s[:i] + "." + s[i+1:]
	case lastDot > lastComma:
		// Period is the decimal separator (US style).
		s = strings.ReplaceAll(s, ",", "")
	default:
		// Neither separator present.
	}

	s = nonNumRe.ReplaceAllString(s, "")
	s = strings.Trim(s, ".")
	if s == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
