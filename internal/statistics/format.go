package statistics

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is printed for values that are not finite
const Placeholder = "-"

var countPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators
func FormatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

// FormatProbability renders p as a percentage with digits decimals
func FormatProbability(p float64, digits int) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Placeholder
	}
	return percent(p, digits) + "%"
}

// FormatSignedProbability is FormatProbability with a leading "+" for
// positive values
func FormatSignedProbability(p float64, digits int) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Placeholder
	}
	s := percent(p, digits)
	if p > 0 {
		s = "+" + s
	}
	return s + "%"
}

func percent(p float64, digits int) string {
	s := strconv.FormatFloat(p*100, 'f', max(digits, 0), 64)
	if strings.Trim(s, "-0.") == "" {
		// values that round to zero print unsigned
		s = strings.TrimPrefix(s, "-")
	}
	return s
}
