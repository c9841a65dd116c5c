package utils

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is the sentinel shown for missing or unrecognized values.
const Unknown = "—"

var titleCaser = cases.Title(language.English)

// ToTitle normalizes a stored enum-like value ("Credit Card", "gift_card")
// into display casing. Empty input yields the Unknown sentinel.
func ToTitle(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Unknown
	}
	v = strings.ReplaceAll(v, "_", " ")
	return titleCaser.String(strings.ToLower(v))
}

// LabelToForecast translates a model label into the localized forecast text.
// Unknown labels map to the Unknown sentinel, never to blank output.
func LabelToForecast(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "will_churn":
		return "Va a cancelar"
	case "will_continue":
		return "Va a continuar"
	default:
		return Unknown
	}
}

// FormatProbability renders a probability as "0.873 (87.3%)". Non-finite
// input yields the Unknown sentinel.
func FormatProbability(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Unknown
	}
	return fmt.Sprintf("%.3f (%.1f%%)", p, p*100)
}
