package lead

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var companySuffixes = []string{", Inc.", ", LLC", ", Corp.", ", Corporation", ", Ltd."}

// StandardizeCompany trims raw, strips a trailing legal suffix and title-cases
// the rest.
func StandardizeCompany(raw string) string {
	company := strings.TrimSpace(raw)
	if company == "" {
		return ""
	}
	for _, suffix := range companySuffixes {
		company = strings.TrimSuffix(company, suffix)
	}
	return cases.Title(language.Und).String(strings.TrimSpace(company))
}

// Deal value bounds for revenue-based estimates.
const (
	MinEstimatedValue = 1000
	MaxEstimatedValue = 500000
)

// EstimateValue guesses a deal value as 0.1% of annual revenue, clamped to
// [MinEstimatedValue, MaxEstimatedValue]. Non-positive or NaN revenue
// yields fallback.
func EstimateValue(revenue float64, fallback int) int {
	if math.IsNaN(revenue) || revenue <= 0 {
		return fallback
	}
	// Clamp before converting; int() of a huge float is undefined.
	v := revenue * 0.001
	if v >= MaxEstimatedValue {
		return MaxEstimatedValue
	}
	if v < MinEstimatedValue {
		return MinEstimatedValue
	}
	return int(v)
}
