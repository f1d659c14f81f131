package pricing

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var englishPrinter = message.NewPrinter(language.English)

// ToText renders a record as the single-line document that gets embedded.
// The field order is fixed and no map iteration is involved, so identical
// records always produce byte-identical text.
func ToText(rec Record) string {
	parts := []string{
		"Provider: " + rec.Provider,
		"Model: " + rec.ModelName + " (" + rec.ModelDisplayName + ")",
		"Pricing: $" + formatCost(rec.InputCostPer1MTokens) + " per 1M input tokens, $" +
			formatCost(rec.OutputCostPer1MTokens) + " per 1M output tokens",
	}

	if rec.ContextWindow != nil {
		parts = append(parts, englishPrinter.Sprintf("Context Window: %d tokens", *rec.ContextWindow))
	}

	var features []string
	if rec.SupportsFunctionCalling {
		features = append(features, "function calling")
	}
	if rec.SupportsVision {
		features = append(features, "vision/image input")
	}
	if rec.SupportsJSONMode {
		features = append(features, "JSON mode")
	}
	if len(features) > 0 {
		parts = append(parts, "Features: "+strings.Join(features, ", "))
	}

	if len(rec.AdditionalFeatures) > 0 {
		parts = append(parts, "Additional: "+strings.Join(rec.AdditionalFeatures, ", "))
	}

	if rec.Notes != nil && *rec.Notes != "" {
		parts = append(parts, "Notes: "+*rec.Notes)
	}

	return strings.Join(parts, " | ")
}

// formatCost prints a cost with the minimal number of digits needed, so
// that 0.5 renders as "0.5" and 30 as "30".
func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
