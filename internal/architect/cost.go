package architect

import "math"

const tokensPerMillion = 1_000_000

// MonthlyCost projects the monthly spend in USD for the given per-1M
// pricing and token volumes, rounded to cents. Token counts are assumed
// non-negative; callers validate volumes before reaching this point.
func MonthlyCost(inputCostPer1M, outputCostPer1M float64, monthlyInputTokens, monthlyOutputTokens int64) float64 {
	cost := float64(monthlyInputTokens)/tokensPerMillion*inputCostPer1M +
		float64(monthlyOutputTokens)/tokensPerMillion*outputCostPer1M
	return math.Round(cost*100) / 100
}
