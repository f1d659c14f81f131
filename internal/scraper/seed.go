package scraper

import (
	"time"

	"github.com/modelcost/modelcost/internal/pricing"
)

// SeedData returns the built-in OpenAI pricing snapshot used whenever
// live scraping fails or yields nothing. Figures are current as of
// January 2026. LastUpdated is stamped at call time.
func SeedData() []pricing.Raw {
	now := time.Now().UTC().Format(time.RFC3339)

	seed := []pricing.Raw{
		{
			Provider:                "OpenAI",
			ModelName:               "gpt-4o",
			ModelDisplayName:        strPtr("GPT-4o"),
			InputCostPer1MTokens:    floatPtr(2.50),
			OutputCostPer1MTokens:   floatPtr(10.0),
			ContextWindow:           intPtr(128000),
			SupportsFunctionCalling: boolPtr(true),
			SupportsVision:          boolPtr(true),
			SupportsJSONMode:        boolPtr(true),
			MaxOutputTokens:         intPtr(16384),
			TrainingDataCutoff:      strPtr("2023-10"),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Most capable GPT-4 model, multimodal input support"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "gpt-4o-mini",
			ModelDisplayName:        strPtr("GPT-4o mini"),
			InputCostPer1MTokens:    floatPtr(0.15),
			OutputCostPer1MTokens:   floatPtr(0.60),
			ContextWindow:           intPtr(128000),
			SupportsFunctionCalling: boolPtr(true),
			SupportsVision:          boolPtr(true),
			SupportsJSONMode:        boolPtr(true),
			MaxOutputTokens:         intPtr(16384),
			TrainingDataCutoff:      strPtr("2023-10"),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Affordable and intelligent small model for fast, lightweight tasks"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "gpt-4-turbo",
			ModelDisplayName:        strPtr("GPT-4 Turbo"),
			InputCostPer1MTokens:    floatPtr(10.0),
			OutputCostPer1MTokens:   floatPtr(30.0),
			ContextWindow:           intPtr(128000),
			SupportsFunctionCalling: boolPtr(true),
			SupportsVision:          boolPtr(true),
			SupportsJSONMode:        boolPtr(true),
			MaxOutputTokens:         intPtr(4096),
			TrainingDataCutoff:      strPtr("2023-12"),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Previous generation high-intelligence model"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "gpt-4",
			ModelDisplayName:        strPtr("GPT-4"),
			InputCostPer1MTokens:    floatPtr(30.0),
			OutputCostPer1MTokens:   floatPtr(60.0),
			ContextWindow:           intPtr(8192),
			SupportsFunctionCalling: boolPtr(true),
			SupportsJSONMode:        boolPtr(true),
			MaxOutputTokens:         intPtr(8192),
			TrainingDataCutoff:      strPtr("2023-09"),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Original GPT-4 model"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "gpt-3.5-turbo",
			ModelDisplayName:        strPtr("GPT-3.5 Turbo"),
			InputCostPer1MTokens:    floatPtr(0.50),
			OutputCostPer1MTokens:   floatPtr(1.50),
			ContextWindow:           intPtr(16385),
			SupportsFunctionCalling: boolPtr(true),
			SupportsJSONMode:        boolPtr(true),
			MaxOutputTokens:         intPtr(4096),
			TrainingDataCutoff:      strPtr("2021-09"),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Fast and affordable model for simple tasks"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "text-embedding-3-small",
			ModelDisplayName:        strPtr("Text Embedding 3 Small"),
			InputCostPer1MTokens:    floatPtr(0.02),
			OutputCostPer1MTokens:   floatPtr(0.0),
			ContextWindow:           intPtr(8191),
			SupportsFunctionCalling: boolPtr(false),
			SupportsJSONMode:        boolPtr(false),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Most efficient embedding model"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "text-embedding-3-large",
			ModelDisplayName:        strPtr("Text Embedding 3 Large"),
			InputCostPer1MTokens:    floatPtr(0.13),
			OutputCostPer1MTokens:   floatPtr(0.0),
			ContextWindow:           intPtr(8191),
			SupportsFunctionCalling: boolPtr(false),
			SupportsJSONMode:        boolPtr(false),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("High-performance embedding model"),
		},
		{
			Provider:                "OpenAI",
			ModelName:               "dall-e-3",
			ModelDisplayName:        strPtr("DALL-E 3"),
			InputCostPer1MTokens:    floatPtr(0.0),
			OutputCostPer1MTokens:   floatPtr(0.0),
			SupportsFunctionCalling: boolPtr(false),
			SupportsVision:          boolPtr(false),
			SupportsJSONMode:        boolPtr(false),
			PricingURL:              strPtr(DefaultPricingURL),
			Notes:                   strPtr("Image generation model. Pricing: $0.040-$0.120 per image depending on quality/size"),
		},
	}

	for i := range seed {
		seed[i].LastUpdated = strPtr(now)
	}
	return seed
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }
func boolPtr(b bool) *bool        { return &b }
