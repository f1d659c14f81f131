// Package pricing defines the canonical pricing record schema and the
// normalisation rules that shape raw scraped or user-supplied data into it.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Raw is a pricing entry as it arrives from a scraper or API caller,
// before validation. Pointer fields distinguish "absent" from zero values.
type Raw struct {
	Provider                string   `json:"provider"`
	ModelName               string   `json:"model_name"`
	ModelDisplayName        *string  `json:"model_display_name"`
	InputCostPer1MTokens    *float64 `json:"input_cost_per_1m_tokens"`
	OutputCostPer1MTokens   *float64 `json:"output_cost_per_1m_tokens"`
	ContextWindow           *int     `json:"context_window"`
	SupportsFunctionCalling *bool    `json:"supports_function_calling"`
	SupportsVision          *bool    `json:"supports_vision"`
	SupportsJSONMode        *bool    `json:"supports_json_mode"`
	MaxOutputTokens         *int     `json:"max_output_tokens"`
	TrainingDataCutoff      *string  `json:"training_data_cutoff"`
	AdditionalFeatures      []string `json:"additional_features"`
	PricingURL              *string  `json:"pricing_url"`
	LastUpdated             *string  `json:"last_updated"`
	Notes                   *string  `json:"notes"`
}

// Record is a validated, fully defaulted pricing entry. Optional fields
// stay as pointers so they serialise to JSON null when absent.
type Record struct {
	Provider                string   `json:"provider"`
	ModelName               string   `json:"model_name"`
	ModelDisplayName        string   `json:"model_display_name"`
	InputCostPer1MTokens    float64  `json:"input_cost_per_1m_tokens"`
	OutputCostPer1MTokens   float64  `json:"output_cost_per_1m_tokens"`
	ContextWindow           *int     `json:"context_window"`
	SupportsFunctionCalling bool     `json:"supports_function_calling"`
	SupportsVision          bool     `json:"supports_vision"`
	SupportsJSONMode        bool     `json:"supports_json_mode"`
	MaxOutputTokens         *int     `json:"max_output_tokens"`
	TrainingDataCutoff      *string  `json:"training_data_cutoff"`
	AdditionalFeatures      []string `json:"additional_features"`
	PricingURL              *string  `json:"pricing_url"`
	LastUpdated             string   `json:"last_updated"`
	Notes                   *string  `json:"notes"`
}

// ValidationError reports a single malformed field in a raw pricing entry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pricing validation failed: %s: %s", e.Field, e.Reason)
}

// BatchError pairs a validation failure with the index of the entry that
// produced it, so a batch can report partial failures without aborting.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

var titleCaser = cases.Title(language.English)

// Normalize validates a raw entry and fills in every default the schema
// specifies. It fails when provider or model name is missing, or when
// either cost field is missing or negative; everything else receives a
// default.
func Normalize(raw Raw) (Record, error) {
	if strings.TrimSpace(raw.Provider) == "" {
		return Record{}, &ValidationError{Field: "provider", Reason: "required"}
	}
	if strings.TrimSpace(raw.ModelName) == "" {
		return Record{}, &ValidationError{Field: "model_name", Reason: "required"}
	}
	if raw.InputCostPer1MTokens == nil {
		return Record{}, &ValidationError{Field: "input_cost_per_1m_tokens", Reason: "required"}
	}
	if *raw.InputCostPer1MTokens < 0 {
		return Record{}, &ValidationError{Field: "input_cost_per_1m_tokens", Reason: "must not be negative"}
	}
	if raw.OutputCostPer1MTokens == nil {
		return Record{}, &ValidationError{Field: "output_cost_per_1m_tokens", Reason: "required"}
	}
	if *raw.OutputCostPer1MTokens < 0 {
		return Record{}, &ValidationError{Field: "output_cost_per_1m_tokens", Reason: "must not be negative"}
	}
	if raw.ContextWindow != nil && *raw.ContextWindow < 0 {
		return Record{}, &ValidationError{Field: "context_window", Reason: "must not be negative"}
	}
	if raw.MaxOutputTokens != nil && *raw.MaxOutputTokens < 0 {
		return Record{}, &ValidationError{Field: "max_output_tokens", Reason: "must not be negative"}
	}

	rec := Record{
		Provider:                raw.Provider,
		ModelName:               raw.ModelName,
		InputCostPer1MTokens:    *raw.InputCostPer1MTokens,
		OutputCostPer1MTokens:   *raw.OutputCostPer1MTokens,
		ContextWindow:           raw.ContextWindow,
		SupportsFunctionCalling: boolOrFalse(raw.SupportsFunctionCalling),
		SupportsVision:          boolOrFalse(raw.SupportsVision),
		SupportsJSONMode:        boolOrFalse(raw.SupportsJSONMode),
		MaxOutputTokens:         raw.MaxOutputTokens,
		TrainingDataCutoff:      raw.TrainingDataCutoff,
		AdditionalFeatures:      raw.AdditionalFeatures,
		PricingURL:              raw.PricingURL,
		Notes:                   raw.Notes,
	}

	if rec.AdditionalFeatures == nil {
		rec.AdditionalFeatures = []string{}
	}

	if raw.ModelDisplayName != nil && *raw.ModelDisplayName != "" {
		rec.ModelDisplayName = *raw.ModelDisplayName
	} else {
		rec.ModelDisplayName = DisplayName(raw.ModelName)
	}

	if raw.LastUpdated != nil && *raw.LastUpdated != "" {
		rec.LastUpdated = *raw.LastUpdated
	} else {
		rec.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	}

	return rec, nil
}

// NormalizeBatch normalises each entry independently, collecting per-index
// errors instead of aborting the batch. It returns the successfully
// normalised subset in input order.
func NormalizeBatch(raws []Raw) ([]Record, []*BatchError) {
	records := make([]Record, 0, len(raws))
	var errs []*BatchError

	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			errs = append(errs, &BatchError{Index: i, Err: err})
			continue
		}
		records = append(records, rec)
	}

	return records, errs
}

// DisplayName derives a human-friendly name from a model identifier by
// replacing separators with spaces and title-casing the words.
func DisplayName(modelName string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(modelName)
	return titleCaser.String(s)
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}
