package architect

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/llm"
)

// Requirement levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Requirements is the structured requirement set extracted from a
// free-text use-case description. The boolean needs are tri-state:
// nil means unknown.
type Requirements struct {
	NeedsFunctionCalling *bool  `json:"needs_function_calling"`
	NeedsVision          *bool  `json:"needs_vision"`
	NeedsLargeContext    *bool  `json:"needs_large_context"`
	MaxLatencyTolerance  string `json:"max_latency_tolerance"`
	QualityRequirement   string `json:"quality_requirement"`
	BudgetPriority       string `json:"budget_priority"`
}

const extractSystemPrompt = `You are a technical requirements analyst. Extract key requirements from use case descriptions.

Return a JSON object with these fields (use null for unknown):
{
  "needs_function_calling": true/false/null,
  "needs_vision": true/false/null,
  "needs_large_context": true/false/null,
  "max_latency_tolerance": "low"/"medium"/"high"/null,
  "quality_requirement": "high"/"medium"/"low",
  "budget_priority": "high"/"medium"/"low"
}

Examples:
- "chatbot for customer support" -> quality: medium, latency: low, function_calling: true
- "analyze PDFs with images" -> vision: true, large_context: true
- "simple text classification" -> quality: low, budget_priority: high`

// Keyword sets driving the deterministic fallback extraction.
var (
	visionWords  = []string{"image", "photo", "visual", "pdf", "vision"}
	actionWords  = []string{"function", "tool", "api", "action"}
	contextWords = []string{"long", "large", "context", "document", "book"}
	speedWords   = []string{"fast", "real-time", "instant", "low latency"}
	costWords    = []string{"cheap", "budget", "cost-effective", "affordable"}
	premiumWords = []string{"high quality", "accurate", "best", "premium"}
)

// Extractor turns use-case descriptions into requirement sets, via the
// LLM when one is configured and a keyword fallback otherwise.
type Extractor struct {
	llm    llm.Capability
	logger *logrus.Logger
}

// NewExtractor builds an extractor around the given completion capability.
func NewExtractor(capability llm.Capability, logger *logrus.Logger) *Extractor {
	return &Extractor{llm: capability, logger: logger}
}

// Extract produces a fresh requirement set for the description. Any LLM
// call or parse failure degrades to the deterministic fallback; fields
// the LLM leaves out keep their fallback values.
func (e *Extractor) Extract(ctx context.Context, description string) Requirements {
	reqs := extractFallback(description)

	if !e.llm.Enabled() {
		return reqs
	}

	content, err := e.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: extractSystemPrompt},
		{Role: llm.RoleUser, Content: "Use case: " + description + "\n\nExtract requirements as JSON:"},
	})
	if err != nil {
		e.logger.WithError(err).Warn("Requirement extraction via LLM failed, using fallback")
		return reqs
	}

	parsed, err := parseRequirementsJSON(content)
	if err != nil {
		e.logger.WithError(err).Warn("Could not parse LLM requirements, using fallback")
		return reqs
	}

	mergeRequirements(&reqs, parsed)
	return reqs
}

// extractFallback drives every field from case-insensitive keyword
// matching. Cost words intentionally set budget priority high AND quality
// low together; the premium check runs afterwards so it overrides the
// quality half when both appear.
func extractFallback(description string) Requirements {
	desc := strings.ToLower(description)

	reqs := Requirements{
		MaxLatencyTolerance: LevelMedium,
		QualityRequirement:  LevelMedium,
		BudgetPriority:      LevelMedium,
	}

	if containsAny(desc, visionWords) {
		reqs.NeedsVision = boolPtr(true)
	}
	if containsAny(desc, actionWords) {
		reqs.NeedsFunctionCalling = boolPtr(true)
	}
	if containsAny(desc, contextWords) {
		reqs.NeedsLargeContext = boolPtr(true)
	}
	if containsAny(desc, speedWords) {
		reqs.MaxLatencyTolerance = LevelLow
	}
	if containsAny(desc, costWords) {
		reqs.BudgetPriority = LevelHigh
		reqs.QualityRequirement = LevelLow
	}
	if containsAny(desc, premiumWords) {
		reqs.QualityRequirement = LevelHigh
	}

	return reqs
}

// requirementsPayload mirrors Requirements but with every field optional,
// so a partial LLM response merges onto the fallback instead of zeroing
// fields it never mentioned.
type requirementsPayload struct {
	NeedsFunctionCalling *bool   `json:"needs_function_calling"`
	NeedsVision          *bool   `json:"needs_vision"`
	NeedsLargeContext    *bool   `json:"needs_large_context"`
	MaxLatencyTolerance  *string `json:"max_latency_tolerance"`
	QualityRequirement   *string `json:"quality_requirement"`
	BudgetPriority       *string `json:"budget_priority"`
}

// parseRequirementsJSON extracts the first well-formed JSON object from
// an LLM response, tolerating surrounding prose or code fences.
func parseRequirementsJSON(content string) (requirementsPayload, error) {
	var payload requirementsPayload

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}

	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return requirementsPayload{}, err
	}
	return payload, nil
}

func mergeRequirements(dst *Requirements, src requirementsPayload) {
	if src.NeedsFunctionCalling != nil {
		dst.NeedsFunctionCalling = src.NeedsFunctionCalling
	}
	if src.NeedsVision != nil {
		dst.NeedsVision = src.NeedsVision
	}
	if src.NeedsLargeContext != nil {
		dst.NeedsLargeContext = src.NeedsLargeContext
	}
	if src.MaxLatencyTolerance != nil && validLevel(*src.MaxLatencyTolerance) {
		dst.MaxLatencyTolerance = *src.MaxLatencyTolerance
	}
	if src.QualityRequirement != nil && validLevel(*src.QualityRequirement) {
		dst.QualityRequirement = *src.QualityRequirement
	}
	if src.BudgetPriority != nil && validLevel(*src.BudgetPriority) {
		dst.BudgetPriority = *src.BudgetPriority
	}
}

func validLevel(s string) bool {
	return s == LevelLow || s == LevelMedium || s == LevelHigh
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }

func isTrue(b *bool) bool { return b != nil && *b }
