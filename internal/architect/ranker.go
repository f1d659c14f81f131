package architect

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/modelcost/modelcost/internal/knowledge"
)

// MaxCandidates caps how many ranked candidates a request returns.
const MaxCandidates = 5

// Score thresholds and deltas for the ranking heuristic.
const (
	largeContextTokens = 100_000
	smallContextTokens = 10_000
	cheapInputCost     = 1.0
	premiumInputCost   = 20.0
	qualityInputCost   = 5.0
)

// Candidate is a pricing record's metadata plus its match score and the
// human-readable reasons each rule contributed.
type Candidate struct {
	knowledge.Metadata
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons"`
}

var rankPrinter = message.NewPrinter(language.English)

// Rank scores every record against the requirements and returns the top
// candidates, highest score first. Ties keep the original enumeration
// order. A vision requirement is a hard filter: records without vision
// support are excluded outright, not merely penalised. All other rules
// are independent and all applicable ones fire. Records lacking a field
// (such as context window) count as zero for threshold comparisons.
func Rank(reqs Requirements, records []knowledge.Metadata) []Candidate {
	candidates := make([]Candidate, 0, len(records))

	for _, meta := range records {
		score := 0
		var reasons []string

		if isTrue(reqs.NeedsVision) {
			if !meta.SupportsVision {
				continue
			}
			score += 100
			reasons = append(reasons, "Supports vision")
		}

		if isTrue(reqs.NeedsFunctionCalling) && meta.SupportsFunctionCalling {
			score += 50
			reasons = append(reasons, "Supports function calling")
		}

		if isTrue(reqs.NeedsLargeContext) {
			contextWindow := 0
			if meta.ContextWindow != nil {
				contextWindow = *meta.ContextWindow
			}
			switch {
			case contextWindow >= largeContextTokens:
				score += 75
				reasons = append(reasons, rankPrinter.Sprintf("Large context (%d tokens)", contextWindow))
			case contextWindow < smallContextTokens:
				score -= 25
			}
		}

		switch reqs.BudgetPriority {
		case LevelHigh:
			if meta.InputCost < cheapInputCost {
				score += 100
				reasons = append(reasons, "Very affordable")
			} else if meta.InputCost > premiumInputCost {
				score -= 50
			}
		case LevelLow:
			if meta.InputCost > premiumInputCost {
				score += 50
				reasons = append(reasons, "Premium model")
			}
		}

		switch reqs.QualityRequirement {
		case LevelHigh:
			if meta.InputCost > qualityInputCost {
				score += 50
				reasons = append(reasons, "High-quality model")
			}
		case LevelLow:
			if meta.InputCost < cheapInputCost {
				score += 30
				reasons = append(reasons, "Efficient for simple tasks")
			}
		}

		candidates = append(candidates, Candidate{
			Metadata:     meta,
			MatchScore:   score,
			MatchReasons: reasons,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}
