// Package architect analyses a use-case description and recommends the
// most cost-effective model: it extracts requirements, ranks every known
// model against them, and projects monthly costs and savings.
package architect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/knowledge"
)

// ErrNoCandidates is returned when ranking yields no suitable models,
// typically because the knowledge store has not been populated yet.
var ErrNoCandidates = errors.New("architect: no suitable models found in knowledge base")

// How many of the ranked candidates are costed as alternatives.
const maxAlternatives = 3

// Recommendation names the best-matching model and its projected cost.
type Recommendation struct {
	Model          string  `json:"model"`
	MonthlyCost    string  `json:"monthly_cost"`
	MonthlyCostRaw float64 `json:"monthly_cost_raw"`
	Reasoning      string  `json:"reasoning"`
	Action         string  `json:"action,omitempty"`
}

// Alternative is one of the runner-up candidates with its costing.
type Alternative struct {
	Provider                string   `json:"provider"`
	ModelName               string   `json:"model_name"`
	MonthlyCost             string   `json:"monthly_cost"`
	MonthlyCostRaw          float64  `json:"monthly_cost_raw"`
	InputCostPer1M          string   `json:"input_cost_per_1m"`
	OutputCostPer1M         string   `json:"output_cost_per_1m"`
	MatchScore              int      `json:"match_score"`
	Reasons                 []string `json:"reasons"`
	ContextWindow           *int     `json:"context_window"`
	SupportsFunctionCalling bool     `json:"supports_function_calling"`
	SupportsVision          bool     `json:"supports_vision"`
}

// Volume echoes the token volumes the costing was based on.
type Volume struct {
	MonthlyInputTokens  int64 `json:"monthly_input_tokens"`
	MonthlyOutputTokens int64 `json:"monthly_output_tokens"`
}

// CurrentModel is the caller's present model and its projected cost.
type CurrentModel struct {
	Name           string  `json:"name"`
	MonthlyCost    string  `json:"monthly_cost"`
	MonthlyCostRaw float64 `json:"monthly_cost_raw"`
}

// Savings is the delta between the current model and the recommendation.
type Savings struct {
	Monthly    string  `json:"monthly"`
	MonthlyRaw float64 `json:"monthly_raw"`
	Annual     string  `json:"annual"`
	AnnualRaw  float64 `json:"annual_raw"`
	Percentage string  `json:"percentage"`
}

// Report is the complete output of one optimisation request. It is
// recomputed from scratch on every call and never cached.
type Report struct {
	Status         string         `json:"status"`
	UseCase        string         `json:"use_case"`
	Requirements   Requirements   `json:"requirements"`
	Recommendation Recommendation `json:"recommendation"`
	Alternatives   []Alternative  `json:"alternatives"`
	Volume         Volume         `json:"volume"`
	CurrentModel   *CurrentModel  `json:"current_model,omitempty"`
	Savings        *Savings       `json:"savings,omitempty"`
}

// Architect composes the extractor, ranker and cost calculator into one
// recommend-and-compare flow over a shared knowledge store handle.
type Architect struct {
	store     *knowledge.Store
	extractor *Extractor
	logger    *logrus.Logger
}

// New builds an architect over the given store and extractor.
func New(store *knowledge.Store, extractor *Extractor, logger *logrus.Logger) *Architect {
	return &Architect{store: store, extractor: extractor, logger: logger}
}

// Optimize analyses the use case and recommends the best-value model.
// When monthlyOutputTokens is nil it defaults to 20% of the input volume
// (rounded down). When currentModel is set and found in the store
// (case-insensitive match on the model identifier), the report includes
// its cost and the savings of switching.
func (a *Architect) Optimize(ctx context.Context, description string, monthlyInputTokens int64, monthlyOutputTokens *int64, currentModel string) (*Report, error) {
	outputTokens := monthlyInputTokens / 5
	if monthlyOutputTokens != nil {
		outputTokens = *monthlyOutputTokens
	}

	a.logger.WithFields(logrus.Fields{
		"use_case":      description,
		"input_tokens":  monthlyInputTokens,
		"output_tokens": outputTokens,
	}).Info("Analysing use case")

	reqs := a.extractor.Extract(ctx, description)
	candidates := Rank(reqs, a.store.Models(""))
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	a.logger.WithField("candidates", len(candidates)).Debug("Ranked candidate models")

	best := candidates[0]
	bestCost := MonthlyCost(best.InputCost, best.OutputCost, monthlyInputTokens, outputTokens)

	reasoning := "Best match"
	if len(best.MatchReasons) > 0 {
		reasoning = strings.Join(best.MatchReasons, " | ")
	}

	report := &Report{
		Status:       "success",
		UseCase:      description,
		Requirements: reqs,
		Recommendation: Recommendation{
			Model:          best.Provider + " " + best.ModelName,
			MonthlyCost:    formatMoney(bestCost),
			MonthlyCostRaw: bestCost,
			Reasoning:      reasoning,
		},
		Volume: Volume{
			MonthlyInputTokens:  monthlyInputTokens,
			MonthlyOutputTokens: outputTokens,
		},
	}

	alternatives := candidates
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	for _, c := range alternatives {
		cost := MonthlyCost(c.InputCost, c.OutputCost, monthlyInputTokens, outputTokens)
		report.Alternatives = append(report.Alternatives, Alternative{
			Provider:                c.Provider,
			ModelName:               c.ModelName,
			MonthlyCost:             formatMoney(cost),
			MonthlyCostRaw:          cost,
			InputCostPer1M:          fmt.Sprintf("$%.2f", c.InputCost),
			OutputCostPer1M:         fmt.Sprintf("$%.2f", c.OutputCost),
			MatchScore:              c.MatchScore,
			Reasons:                 c.MatchReasons,
			ContextWindow:           c.ContextWindow,
			SupportsFunctionCalling: c.SupportsFunctionCalling,
			SupportsVision:          c.SupportsVision,
		})
	}

	if currentModel != "" {
		if meta, ok := a.findModel(currentModel); ok {
			currentCost := MonthlyCost(meta.InputCost, meta.OutputCost, monthlyInputTokens, outputTokens)
			report.CurrentModel = &CurrentModel{
				Name:           currentModel,
				MonthlyCost:    formatMoney(currentCost),
				MonthlyCostRaw: currentCost,
			}
			if currentCost != 0 {
				attachSavings(report, best.ModelName, currentCost, bestCost)
			}
		} else {
			a.logger.WithField("model", currentModel).Warn("Current model not found in knowledge base")
		}
	}

	return report, nil
}

// findModel looks up a model by identifier, case-insensitively.
func (a *Architect) findModel(name string) (knowledge.Metadata, bool) {
	for _, meta := range a.store.Models("") {
		if strings.EqualFold(meta.ModelName, name) {
			return meta, true
		}
	}
	return knowledge.Metadata{}, false
}

func attachSavings(report *Report, bestModel string, currentCost, bestCost float64) {
	savings := currentCost - bestCost
	pct := savings / currentCost * 100

	report.Savings = &Savings{
		Monthly:    formatMoney(savings),
		MonthlyRaw: savings,
		Annual:     formatMoney(savings * 12),
		AnnualRaw:  savings * 12,
		Percentage: fmt.Sprintf("%.1f%%", pct),
	}

	if savings > 0 {
		report.Recommendation.Action = fmt.Sprintf("Switch to %s to save %s/month", bestModel, formatMoney(savings))
	} else {
		report.Recommendation.Action = "Current model is already cost-effective"
	}
}

// formatMoney renders a dollar amount with thousands grouping and cents.
func formatMoney(v float64) string {
	return rankPrinter.Sprintf("$%.2f", v)
}
