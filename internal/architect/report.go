package architect

import (
	"fmt"
	"strings"
)

// Text renders the report for terminal output.
func (r *Report) Text() string {
	var b strings.Builder

	b.WriteString("Cost Optimisation Report\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "Use case: %s\n", r.UseCase)
	fmt.Fprintf(&b, "Volume: %s input / %s output tokens per month\n\n",
		rankPrinter.Sprintf("%d", r.Volume.MonthlyInputTokens),
		rankPrinter.Sprintf("%d", r.Volume.MonthlyOutputTokens))

	b.WriteString("Detected requirements:\n")
	fmt.Fprintf(&b, "  Function calling: %s\n", yesNo(isTrue(r.Requirements.NeedsFunctionCalling)))
	fmt.Fprintf(&b, "  Vision:           %s\n", yesNo(isTrue(r.Requirements.NeedsVision)))
	fmt.Fprintf(&b, "  Large context:    %s\n", yesNo(isTrue(r.Requirements.NeedsLargeContext)))
	fmt.Fprintf(&b, "  Latency tolerance: %s\n", r.Requirements.MaxLatencyTolerance)
	fmt.Fprintf(&b, "  Quality:           %s\n", r.Requirements.QualityRequirement)
	fmt.Fprintf(&b, "  Budget priority:   %s\n\n", r.Requirements.BudgetPriority)

	fmt.Fprintf(&b, "Recommended: %s\n", r.Recommendation.Model)
	fmt.Fprintf(&b, "  Monthly cost: %s\n", r.Recommendation.MonthlyCost)
	fmt.Fprintf(&b, "  Why: %s\n", r.Recommendation.Reasoning)
	if r.Recommendation.Action != "" {
		fmt.Fprintf(&b, "  Action: %s\n", r.Recommendation.Action)
	}

	if r.CurrentModel != nil {
		fmt.Fprintf(&b, "\nCurrent model: %s at %s/month\n", r.CurrentModel.Name, r.CurrentModel.MonthlyCost)
	}
	if r.Savings != nil {
		fmt.Fprintf(&b, "Savings: %s/month (%s/year, %s)\n",
			r.Savings.Monthly, r.Savings.Annual, r.Savings.Percentage)
	}

	if len(r.Alternatives) > 0 {
		b.WriteString("\nAlternatives:\n")
		for i, alt := range r.Alternatives {
			fmt.Fprintf(&b, "  %d. %s %s at %s/month (score %d)\n",
				i+1, alt.Provider, alt.ModelName, alt.MonthlyCost, alt.MatchScore)
			fmt.Fprintf(&b, "     Input %s/1M, output %s/1M\n", alt.InputCostPer1M, alt.OutputCostPer1M)
			if len(alt.Reasons) > 0 {
				fmt.Fprintf(&b, "     %s\n", strings.Join(alt.Reasons, " | "))
			}
		}
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
