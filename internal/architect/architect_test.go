package architect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/llm"
	"github.com/modelcost/modelcost/internal/pricing"
)

func seededArchitect(t *testing.T) *Architect {
	t.Helper()

	logger := quietLogger()
	store, err := knowledge.Open(t.TempDir(), knowledge.DefaultCollection, embedding.NewLocal(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	entries := []struct {
		model   string
		in, out float64
		window  int
		vision  bool
	}{
		{"gpt-4", 30, 60, 8192, false},
		{"gpt-4o", 2.5, 10, 128000, true},
		{"gpt-3.5-turbo", 0.5, 1.5, 16385, false},
	}

	var raws []pricing.Raw
	for _, e := range entries {
		in, out, window, vision, fc := e.in, e.out, e.window, e.vision, true
		raws = append(raws, pricing.Raw{
			Provider:                "OpenAI",
			ModelName:               e.model,
			InputCostPer1MTokens:    &in,
			OutputCostPer1MTokens:   &out,
			ContextWindow:           &window,
			SupportsVision:          &vision,
			SupportsFunctionCalling: &fc,
		})
	}
	require.Equal(t, len(entries), store.Add(context.Background(), raws))

	return New(store, NewExtractor(llm.Unavailable(), logger), logger)
}

func TestOptimizeRecommendsCheapModelForBudgetUseCase(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap text classification", 1_000_000, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "success", report.Status)
	assert.Equal(t, "OpenAI gpt-3.5-turbo", report.Recommendation.Model)
	assert.NotEmpty(t, report.Recommendation.Reasoning)
	assert.Empty(t, report.Recommendation.Action)
	assert.Nil(t, report.CurrentModel)
	assert.Nil(t, report.Savings)
}

func TestOptimizeDefaultsOutputToTwentyPercent(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, nil, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), report.Volume.MonthlyInputTokens)
	assert.Equal(t, int64(200_000), report.Volume.MonthlyOutputTokens)

	// gpt-3.5-turbo: 1M * $0.50 + 200k * $1.50 = $0.80.
	assert.Equal(t, 0.8, report.Recommendation.MonthlyCostRaw)
	assert.Equal(t, "$0.80", report.Recommendation.MonthlyCost)
}

func TestOptimizeExplicitOutputTokens(t *testing.T) {
	arch := seededArchitect(t)
	out := int64(500_000)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, &out, "")
	require.NoError(t, err)

	assert.Equal(t, int64(500_000), report.Volume.MonthlyOutputTokens)
	// 1M * $0.50 + 500k * $1.50 = $1.25.
	assert.Equal(t, 1.25, report.Recommendation.MonthlyCostRaw)
}

func TestOptimizeSavingsAgainstCurrentModel(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, nil, "GPT-4")
	require.NoError(t, err)

	require.NotNil(t, report.CurrentModel)
	assert.Equal(t, "GPT-4", report.CurrentModel.Name)
	// gpt-4: 1M * $30 + 200k * $60 = $42.
	assert.Equal(t, 42.0, report.CurrentModel.MonthlyCostRaw)

	require.NotNil(t, report.Savings)
	assert.InDelta(t, 41.2, report.Savings.MonthlyRaw, 1e-9)
	assert.InDelta(t, 494.4, report.Savings.AnnualRaw, 1e-9)
	assert.Equal(t, "98.1%", report.Savings.Percentage)
	assert.Contains(t, report.Recommendation.Action, "Switch to gpt-3.5-turbo")
}

func TestOptimizeCurrentModelAlreadyBest(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, nil, "gpt-3.5-turbo")
	require.NoError(t, err)

	require.NotNil(t, report.Savings)
	assert.Equal(t, 0.0, report.Savings.MonthlyRaw)
	assert.Equal(t, "Current model is already cost-effective", report.Recommendation.Action)
}

func TestOptimizeUnknownCurrentModelIgnored(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, nil, "claude-opus")
	require.NoError(t, err)

	assert.Nil(t, report.CurrentModel)
	assert.Nil(t, report.Savings)
}

func TestOptimizeVisionUseCaseFiltersCandidates(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "analyze product images", 1_000_000, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "OpenAI gpt-4o", report.Recommendation.Model)
	for _, alt := range report.Alternatives {
		assert.True(t, alt.SupportsVision)
	}
}

func TestOptimizeEmptyStore(t *testing.T) {
	logger := quietLogger()
	store, err := knowledge.Open(t.TempDir(), knowledge.DefaultCollection, embedding.NewLocal(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	arch := New(store, NewExtractor(llm.Unavailable(), logger), logger)

	_, err = arch.Optimize(context.Background(), "anything", 1_000_000, nil, "")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestOptimizeAlternativesCappedAtThree(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "general chat assistant", 1_000_000, nil, "")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(report.Alternatives), 3)
	assert.NotEmpty(t, report.Alternatives)
}

func TestReportTextRendering(t *testing.T) {
	arch := seededArchitect(t)

	report, err := arch.Optimize(context.Background(), "cheap classification", 1_000_000, nil, "gpt-4")
	require.NoError(t, err)

	text := report.Text()
	assert.Contains(t, text, "Recommended: OpenAI gpt-3.5-turbo")
	assert.Contains(t, text, "Savings:")
	assert.Contains(t, text, "Alternatives:")
}
