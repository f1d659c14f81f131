package oracle

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/llm"
	"github.com/modelcost/modelcost/internal/pricing"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testStore(t *testing.T, seed bool) *knowledge.Store {
	t.Helper()

	store, err := knowledge.Open(t.TempDir(), knowledge.DefaultCollection, embedding.NewLocal(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if seed {
		in, out := 2.5, 10.0
		notes := "Most capable GPT-4 model"
		require.Equal(t, 1, store.Add(context.Background(), []pricing.Raw{{
			Provider:              "OpenAI",
			ModelName:             "gpt-4o",
			InputCostPer1MTokens:  &in,
			OutputCostPer1MTokens: &out,
			Notes:                 &notes,
		}}))
	}
	return store
}

type stubCompleter struct {
	response string
	err      error
	messages []llm.Message
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.messages = messages
	return s.response, s.err
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	o := New(testStore(t, true), llm.Unavailable(), "gpt-4o-mini", quietLogger())

	_, err := o.Ask(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskEmptyStoreReturnsGuidance(t *testing.T) {
	o := New(testStore(t, false), llm.Unavailable(), "gpt-4o-mini", quietLogger())

	answer, err := o.Ask(context.Background(), "how much is gpt-4o?", 5)
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, answer)
}

func TestAskFallbackWithoutLLM(t *testing.T) {
	o := New(testStore(t, true), llm.Unavailable(), "gpt-4o-mini", quietLogger())

	answer, err := o.Ask(context.Background(), "how much does gpt-4o cost?", 5)
	require.NoError(t, err)

	assert.Contains(t, answer, "[Fallback Mode - LLM not available]")
	assert.Contains(t, answer, "gpt-4o")
	assert.Contains(t, answer, "$2.5 per 1M input tokens")
}

func TestAskWithLLM(t *testing.T) {
	stub := &stubCompleter{response: "GPT-4o costs $2.50 per 1M input tokens."}
	o := New(testStore(t, true), llm.Available(stub), "gpt-4o-mini", quietLogger())

	answer, err := o.Ask(context.Background(), "how much does gpt-4o cost?", 5)
	require.NoError(t, err)
	assert.Equal(t, "GPT-4o costs $2.50 per 1M input tokens.", answer)

	// The prompt must carry the retrieved context, numbered.
	require.Len(t, stub.messages, 2)
	assert.Equal(t, llm.RoleSystem, stub.messages[0].Role)
	assert.Contains(t, stub.messages[1].Content, "Context:")
	assert.Contains(t, stub.messages[1].Content, "1. Provider: OpenAI")
	assert.Contains(t, stub.messages[1].Content, "Question: how much does gpt-4o cost?")
}

func TestAskLLMFailureFallsBackToContext(t *testing.T) {
	stub := &stubCompleter{err: assert.AnError}
	o := New(testStore(t, true), llm.Available(stub), "gpt-4o-mini", quietLogger())

	answer, err := o.Ask(context.Background(), "gpt-4o pricing?", 5)
	require.NoError(t, err)
	assert.Contains(t, answer, "[Fallback Mode - LLM not available]")
	assert.Contains(t, answer, "gpt-4o")
}

func TestAskDefaultsResultCount(t *testing.T) {
	o := New(testStore(t, true), llm.Unavailable(), "gpt-4o-mini", quietLogger())

	answer, err := o.Ask(context.Background(), "pricing?", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
}

func TestStatus(t *testing.T) {
	store := testStore(t, true)

	withLLM := New(store, llm.Available(&stubCompleter{}), "gpt-4o-mini", quietLogger())
	status := withLLM.Status()
	assert.True(t, status.LLMAvailable)
	assert.Equal(t, "gpt-4o-mini", status.Model)
	assert.Equal(t, 1, status.KnowledgeBase.TotalModels)

	withoutLLM := New(store, llm.Unavailable(), "gpt-4o-mini", quietLogger())
	assert.False(t, withoutLLM.Status().LLMAvailable)
}
