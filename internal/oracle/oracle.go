// Package oracle answers natural-language pricing questions with
// retrieval-augmented generation: relevant entries are pulled from the
// knowledge store and handed to an LLM as grounding context. Without a
// configured LLM the oracle degrades to returning the retrieved context
// verbatim.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/llm"
)

// ErrEmptyQuestion is returned by Ask for blank input, before any
// retrieval or LLM work happens.
var ErrEmptyQuestion = errors.New("oracle: question cannot be empty")

// DefaultResults is how many knowledge entries are retrieved as context
// when the caller does not specify a count.
const DefaultResults = 5

const systemPrompt = `You are a pricing expert for AI and LLM services. Your role is to:

1. Answer questions about AI model pricing accurately and concisely
2. Compare costs between different models when asked
3. Recommend cost-effective options based on user requirements
4. Explain pricing in clear, non-technical language
5. Always cite specific numbers (cost per 1M tokens) when available

Use ONLY the pricing information provided in the context. Do not make up prices.
If information is not available, say so clearly.

Format monetary values clearly (e.g., "$2.50 per 1M tokens").`

// NoContextAnswer is returned when the knowledge store has nothing
// relevant to the question.
const NoContextAnswer = `I couldn't find any relevant pricing information in the knowledge base.

Try:
1. Running the scraper first: modelcost scrape
2. Adding pricing data manually with the CLI
3. Asking a different question`

// Status reports whether the LLM side of the oracle is usable and how
// much knowledge it has to draw on.
type Status struct {
	LLMAvailable  bool            `json:"llm_available"`
	Model         string          `json:"model"`
	KnowledgeBase knowledge.Stats `json:"knowledge_base"`
}

// Oracle glues the knowledge store to an optional chat completer.
type Oracle struct {
	store  *knowledge.Store
	llm    llm.Capability
	model  string
	logger *logrus.Logger
}

// New builds an oracle. The capability decides at startup whether
// answers are LLM-generated or fall back to raw context.
func New(store *knowledge.Store, capability llm.Capability, model string, logger *logrus.Logger) *Oracle {
	return &Oracle{store: store, llm: capability, model: model, logger: logger}
}

// Ask answers a pricing question. nResults bounds the retrieved context
// (DefaultResults when <= 0). The returned string is always a usable
// answer: retrieval and LLM failures degrade rather than error, and only
// a blank question is rejected.
func (o *Oracle) Ask(ctx context.Context, question string, nResults int) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if nResults <= 0 {
		nResults = DefaultResults
	}

	o.logger.WithField("question", question).Info("Searching knowledge base")

	results, err := o.store.Query(ctx, question, nResults, "")
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		o.logger.Warn("No relevant context found in knowledge base")
		return NoContextAnswer, nil
	}

	o.logger.WithField("entries", len(results)).Debug("Retrieved context")

	contextText := formatContext(results)
	messages := buildPrompt(question, contextText)

	if !o.llm.Enabled() {
		return fallbackAnswer(contextText), nil
	}

	o.logger.WithField("model", o.model).Info("Asking LLM")

	answer, err := o.llm.Complete(ctx, messages)
	if err != nil {
		o.logger.WithError(err).Warn("LLM request failed, falling back to raw context")
		return fallbackAnswer(contextText), nil
	}
	return answer, nil
}

// Status reports LLM availability and knowledge store statistics.
func (o *Oracle) Status() Status {
	return Status{
		LLMAvailable:  o.llm.Enabled(),
		Model:         o.model,
		KnowledgeBase: o.store.Stats(),
	}
}

// formatContext turns retrieval results into a numbered context block.
func formatContext(results []knowledge.Result) string {
	parts := []string{"Here is the relevant pricing information:\n"}
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, r.Document))
	}
	return strings.Join(parts, "\n")
}

func buildPrompt(question, contextText string) []llm.Message {
	user := fmt.Sprintf(`Context:
%s

Question: %s

Please answer the question based on the pricing information provided above.`, contextText, question)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user},
	}
}

// fallbackAnswer returns the retrieved context directly when no LLM is
// available, clearly labelled as such.
func fallbackAnswer(contextText string) string {
	return fmt.Sprintf(`[Fallback Mode - LLM not available]

Based on the knowledge base, here's the relevant pricing information:

%s

Note: For more intelligent responses, configure an API key (OPENAI_API_KEY).`, contextText)
}
