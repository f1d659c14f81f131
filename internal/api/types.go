package api

import (
	"github.com/modelcost/modelcost/internal/architect"
	"github.com/modelcost/modelcost/internal/knowledge"
)

// OracleRequest asks the oracle a pricing question.
type OracleRequest struct {
	Question string `json:"question"`
	NResults int    `json:"n_results"`
}

// OracleResponse carries the oracle's answer.
type OracleResponse struct {
	Status      string `json:"status"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	ContextUsed int    `json:"context_used,omitempty"`
}

// ArchitectRequest asks for a cost optimisation analysis.
type ArchitectRequest struct {
	UseCaseDescription  string `json:"use_case_description"`
	MonthlyInputTokens  int64  `json:"monthly_input_tokens"`
	MonthlyOutputTokens *int64 `json:"monthly_output_tokens"`
	CurrentModel        string `json:"current_model"`
}

// QueryResult is one semantic search hit, projected for API consumers.
type QueryResult struct {
	Provider                string  `json:"provider"`
	ModelName               string  `json:"model_name"`
	InputCost               float64 `json:"input_cost"`
	OutputCost              float64 `json:"output_cost"`
	ContextWindow           *int    `json:"context_window"`
	SupportsFunctionCalling bool    `json:"supports_function_calling"`
}

// QueryResponse is the result set of a semantic search.
type QueryResponse struct {
	Status       string        `json:"status"`
	Query        string        `json:"query"`
	Results      []QueryResult `json:"results"`
	TotalResults int           `json:"total_results"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status              string `json:"status"`
	Version             string `json:"version"`
	KnowledgeBaseStatus string `json:"knowledge_base_status"`
	LLMAvailable        bool   `json:"llm_available"`
}

// ScraperStatusResponse summarises the knowledge base.
type ScraperStatusResponse struct {
	Status      string   `json:"status"`
	TotalModels int      `json:"total_models"`
	Providers   []string `json:"providers"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// ScraperRunResponse reports a manual scraper run.
type ScraperRunResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	EntriesAdded int    `json:"entries_added"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UserResponse describes the authenticated caller.
type UserResponse struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
}

// ProvidersResponse lists known providers.
type ProvidersResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
	Total     int      `json:"total"`
}

// ModelsResponse lists known models with their metadata.
type ModelsResponse struct {
	Status string               `json:"status"`
	Models []knowledge.Metadata `json:"models"`
	Total  int                  `json:"total"`
}

// StatsResponse wraps knowledge store statistics.
type StatsResponse struct {
	Status string `json:"status"`
	knowledge.Stats
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ArchitectResponse aliases the architect report; its JSON shape is
// defined there.
type ArchitectResponse = architect.Report
