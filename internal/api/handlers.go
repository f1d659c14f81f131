package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/architect"
	"github.com/modelcost/modelcost/internal/oracle"
	"github.com/modelcost/modelcost/internal/users"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Status: "error", Message: "Endpoint not found"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":        "modelcost API",
		"version":     s.version,
		"description": "AI model pricing intelligence and cost optimisation",
		"endpoints": map[string]string{
			"oracle":    "/api/oracle/ask",
			"architect": "/api/architect/optimize",
			"scraper":   "/api/scraper/status",
			"query":     "/api/query",
			"auth":      "/api/auth/login",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()

	kbStatus := "empty"
	if stats.TotalModels > 0 {
		kbStatus = "operational"
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:              "healthy",
		Version:             s.version,
		KnowledgeBaseStatus: kbStatus,
		LLMAvailable:        s.oracle.Status().LLMAvailable,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := s.users.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			s.logger.WithField("username", req.Username).Warn("Login attempt failed")
			s.writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		s.logger.WithError(err).Error("Login error")
		s.writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.WithError(err).Error("Failed to issue token")
		s.writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	s.logger.WithField("username", user.Username).Info("User logged in")

	s.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, UserResponse{
		Username:      usernameFrom(r.Context()),
		Authenticated: true,
	})
}

func (s *Server) handleOracleAsk(w http.ResponseWriter, r *http.Request) {
	var req OracleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"question": truncate(req.Question, 100),
		"user":     userOrAnonymous(r),
	}).Info("Oracle query")

	var answer string
	err := s.pool.Run(r.Context(), func() error {
		var askErr error
		answer, askErr = s.oracle.Ask(r.Context(), req.Question, req.NResults)
		return askErr
	})
	if err != nil {
		if errors.Is(err, oracle.ErrEmptyQuestion) {
			s.writeError(w, http.StatusBadRequest, "Question cannot be empty")
			return
		}
		s.logger.WithError(err).Error("Oracle error")
		s.writeError(w, http.StatusInternalServerError, "Oracle error: "+err.Error())
		return
	}

	contextUsed := req.NResults
	if contextUsed <= 0 {
		contextUsed = oracle.DefaultResults
	}

	s.writeJSON(w, http.StatusOK, OracleResponse{
		Status:      "success",
		Question:    req.Question,
		Answer:      answer,
		ContextUsed: contextUsed,
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req ArchitectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.UseCaseDescription) == "" {
		s.writeError(w, http.StatusBadRequest, "Use case description is required")
		return
	}
	if req.MonthlyInputTokens <= 0 {
		s.writeError(w, http.StatusBadRequest, "Monthly input tokens must be positive")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"use_case": truncate(req.UseCaseDescription, 100),
		"tokens":   req.MonthlyInputTokens,
		"user":     userOrAnonymous(r),
	}).Info("Architect optimization request")

	var report *ArchitectResponse
	err := s.pool.Run(r.Context(), func() error {
		var optErr error
		report, optErr = s.architect.Optimize(r.Context(), req.UseCaseDescription, req.MonthlyInputTokens, req.MonthlyOutputTokens, req.CurrentModel)
		return optErr
	})
	if err != nil {
		if errors.Is(err, architect.ErrNoCandidates) {
			s.writeError(w, http.StatusBadRequest, "No suitable models found. Run the scraper to populate the knowledge base.")
			return
		}
		s.logger.WithError(err).Error("Architect error")
		s.writeError(w, http.StatusInternalServerError, "Architect error: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()

	s.writeJSON(w, http.StatusOK, ScraperStatusResponse{
		Status:      "operational",
		TotalModels: stats.TotalModels,
		Providers:   stats.Providers,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleScraperRun(w http.ResponseWriter, r *http.Request) {
	s.logger.WithField("user", usernameFrom(r.Context())).Info("Scraper triggered")

	var count int
	err := s.pool.Run(r.Context(), func() error {
		count = s.scraper.Run(r.Context())
		return nil
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Scraper error: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ScraperRunResponse{
		Status:       "success",
		Message:      "Scraper completed successfully",
		EntriesAdded: count,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		s.writeError(w, http.StatusBadRequest, "Query cannot be empty")
		return
	}

	nResults := 5
	if raw := r.URL.Query().Get("n_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "n_results must be a positive integer")
			return
		}
		nResults = n
	}

	results, err := s.store.Query(r.Context(), query, nResults, "")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Query error: "+err.Error())
		return
	}

	formatted := make([]QueryResult, 0, len(results))
	for _, res := range results {
		formatted = append(formatted, QueryResult{
			Provider:                res.Metadata.Provider,
			ModelName:               res.Metadata.ModelName,
			InputCost:               res.Metadata.InputCost,
			OutputCost:              res.Metadata.OutputCost,
			ContextWindow:           res.Metadata.ContextWindow,
			SupportsFunctionCalling: res.Metadata.SupportsFunctionCalling,
		})
	}

	s.writeJSON(w, http.StatusOK, QueryResponse{
		Status:       "success",
		Query:        query,
		Results:      formatted,
		TotalResults: len(formatted),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	providers := s.store.Providers()
	s.writeJSON(w, http.StatusOK, ProvidersResponse{
		Status:    "success",
		Providers: providers,
		Total:     len(providers),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := s.store.Models(r.URL.Query().Get("provider"))
	s.writeJSON(w, http.StatusOK, ModelsResponse{
		Status: "success",
		Models: models,
		Total:  len(models),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Status: "success",
		Stats:  s.store.Stats(),
	})
}

func userOrAnonymous(r *http.Request) string {
	if u := usernameFrom(r.Context()); u != "" {
		return u
	}
	return "anonymous"
}

// truncate shortens s to at most n runes without splitting a multi-byte
// character, keeping log fields valid UTF-8.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
