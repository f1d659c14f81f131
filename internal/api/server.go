// Package api exposes the oracle, architect and scraper over HTTP with
// JWT authentication and per-IP rate limiting.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/modelcost/modelcost/internal/architect"
	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/oracle"
	"github.com/modelcost/modelcost/internal/scraper"
	"github.com/modelcost/modelcost/internal/users"
	"github.com/modelcost/modelcost/internal/worker"
)

// Config carries everything the server needs besides its collaborators.
type Config struct {
	Addr          string
	Version       string
	JWTSecret     string
	TokenTTL      time.Duration
	RatePerMinute int
}

// Server is the HTTP front end.
type Server struct {
	store     *knowledge.Store
	oracle    *oracle.Oracle
	architect *architect.Architect
	scraper   *scraper.Scraper
	users     *users.Store
	tokens    *TokenIssuer
	pool      *worker.Pool
	limiter   *ipLimiter
	logger    *logrus.Logger
	version   string

	httpServer *http.Server
}

// NewServer wires the service components into an HTTP server.
func NewServer(cfg Config, store *knowledge.Store, o *oracle.Oracle, a *architect.Architect, sc *scraper.Scraper, u *users.Store, pool *worker.Pool, logger *logrus.Logger) *Server {
	s := &Server{
		store:     store,
		oracle:    o,
		architect: a,
		scraper:   sc,
		users:     u,
		tokens:    NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		pool:      pool,
		limiter:   newIPLimiter(cfg.RatePerMinute),
		logger:    logger,
		version:   cfg.Version,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.rateLimit(s.logRequests(s.routes())),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("POST /api/oracle/ask", s.optionalAuth(s.handleOracleAsk))
	mux.HandleFunc("POST /api/architect/optimize", s.optionalAuth(s.handleOptimize))
	mux.HandleFunc("GET /api/scraper/status", s.handleScraperStatus)
	mux.HandleFunc("POST /api/scraper/run", s.requireAuth(s.handleScraperRun))
	mux.HandleFunc("POST /api/query", s.optionalAuth(s.handleQuery))
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// logRequests tags every request with an id and logs its outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		s.logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": lw.status,
			"client_ip":   clientIP(r),
			"duration":    time.Since(start).String(),
		}).Info("Request completed")
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Start serves until the context is cancelled, then shuts down
// gracefully with a bounded drain period.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	}
}

// Handler exposes the fully assembled handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}
