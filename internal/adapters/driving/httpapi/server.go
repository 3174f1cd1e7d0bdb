// Package httpapi exposes the assistant over HTTP.
//
// Endpoints:
//
//	POST /query          - answer a question within a session
//	POST /clear-history  - clear a session's conversation history
//	GET  /health         - liveness and readiness
//	GET  /               - service banner
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lenden-labs/lenden/internal/core/domain"
	"github.com/lenden-labs/lenden/internal/core/ports/driving"
	"github.com/lenden-labs/lenden/internal/logger"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 150 * time.Second // must exceed the generation timeout
	DefaultShutdownTimeout = 10 * time.Second

	maxRequestBody = 1 << 20 // 1 MiB
)

// Server serves the assistant HTTP API.
type Server struct {
	assistant driving.AssistantService
	httpSrv   *http.Server
	ready     bool
}

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address (default ":8000").
	Addr string

	// Ready reports whether the assistant is fully initialised. When
	// false the health endpoint returns 503.
	Ready bool
}

// NewServer creates the HTTP server around an assistant service.
func NewServer(assistant driving.AssistantService, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}

	s := &Server{
		assistant: assistant,
		ready:     cfg.Ready,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /clear-history", s.handleClearHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      logRequests(mux),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	return s
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP server listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// Handler returns the server's HTTP handler. Useful for testing.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// queryRequest is the POST /query request body.
type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// queryResponse is the POST /query response body.
type queryResponse struct {
	Answer      string   `json:"answer"`
	ContextUsed []string `json:"context_used"`
	Sources     []string `json:"sources"`
	SessionID   string   `json:"session_id"`
	Degraded    bool     `json:"degraded"`
}

// clearRequest is the POST /clear-history request body.
type clearRequest struct {
	SessionID string `json:"session_id"`
}

// errorResponse is the body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.Question, req.SessionID)
	if err != nil {
		writeAskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:      answer.Text,
		ContextUsed: emptyIfNil(answer.ContextUsed),
		Sources:     emptyIfNil(answer.Sources),
		SessionID:   answer.SessionID,
		Degraded:    answer.Degraded,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.assistant.ClearHistory(r.Context(), req.SessionID); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": fmt.Sprintf("history cleared for session %s", req.SessionID),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initialising"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "lenden",
		"message": "Contextual retrieval and conversation engine. POST /query to ask a question.",
	})
}

// writeAskError maps orchestration errors onto HTTP statuses.
func writeAskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrGenerationTimeout):
		writeError(w, http.StatusGatewayTimeout, "answer generation timed out")
	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrGenerationUnavailable):
		writeError(w, http.StatusBadGateway, "answer generation failed")
	default:
		logger.Warn("query: unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// logRequests logs method, path, status and duration for every request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
