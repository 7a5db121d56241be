// Package webapi exposes analysis results over HTTP. The server holds the
// most recent run in memory and serves read-only views of it; a refresh
// endpoint re-runs the engine against the same registry export so a
// long-lived server can track an evolving catalog.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillscope/pkg/engine"
	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/presenter"
	"github.com/jingkaihe/skillscope/pkg/report"
)

// Server serves the latest analysis run over HTTP.
type Server struct {
	router *mux.Router
	engine *engine.Engine
	config *ServerConfig
	server *http.Server

	mu     sync.RWMutex
	result *engine.RunResult
}

// ServerConfig holds the configuration for the web server
type ServerConfig struct {
	Host   string
	Port   int
	Source string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Source == "" {
		return errors.New("registry source cannot be empty")
	}
	return nil
}

// NewServer creates a server and performs the initial analysis run so the
// first request never races the first load.
func NewServer(ctx context.Context, eng *engine.Engine, config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		engine: eng,
		config: config,
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, errors.Wrap(err, "initial analysis run failed")
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/report", s.handleGetReport).Methods("GET")
	api.HandleFunc("/report/text", s.handleGetReportText).Methods("GET")
	api.HandleFunc("/orphans", s.handleGetOrphans).Methods("GET")
	api.HandleFunc("/findings", s.handleGetFindings).Methods("GET")
	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST")

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Refresh re-runs the analysis and swaps the served result atomically.
func (s *Server) Refresh(ctx context.Context) error {
	result, err := s.engine.Run(ctx, s.config.Source)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
	return nil
}

func (s *Server) current() *engine.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    duration,
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// API Handlers

// handleGetReport handles GET /api/report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	result := s.current()
	if result == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "no analysis run available", nil)
		return
	}

	s.writeJSONResponse(w, result.Report)
}

// handleGetReportText handles GET /api/report/text
func (s *Server) handleGetReportText(w http.ResponseWriter, r *http.Request) {
	result := s.current()
	if result == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "no analysis run available", nil)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.RenderText(w, result.Report); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to render text report")
	}
}

// handleGetOrphans handles GET /api/orphans
func (s *Server) handleGetOrphans(w http.ResponseWriter, r *http.Request) {
	result := s.current()
	if result == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "no analysis run available", nil)
		return
	}

	s.writeJSONResponse(w, map[string]any{
		"orphans":            result.Report.Orphans,
		"proposed_skills":    result.Report.ProposedSkills,
		"wiring_suggestions": result.Report.Wiring,
	})
}

// handleGetFindings handles GET /api/findings. An optional ?code= query
// narrows the list to one finding code.
func (s *Server) handleGetFindings(w http.ResponseWriter, r *http.Request) {
	result := s.current()
	if result == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "no analysis run available", nil)
		return
	}

	items := result.Findings.Items()
	if code := r.URL.Query().Get("code"); code != "" {
		items = result.Findings.ByCode(findings.Code(code))
	}
	if items == nil {
		items = []findings.Finding{}
	}

	s.writeJSONResponse(w, map[string]any{
		"findings": items,
		"count":    len(items),
	})
}

// handleRefresh handles POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(r.Context()); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "analysis run failed", err)
		return
	}

	result := s.current()
	s.writeJSONResponse(w, map[string]any{
		"run_id":       result.Report.Meta.RunID,
		"generated_at": result.Report.Meta.GeneratedAt,
	})
}

// handleHealthz handles GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, map[string]any{"status": "ok"})
}

// Utility methods

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start starts the web server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Serving analysis API on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("Web server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop stops the web server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
