package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RunLister returns recent run audit records, newest first.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.RunAudit, error)
}

// Server exposes health, readiness, metrics, and run-audit HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runs       RunLister
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /runs routes.
func NewServer(addr string, ready ReadinessChecker, runs RunLister, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runs:   runs,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type runResponse struct {
	RunID      string     `json:"run_id"`
	DataSource string     `json:"data_source"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Processed  int        `json:"records_processed"`
	Inserted   int        `json:"records_inserted"`
	Skipped    int        `json:"records_skipped"`
	Failed     int        `json:"records_failed"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runs, err := s.runs.RecentRuns(ctx, 50)
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp := runResponse{
			RunID:      run.ID,
			DataSource: string(run.Source),
			StartedAt:  run.StartedAt,
			Processed:  run.Processed,
			Inserted:   run.Inserted,
			Skipped:    run.Skipped,
			Failed:     run.Failed,
			Status:     string(run.Status),
			Error:      run.Error,
		}
		if !run.FinishedAt.IsZero() {
			finished := run.FinishedAt
			resp.FinishedAt = &finished
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
