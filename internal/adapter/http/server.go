package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ForecastProvider serves forecasts for ad-hoc queries.
type ForecastProvider interface {
	ForecastRange(ctx context.Context, start time.Time, days int) ([]domain.Forecast, error)
}

// Server exposes health, readiness, metrics, and forecast HTTP endpoints.
type Server struct {
	httpServer *http.Server
	forecasts  ForecastProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /forecast routes.
func NewServer(addr string, ready ReadinessChecker, forecasts ForecastProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecasts: forecasts,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /forecast", s.handleForecast)
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

// handleForecast serves GET /forecast?start=YYYY-MM-DD&days=N. Start defaults
// to tomorrow, days to 14.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.forecasts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "forecasting not ready"})
		return
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.ParseInLocation(domain.DateLayout, v, time.UTC)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
			return
		}
		start = parsed
	}

	days := 14
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 90 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be an integer in [1, 90]"})
			return
		}
		days = n
	}

	forecasts, err := s.forecasts.ForecastRange(r.Context(), start, days)
	if err != nil {
		s.logger.Error("forecast request failed", "start", domain.DateKey(start), "days", days, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forecasts": forecasts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
