// Package http exposes the loader's operational endpoints and a small
// read-only API over the stored catalog and water-level series.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glslr/levels-etl/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LevelStore is the slice of the persistence layer the API reads from.
type LevelStore interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
	ReadSeries(ctx context.Context, stationID string, start, end *time.Time) (*domain.Series, error)
}

// Server exposes health, readiness, metrics, and level-query HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      LevelStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /stations, and /stations/{id}/levels routes.
func NewServer(addr string, ready ReadinessChecker, store LevelStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /stations", s.handleStations)
	mux.HandleFunc("GET /stations/{id}/levels", s.handleLevels)

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

type stationResponse struct {
	ID              string   `json:"id"`
	Provider        string   `json:"provider"`
	Name            string   `json:"name"`
	DatumCorrection *float64 `json:"cd,omitempty"`
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.LoadCatalog(r.Context())
	if err != nil {
		s.logger.Error("load catalog", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "catalog unavailable"})
		return
	}

	out := make([]stationResponse, 0, cat.Len())
	for _, stn := range cat.Stations {
		out = append(out, stationResponse{
			ID:              stn.ID,
			Provider:        string(stn.Provider),
			Name:            stn.Name,
			DatumCorrection: stn.DatumCorrection,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// levelResponse carries one stored observation. A rejected reading serialises
// with a null value.
type levelResponse struct {
	Time  time.Time `json:"ts"`
	Value *float64  `json:"value"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")

	start, err := parseBound(r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be RFC 3339"})
		return
	}
	end, err := parseBound(r.URL.Query().Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be RFC 3339"})
		return
	}

	series, err := s.store.ReadSeries(r.Context(), stationID, start, end)
	if err != nil {
		s.logger.Error("read series", "station", stationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "series unavailable"})
		return
	}

	obs := series.Observations()
	out := make([]levelResponse, 0, len(obs))
	for _, o := range obs {
		lr := levelResponse{Time: o.Time}
		if !math.IsNaN(o.Value) {
			v := o.Value
			lr.Value = &v
		}
		out = append(out, lr)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseBound turns an optional RFC 3339 query parameter into a time bound.
func parseBound(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
