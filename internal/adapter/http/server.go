package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

// RankingSource exposes the ranking of the most recent completed run.
type RankingSource interface {
	LatestRanking() (domain.Ranking, bool)
}

// Server exposes health, readiness, metrics, and favorites HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /favorites routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, rankings RankingSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /favorites", handleFavorites(rankings))
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

func handleFavorites(rankings RankingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ranking, ok := rankings.LatestRanking()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "no completed run yet",
			})
			return
		}
		if ranking.Ranked == nil {
			ranking.Ranked = []domain.LocationRating{}
		}
		if ranking.Favorites == nil {
			ranking.Favorites = []domain.LocationRating{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, ranking)
	}
}
