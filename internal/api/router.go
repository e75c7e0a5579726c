package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terrasift/terrasift/internal/engine"
	"github.com/terrasift/terrasift/internal/selectivity"
)

// Defaults fill request fields the caller leaves at zero.
type Defaults struct {
	TopN          int
	MinAcceptable int
}

func NewRouter(runs *engine.Runs, stats *selectivity.Stats, det *selectivity.Detector, defaults Defaults, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	evals := NewEvaluationsHandler(runs, defaults)
	sel := NewSelectivityHandler(stats, det)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluations", evals.Create)
		r.Get("/evaluations/{id}", evals.Get)
		r.Delete("/evaluations/{id}", evals.Cancel)
		r.Get("/evaluations/{id}/breakdown/{site_id}", evals.Breakdown)

		r.Post("/selectivity", sel.Estimate)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", sel.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
