package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Portfolio/internal/runner"
	"github.com/MikeSquared-Agency/Portfolio/internal/store"
)

type RouterConfig struct {
	AdminToken         string
	RateLimitPerMinute int
}

func NewRouter(run *runner.Runner, s store.Store, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))
	}

	sweeps := NewSweepsHandler(run, s, logger)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sweeps", sweeps.Create)
		r.Get("/sweeps", sweeps.List)
		r.Get("/sweeps/{id}", sweeps.Get)
		r.Get("/sweeps/{id}/table", sweeps.Table)

		r.Post("/solve", sweeps.Solve)
		r.Post("/budgets", sweeps.Budgets)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminToken))
			r.Get("/stats", admin.Stats)
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
