package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fiscaltask/internal/platform/middleware"
	"fiscaltask/pkg/platform/httputil"
)

const requestTimeout = 60 * time.Second

// HealthCheck reports whether the server's dependencies are reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Handler   *Handler
	Validator middleware.ActorValidator
	Gatherer  prometheus.Gatherer
	Health    HealthCheck
	Logger    *slog.Logger
}

// NewRouter serves /healthz and /metrics without authentication and every
// engine route behind a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestContext)

	r.Get("/healthz", healthz(cfg.Health, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		r.Use(middleware.RequireBearer(cfg.Validator, cfg.Logger))
		cfg.Handler.Register(r)
	})
	return r
}

func healthz(check HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
