package behavior

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/behaviortrace/handler"
	"github.com/dmitrymomot/behaviortrace/pkg/clientip"
	"github.com/dmitrymomot/behaviortrace/pkg/binder"
	"github.com/dmitrymomot/behaviortrace/pkg/environment"
	"github.com/dmitrymomot/behaviortrace/pkg/httpserver"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/ratelimit"
	"github.com/dmitrymomot/behaviortrace/pkg/telemetry"
)

type routerConfig struct {
	log            *slog.Logger
	env            environment.Environment
	collectLimiter ratelimit.Limiter
	queryLimiter   ratelimit.Limiter
	keyFunc        ratelimit.KeyFunc
	checks         []httpserver.Check
}

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(c *routerConfig) { c.log = logger.OrNoop(l) }
}

// WithEnvironment sets the environment reported by the root health check.
func WithEnvironment(env environment.Environment) RouterOption {
	return func(c *routerConfig) { c.env = env }
}

// WithRateLimits limits the collect and query route groups separately,
// keyed by keyFunc. A nil limiter leaves its group unlimited.
func WithRateLimits(collect, query ratelimit.Limiter, keyFunc ratelimit.KeyFunc) RouterOption {
	return func(c *routerConfig) {
		c.collectLimiter = collect
		c.queryLimiter = query
		if keyFunc != nil {
			c.keyFunc = keyFunc
		}
	}
}

// WithReadinessChecks adds dependencies probed by /healthz besides the store.
func WithReadinessChecks(checks ...httpserver.Check) RouterOption {
	return func(c *routerConfig) { c.checks = append(c.checks, checks...) }
}

// NewRouter mounts the API under /api with health endpoints at / and
// /healthz.
func NewRouter(svc *Service, opts ...RouterOption) chi.Router {
	cfg := &routerConfig{
		log:     logger.Noop(),
		env:     environment.Development,
		keyFunc: clientip.KeyFunc,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h := NewHandlers(svc)
	errorHandler := handler.NewErrorHandler(cfg.log)
	checks := append([]httpserver.Check{{Name: "store", Fn: svc.Ping}}, cfg.checks...)

	r := chi.NewRouter()
	r.Get("/", rootHealth(cfg.env))
	r.Get("/healthz", httpserver.HealthCheckHandler(cfg.log, checks...))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit(cfg.collectLimiter, cfg))
			r.Post("/collect-behavior", handler.Wrap(h.Collect,
				handler.WithBinders[telemetry.Batch](binder.JSON(binder.WithMediaTypes("text/plain"))),
				handler.WithErrorHandler[telemetry.Batch](errorHandler),
			))
		})

		r.Group(func(r chi.Router) {
			r.Use(limit(cfg.queryLimiter, cfg))
			r.Get("/behavior-data", handler.Wrap(h.List,
				handler.WithBinders[listRequest](binder.Query()),
				handler.WithErrorHandler[listRequest](errorHandler),
			))
			r.Get("/behavior-data/{id}", handler.Wrap(h.Get,
				handler.WithBinders[getRequest](binder.Path(chi.URLParam)),
				handler.WithErrorHandler[getRequest](errorHandler),
			))
			r.Get("/sessions", handler.Wrap(h.Sessions,
				handler.WithBinders[pageRequest](binder.Query()),
				handler.WithErrorHandler[pageRequest](errorHandler),
			))
			r.Get("/stats", handler.Wrap(h.Stats,
				handler.WithErrorHandler[struct{}](errorHandler),
			))
		})
	})

	return r
}

func limit(l ratelimit.Limiter, cfg *routerConfig) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(l, cfg.keyFunc,
		ratelimit.WithLogger(cfg.log),
		ratelimit.WithLimitHandler(func(w http.ResponseWriter, r *http.Request, _ ratelimit.Result) {
			_ = handler.JSON(nil,
				handler.WithStatus(http.StatusTooManyRequests),
				handler.WithMessage("Too many requests, please try again later"),
			).Render(w, r)
		}),
	)
}

type rootHealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Environment string `json:"environment"`
}

func rootHealth(env environment.Environment) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(rootHealthResponse{
			Success:     true,
			Message:     "Behavior tracking API is running",
			Environment: env.String(),
		})
	}
}
