package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/behaviortrace/pkg/clientip"
	"github.com/dmitrymomot/behaviortrace/pkg/config"
	"github.com/dmitrymomot/behaviortrace/pkg/environment"
	"github.com/dmitrymomot/behaviortrace/pkg/fingerprint"
	"github.com/dmitrymomot/behaviortrace/pkg/httpserver"
	"github.com/dmitrymomot/behaviortrace/pkg/logger"
	"github.com/dmitrymomot/behaviortrace/pkg/mongo"
	"github.com/dmitrymomot/behaviortrace/pkg/pg"
	"github.com/dmitrymomot/behaviortrace/pkg/ratelimit"
	"github.com/dmitrymomot/behaviortrace/pkg/redis"
	"github.com/dmitrymomot/behaviortrace/pkg/requestid"
	"github.com/dmitrymomot/behaviortrace/svc/behavior"
)

const sweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion and query API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load[appConfig]()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// cleanups runs registered release functions in reverse order.
type cleanups []func(context.Context)

func (c *cleanups) add(fn func(context.Context)) { *c = append(*c, fn) }

func (c cleanups) run(ctx context.Context) {
	for _, fn := range slices.Backward(c) {
		fn(ctx)
	}
}

func serve(ctx context.Context, cfg appConfig) error {
	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var release cleanups
	defer func() { release.run(context.WithoutCancel(ctx)) }()

	store, checks, err := openStore(ctx, cfg.StorageDriver, log, &release)
	if err != nil {
		return err
	}
	lim, err := openLimits(ctx, cfg, &release)
	if err != nil {
		return err
	}

	svc := behavior.NewService(store, behavior.WithLogger(log))
	h := newHandler(cfg, env, log, svc, lim, append(checks, lim.checks...)...)

	log.Info("starting behaviortrace",
		slog.String("storage", cfg.StorageDriver),
		slog.String("rate_limit", cfg.RateLimitBackend),
	)
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, h)
}

// openStore connects the configured storage driver. Connection settings are
// loaded only for the selected driver.
func openStore(ctx context.Context, driver string, log *slog.Logger, release *cleanups) (behavior.Store, []httpserver.Check, error) {
	switch strings.ToLower(driver) {
	case "", driverMemory:
		log.Warn("using in-memory storage, records are lost on restart")
		return behavior.NewMemoryStore(), nil, nil

	case driverMongo:
		mcfg, err := config.Load[mongo.Config]()
		if err != nil {
			return nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mcfg)
		if err != nil {
			return nil, nil, err
		}
		release.add(func(ctx context.Context) { _ = db.Client().Disconnect(ctx) })

		store := behavior.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case driverPostgres:
		pcfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pcfg)
		if err != nil {
			return nil, nil, err
		}
		release.add(func(context.Context) { pool.Close() })

		if err := pg.Migrate(ctx, pool, behavior.Migrations, behavior.MigrationsDir, pcfg, log); err != nil {
			return nil, nil, err
		}
		return behavior.NewPostgresStore(pool), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, driver)
}

type limits struct {
	collect ratelimit.Limiter
	query   ratelimit.Limiter
	checks  []httpserver.Check
}

func openLimits(ctx context.Context, cfg appConfig, release *cleanups) (limits, error) {
	var store ratelimit.Store
	var out limits

	switch strings.ToLower(cfg.RateLimitBackend) {
	case backendOff:
		return out, nil

	case "", backendMemory:
		mem := ratelimit.NewMemoryStore(nil)
		mem.StartSweeper(ctx, sweepInterval)
		store = mem

	case backendRedis:
		rcfg, err := config.Load[redis.Config]()
		if err != nil {
			return out, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return out, err
		}
		release.add(func(context.Context) { _ = client.Close() })
		store = ratelimit.NewRedisStore(client)
		out.checks = append(out.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})

	default:
		return out, fmt.Errorf("%w: %q", ErrUnknownRateLimitBackend, cfg.RateLimitBackend)
	}

	collect, err := ratelimit.NewFixedWindow(store, cfg.CollectLimit, ratelimit.WithPrefix("ratelimit:collect"))
	if err != nil {
		return out, err
	}
	query, err := ratelimit.NewFixedWindow(store, cfg.QueryLimit, ratelimit.WithPrefix("ratelimit:query"))
	if err != nil {
		return out, err
	}
	out.collect, out.query = collect, query
	return out, nil
}

// newHandler assembles the middleware chain around the behavior router.
func newHandler(cfg appConfig, env environment.Environment, log *slog.Logger, svc *behavior.Service, l limits, checks ...httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		environment.Middleware(env),
		clientip.Middleware,
		fingerprint.Middleware,
		requestLogger(log),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", requestid.Header},
			ExposedHeaders: []string{
				requestid.Header,
				"X-RateLimit-Limit",
				"X-RateLimit-Remaining",
				"X-RateLimit-Reset",
				"Retry-After",
			},
			MaxAge: 300,
		}),
	)

	r.Mount("/", behavior.NewRouter(svc,
		behavior.WithRouterLogger(log),
		behavior.WithEnvironment(env),
		behavior.WithRateLimits(l.collect, l.query, clientip.KeyFunc),
		behavior.WithReadinessChecks(checks...),
	))

	return gzhttp.GzipHandler(r)
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.DebugContext(r.Context(), "http request",
				logger.Component("http"),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
