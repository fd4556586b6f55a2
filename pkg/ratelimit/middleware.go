package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

// LimitHandler writes the response for a rejected request.
type LimitHandler func(w http.ResponseWriter, r *http.Request, res Result)

type middlewareOptions struct {
	onLimit LimitHandler
	log     *slog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareOptions)

// WithLimitHandler replaces the default plain-text 429 response.
func WithLimitHandler(h LimitHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if h != nil {
			o.onLimit = h
		}
	}
}

// WithLogger logs store failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) { o.log = logger.OrNoop(l) }
}

// Middleware enforces limiter per keyFunc. Requests with an empty key, or
// arriving while the store fails, are let through.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil || keyFunc == nil {
		panic("ratelimit.Middleware: limiter and keyFunc are required")
	}
	o := &middlewareOptions{
		onLimit: func(w http.ResponseWriter, _ *http.Request, _ Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		log: logger.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				o.log.WarnContext(r.Context(), "rate limit check failed, allowing request",
					logger.Component("ratelimit"),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(res.RetryAfter.Seconds())))))
				o.onLimit(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
