package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store down")
}

func (failingLimiter) Reset(context.Context, string) error { return nil }

func byHeader(r *http.Request) string { return r.Header.Get("X-Client") }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func serve(h http.Handler, client string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if client != "" {
		req.Header.Set("X-Client", client)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("sets headers and rejects over limit", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		h := ratelimit.Middleware(lim, byHeader)(okHandler())

		rec := serve(h, "a")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
		assert.Empty(t, rec.Header().Get("Retry-After"))

		rec = serve(h, "a")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("custom limit handler", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		var got ratelimit.Result
		h := ratelimit.Middleware(lim, byHeader, ratelimit.WithLimitHandler(
			func(w http.ResponseWriter, _ *http.Request, res ratelimit.Result) {
				got = res
				w.WriteHeader(http.StatusTeapot)
			},
		))(okHandler())

		serve(h, "a")
		rec := serve(h, "a")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.False(t, got.Allowed)
	})

	t.Run("empty key bypasses limiter", func(t *testing.T) {
		t.Parallel()
		lim, _ := newLimiter(t, 1, time.Minute)
		h := ratelimit.Middleware(lim, byHeader)(okHandler())
		for range 3 {
			rec := serve(h, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("fails open", func(t *testing.T) {
		t.Parallel()
		h := ratelimit.Middleware(failingLimiter{}, byHeader)(okHandler())
		assert.Equal(t, http.StatusOK, serve(h, "a").Code)
	})

	t.Run("panics without limiter", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { ratelimit.Middleware(nil, byHeader) })
	})
}

func TestComposite(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client", "a")

	key := ratelimit.Composite(byHeader, func(*http.Request) string { return "" }, func(*http.Request) string { return "collect" })
	assert.Equal(t, "a:collect", key(req))

	long := ratelimit.Composite(func(*http.Request) string { return strings.Repeat("x", 100) })(req)
	require.Len(t, long, 32)
	assert.Equal(t, long, ratelimit.Composite(func(*http.Request) string { return strings.Repeat("x", 100) })(req), "stable")

	assert.Empty(t, ratelimit.Composite(func(*http.Request) string { return "" })(req))
}
