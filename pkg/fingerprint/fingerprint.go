// Package fingerprint derives a stable, non-reversible identifier for the
// client behind an HTTP request from its headers and network address.
package fingerprint

import (
	"context"
	"encoding/hex"
	"net/http"
	"slices"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/dmitrymomot/behaviortrace/pkg/clientip"
)

// stableHeaders are headers whose presence is characteristic of a client
// implementation. Only their names, never their values, enter the hash.
var stableHeaders = []string{
	"accept", "accept-encoding", "accept-language", "cache-control", "connection",
	"sec-ch-ua", "sec-ch-ua-mobile", "sec-ch-ua-platform", "sec-fetch-dest",
	"sec-fetch-mode", "sec-fetch-site", "upgrade-insecure-requests", "user-agent",
}

// Generate returns a 32 character hex digest over the user agent, accept
// headers, client IP and the set of stable headers present.
func Generate(r *http.Request) string {
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
		r.Header.Get("Accept"),
		clientip.KeyFunc(r),
		headerSet(r),
	}

	h := blake3.New()
	for _, c := range components {
		_, _ = h.WriteString(c)
		_, _ = h.WriteString("|")
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func headerSet(r *http.Request) string {
	present := make([]string, 0, len(stableHeaders))
	for name := range r.Header {
		lower := strings.ToLower(name)
		if slices.Contains(stableHeaders, lower) {
			present = append(present, lower)
		}
	}
	slices.Sort(present)
	return strings.Join(present, ",")
}

type contextKey struct{}

// WithContext stores fp in ctx.
func WithContext(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, contextKey{}, fp)
}

// FromContext returns the fingerprint stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	fp, _ := ctx.Value(contextKey{}).(string)
	return fp
}

// Middleware computes the fingerprint once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), Generate(r))))
	})
}
