package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

// Check is a named readiness dependency.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const checkTimeout = 3 * time.Second

// HealthCheckHandler serves liveness when no checks are given and readiness
// otherwise. Every check runs with a short timeout; any failure yields 503.
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	log = logger.OrNoop(log)
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "alive"}
		status := http.StatusOK

		if len(checks) > 0 {
			resp.Status = "ready"
			resp.Checks = make(map[string]string, len(checks))

			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			for _, c := range checks {
				if err := c.Fn(ctx); err != nil {
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component("httpserver"),
						slog.String("check", c.Name),
						logger.Error(err),
					)
					resp.Checks[c.Name] = "fail"
					resp.Status = "not_ready"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
