package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database, RedisClient, EventBus and the stream sinks all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the set of dependencies to probe in the health endpoint.
// A nil checker is reported as "disabled" and does not degrade the status.
type HealthChecks struct {
	Database      HealthChecker
	Redis         HealthChecker
	Notifications HealthChecker
	Stream        HealthChecker
}

type healthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	Redis         string `json:"redis"`
	Notifications string `json:"notifications"`
	Stream        string `json:"stream"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers and reports degraded status if any of them fail.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		probe := func(c HealthChecker) string {
			if c == nil {
				return "disabled"
			}
			if err := c.Ping(ctx); err != nil {
				resp.Status = "degraded"
				return "unreachable"
			}
			return "ok"
		}
		resp.Database = probe(checks.Database)
		resp.Redis = probe(checks.Redis)
		resp.Notifications = probe(checks.Notifications)
		resp.Stream = probe(checks.Stream)

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
