package httpx

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ComponentCheck reports the health of a single dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "not_configured"
	Message string `json:"message,omitempty"`
}

// HealthStatus is the GET /healthz response body.
type HealthStatus struct {
	Status string                    `json:"status"` // "healthy" or "unhealthy"
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// HealthChecker reports the daemon's liveness plus its storage and cache
// dependencies. Either dependency may be nil, in which case it reports
// not_configured rather than failing the overall status.
type HealthChecker struct {
	db        *sql.DB
	redis     *redis.Client
	startedAt time.Time
}

// NewHealthChecker builds a HealthChecker. db and redisClient may be nil.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, startedAt: time.Now()}
}

// HandleHealth serves GET /healthz.
func (h *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"database": h.checkDB(r.Context()),
		"redis":    h.checkRedis(r.Context()),
	}

	status := "healthy"
	for _, c := range checks {
		if c.Status == "down" {
			status = "unhealthy"
			break
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status: status,
		Uptime: time.Since(h.startedAt).String(),
		Checks: checks,
	})
}

func (h *HealthChecker) checkDB(ctx context.Context) ComponentCheck {
	if h.db == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	if err := h.db.PingContext(ctx); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up"}
}

func (h *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if h.redis == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up"}
}
