package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	postgres Pinger
	redis    Pinger
}

// NewHealthHandler creates a new HealthHandler. redisClient may be nil when
// Redis is disabled.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if pool != nil {
		h.postgres = pool
	}
	if redisClient != nil {
		h.redis = PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	return h
}

// NewHealthHandlerWithPingers builds a handler from arbitrary checks. Nil checks are skipped.
func NewHealthHandlerWithPingers(postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const readinessTimeout = 3 * time.Second

// Readiness checks every configured backend and reports each one. Any
// failure turns the whole response into a 503; error details go to the log.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	body := map[string]string{"status": "ready"}
	code := http.StatusOK
	check := func(name string, p Pinger) {
		if p == nil {
			body[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("component", name).Msg("readiness check failed")
			body[name] = "unavailable"
			body["status"] = "not_ready"
			code = http.StatusServiceUnavailable
			return
		}
		body[name] = "ok"
	}
	check("postgres", h.postgres)
	check("redis", h.redis)

	writeJSON(w, code, body)
}
