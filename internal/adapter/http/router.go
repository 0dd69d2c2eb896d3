package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/adapter/http/handler"
	"github.com/iho/tradebook/internal/adapter/http/middleware"
	"github.com/iho/tradebook/internal/infrastructure/auth"
	"github.com/iho/tradebook/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router. Optional parts are nil
// when the feature is disabled.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	ImportHandler      *handler.ImportHandler
	TransactionHandler *handler.TransactionHandler
	VerifyHandler      *handler.VerifyHandler
	HealthHandler      *handler.HealthHandler

	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
	JWTManager         *auth.JWTManager
	IdempotencyStore   middleware.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader, chimiddleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Idempotency-Replay"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	guard := func(role auth.Role) func(http.Handler) http.Handler {
		if cfg.JWTManager == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RequireRole(role)
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Limit
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			var recorder middleware.AuthFailureRecorder
			if cfg.Metrics != nil {
				recorder = cfg.Metrics
			}
			r.Use(middleware.AuthMiddleware(cfg.JWTManager, recorder))
		}

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		viewer := guard(auth.RoleViewer)
		operator := guard(auth.RoleOperator)
		admin := guard(auth.RoleAdmin)

		r.Route("/accounts", func(r chi.Router) {
			r.With(operator).Post("/", cfg.AccountHandler.Create)
			r.With(viewer).Get("/", cfg.AccountHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.With(viewer).Get("/", cfg.AccountHandler.Get)
				r.With(operator).Patch("/", cfg.AccountHandler.Update)
				r.With(admin).Delete("/", cfg.AccountHandler.Delete)

				r.With(operator, limit).Post("/imports", cfg.ImportHandler.Upload)
				r.With(viewer).Get("/imports", cfg.ImportHandler.List)

				r.With(viewer).Get("/transactions", cfg.TransactionHandler.List)
				r.With(operator).Post("/transactions", cfg.TransactionHandler.Record)
				r.With(admin).Delete("/transactions", cfg.TransactionHandler.Reset)
				r.With(viewer).Get("/transactions/export", cfg.TransactionHandler.Export)

				r.With(viewer).Get("/verify", cfg.VerifyHandler.Verify)
			})
		})

		r.Route("/transactions/{id}", func(r chi.Router) {
			r.With(viewer).Get("/", cfg.TransactionHandler.Get)
			r.With(operator).Post("/archive", cfg.TransactionHandler.Archive)
		})
	})

	return r
}
