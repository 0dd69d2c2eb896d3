package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/adapter/broker"
	"github.com/iho/tradebook/internal/adapter/csvfile"
	httpAdapter "github.com/iho/tradebook/internal/adapter/http"
	"github.com/iho/tradebook/internal/adapter/http/handler"
	"github.com/iho/tradebook/internal/adapter/http/middleware"
	"github.com/iho/tradebook/internal/adapter/lock"
	postgresRepo "github.com/iho/tradebook/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/tradebook/internal/adapter/repository/redis"
	"github.com/iho/tradebook/internal/infrastructure/archive"
	"github.com/iho/tradebook/internal/infrastructure/auth"
	"github.com/iho/tradebook/internal/infrastructure/config"
	"github.com/iho/tradebook/internal/infrastructure/eventpublisher"
	"github.com/iho/tradebook/internal/infrastructure/logger"
	"github.com/iho/tradebook/internal/infrastructure/metrics"
	"github.com/iho/tradebook/internal/infrastructure/postgres"
	"github.com/iho/tradebook/internal/infrastructure/redis"
	"github.com/iho/tradebook/internal/infrastructure/scheduler"
	"github.com/iho/tradebook/internal/usecase"
)

// limiterIdle is how long an idle client keeps its upload budget.
const limiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.New(logger.Config{}).Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLife,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return err
	}

	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	importRepo := postgresRepo.NewImportRecordRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(log)
	idGen := postgresRepo.NewULIDGenerator()

	var (
		redisClient      *goredis.Client
		locker           usecase.AccountLocker
		publisher        eventpublisher.Publisher
		idempotencyStore middleware.IdempotencyStore
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.NewClient(connectCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		locker = redisRepo.NewAccountLocker(redisClient, cfg.ImportLockTTL)
		publisher = redisRepo.NewEventPublisher(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	} else {
		log.Warn().Msg("redis disabled: using in-process locks, idempotency keys are not enforced")
		locker = lock.NewMemoryLocker(cfg.ImportLockTTL)
		publisher = eventpublisher.NewLogPublisher(log)
	}

	var archiver usecase.Archiver
	if cfg.ArchiveBucket != "" {
		gcs, err := archive.NewGCSArchiver(ctx, cfg.ArchiveBucket)
		if err != nil {
			return err
		}
		defer gcs.Close()
		archiver = gcs
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("archiving uploads")
	}

	m := metrics.New()

	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)
	importUC := usecase.NewImportUseCase(usecase.ImportUseCaseConfig{
		TxManager:       txManager,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		ImportRepo:      importRepo,
		OutboxRepo:      outboxRepo,
		Providers:       broker.DefaultRegistry(),
		Decoder:         csvfile.Decoder{},
		Locker:          locker,
		Retrier:         retrier,
		IDGen:           idGen,
		Archiver:        archiver,
		Recorder:        m,
		Logger:          log,
	})
	transactionUC := usecase.NewTransactionUseCase(txManager, accountRepo, transactionRepo, outboxRepo, locker, retrier, idGen)
	verifyUC := usecase.NewVerifyUseCase(accountRepo, transactionRepo)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimit(m.RecordRateLimited)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		ImportHandler:      handler.NewImportHandler(importUC, cfg.MaxUploadBytes, m),
		TransactionHandler: handler.NewTransactionHandler(transactionUC, broker.WriteRobinhoodCSV, m),
		VerifyHandler:      handler.NewVerifyHandler(verifyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		Logger:             log,
		Metrics:            m,
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Recorder:   m,
		Logger:     log,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := outbox.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	if cfg.VerifySchedule != "" {
		sched := scheduler.New(ctx, log)
		if err := sched.AddJob(cfg.VerifySchedule, scheduler.NewVerifyJob(verifyUC, m, log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	go sweepLimiters(ctx, rateLimiter, log)

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

// listenAddr accepts a bare port or a host:port pair.
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if _, _, err := net.SplitHostPort(port); err == nil {
		return port
	}
	return ":" + strings.TrimPrefix(port, ":")
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(limiterIdle); n > 0 {
				log.Debug().Int("removed", n).Msg("rate limiters cleaned up")
			}
		}
	}
}
