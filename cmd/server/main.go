package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/atelierhq/studioledger/internal/adapter/http"
	"github.com/atelierhq/studioledger/internal/adapter/http/handler"
	"github.com/atelierhq/studioledger/internal/adapter/http/middleware"
	postgresRepo "github.com/atelierhq/studioledger/internal/adapter/repository/postgres"
	redisRepo "github.com/atelierhq/studioledger/internal/adapter/repository/redis"
	"github.com/atelierhq/studioledger/internal/currency"
	"github.com/atelierhq/studioledger/internal/infrastructure/config"
	"github.com/atelierhq/studioledger/internal/infrastructure/logger"
	"github.com/atelierhq/studioledger/internal/infrastructure/metrics"
	"github.com/atelierhq/studioledger/internal/infrastructure/postgres"
	"github.com/atelierhq/studioledger/internal/infrastructure/redis"
	"github.com/atelierhq/studioledger/internal/rates"
	"github.com/atelierhq/studioledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	accountRepo := postgresRepo.NewAccountRepository(pool, idGen)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	conversionRepo := postgresRepo.NewConversionRepository(pool)
	feeRepo := postgresRepo.NewFeeRepository(pool)
	settingsRepo := postgresRepo.NewSettingsRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool, idGen)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	// Exchange rate provider: live fetches, TTL cache, stale fallback,
	// quote history persisted for audit.
	rateClient := rates.NewHTTPClient(cfg.RateAPIURL, cfg.RateFetchTimeout)
	rateProvider := rates.NewProvider(rateClient, log.Logger,
		rates.WithTTL(cfg.RateTTL),
		rates.WithSink(rateRepo),
	)

	converter := currency.NewService(rateRepo)

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, movementRepo, idGen, retrier, appMetrics)
	conversionUC := usecase.NewConversionUseCase(txManager, conversionRepo, ledgerUC, rateProvider, idGen, retrier, appMetrics)
	feeUC := usecase.NewFeeUseCase(txManager, feeRepo, settingsRepo, ledgerUC, idGen, retrier, appMetrics)

	// Initialize handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	conversionHandler := handler.NewConversionHandler(conversionUC)
	feeHandler := handler.NewFeeHandler(feeUC)
	planHandler := handler.NewPlanHandler()
	rateHandler := handler.NewRateHandler(rateProvider, converter, cache, cfg.RateBoardTTL)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:            log.Logger,
		LedgerHandler:     ledgerHandler,
		ConversionHandler: conversionHandler,
		FeeHandler:        feeHandler,
		PlanHandler:       planHandler,
		RateHandler:       rateHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		RateLimiter:       middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
