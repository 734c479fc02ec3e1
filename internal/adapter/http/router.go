package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/atelierhq/studioledger/internal/adapter/http/handler"
	"github.com/atelierhq/studioledger/internal/adapter/http/middleware"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler     *handler.LedgerHandler
	ConversionHandler *handler.ConversionHandler
	FeeHandler        *handler.FeeHandler
	PlanHandler       *handler.PlanHandler
	RateHandler       *handler.RateHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts and movements
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.LedgerHandler.ListAccounts)
			r.Get("/{kind}/balances", cfg.LedgerHandler.GetBalances)
		})

		r.Route("/movements", func(r chi.Router) {
			r.Post("/", cfg.LedgerHandler.RecordMovement)
			r.Get("/", cfg.LedgerHandler.ListMovements)
			r.Get("/{id}", cfg.LedgerHandler.GetMovement)
		})

		r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)

		// Conversions
		r.Route("/conversions", func(r chi.Router) {
			r.Post("/", cfg.ConversionHandler.Create)
			r.Get("/", cfg.ConversionHandler.List)
			r.Get("/{id}", cfg.ConversionHandler.Get)
		})

		// Fees
		r.Route("/fees", func(r chi.Router) {
			r.Post("/", cfg.FeeHandler.Create)
			r.Get("/{id}", cfg.FeeHandler.Get)
			r.Post("/{id}/collect", cfg.FeeHandler.Collect)
			r.Post("/{id}/cancel", cfg.FeeHandler.Cancel)
		})

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/fees", cfg.FeeHandler.ListByProject)
			r.Get("/fee-percentage", cfg.FeeHandler.Percentage)
		})

		// Payment plans
		r.Post("/plans/preview", cfg.PlanHandler.Preview)

		// Market rates
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", cfg.RateHandler.List)
			r.Get("/preview", cfg.RateHandler.Preview)
			r.Get("/{source}", cfg.RateHandler.Get)
		})
	})

	return r
}
