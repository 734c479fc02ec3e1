package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/http/handler"
	apimiddleware "github.com/atelierhq/studioledger/internal/adapter/http/middleware"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"kind":"project_income","destination":{"kind":"project","project_id":"prj-1"},"amount":"100","currency":"ARS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{kind}/balances",
		"POST /api/v1/movements/",
		"GET /api/v1/movements/{id}",
		"GET /api/v1/consistency",
		"POST /api/v1/conversions/",
		"POST /api/v1/fees/",
		"POST /api/v1/fees/{id}/collect",
		"GET /api/v1/projects/{projectID}/fees",
		"POST /api/v1/plans/preview",
		"GET /api/v1/rates/",
		"GET /api/v1/rates/{source}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		Logger:            zerolog.Nop(),
		HealthHandler:     &handler.HealthHandler{},
		LedgerHandler:     handler.NewLedgerHandler(&stubLedgerService{}),
		ConversionHandler: handler.NewConversionHandler(&stubConversionService{}),
		FeeHandler:        handler.NewFeeHandler(&stubFeeService{}),
		PlanHandler:       handler.NewPlanHandler(),
		RateHandler:       handler.NewRateHandler(&stubRateProvider{}, nil, nil, 0),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubLedgerService struct{}

func (stubLedgerService) RecordMovement(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error) {
	return &domain.Movement{ID: "mov"}, nil
}

func (stubLedgerService) GetBalances(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

func (stubLedgerService) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

func (stubLedgerService) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return &domain.Movement{ID: id}, nil
}

func (stubLedgerService) ListMovements(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error) {
	return []*domain.Movement{}, nil
}

func (stubLedgerService) CheckConsistency(ctx context.Context) ([]usecase.ConsistencyMismatch, error) {
	return nil, nil
}

type stubConversionService struct{}

func (stubConversionService) Convert(ctx context.Context, input usecase.ConvertInput) (*domain.Conversion, error) {
	return &domain.Conversion{ID: "conv"}, nil
}

func (stubConversionService) GetConversion(ctx context.Context, id string) (*domain.Conversion, error) {
	return &domain.Conversion{ID: id}, nil
}

func (stubConversionService) ListConversions(ctx context.Context, limit, offset int) ([]*domain.Conversion, error) {
	return []*domain.Conversion{}, nil
}

type stubFeeService struct{}

func (stubFeeService) CreateFee(ctx context.Context, input usecase.CreateFeeInput) (*domain.AdminFee, error) {
	return &domain.AdminFee{ID: "fee"}, nil
}

func (stubFeeService) CollectFee(ctx context.Context, feeID string) (*domain.AdminFee, error) {
	return &domain.AdminFee{ID: feeID}, nil
}

func (stubFeeService) CancelFee(ctx context.Context, feeID, reason string) (*domain.AdminFee, error) {
	return &domain.AdminFee{ID: feeID}, nil
}

func (stubFeeService) GetFee(ctx context.Context, id string) (*domain.AdminFee, error) {
	return &domain.AdminFee{ID: id}, nil
}

func (stubFeeService) ListFeesByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error) {
	return []*domain.AdminFee{}, nil
}

func (stubFeeService) ApplicableFeePercentage(ctx context.Context, projectID string) (decimal.Decimal, error) {
	return decimal.NewFromInt(10), nil
}

type stubRateProvider struct{}

func (stubRateProvider) GetRate(ctx context.Context, source domain.RateSource) (domain.RateQuote, error) {
	return domain.RateQuote{Source: source}, nil
}

func (stubRateProvider) GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote {
	return map[domain.RateSource]domain.RateQuote{}
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
