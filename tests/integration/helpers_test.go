package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/repository/postgres"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
	"github.com/atelierhq/studioledger/tests/testutil"
)

// fixedRateProvider serves a constant quote, so conversion outcomes are
// deterministic regardless of market data.
type fixedRateProvider struct {
	buy  decimal.Decimal
	sell decimal.Decimal
}

func (p fixedRateProvider) GetRate(_ context.Context, source domain.RateSource) (domain.RateQuote, error) {
	return domain.RateQuote{
		Source: source,
		Buy:    p.buy,
		Sell:   p.sell,
		AsOf:   time.Now().UTC(),
	}, nil
}

func (p fixedRateProvider) GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote {
	quote, _ := p.GetRate(ctx, domain.RateSourceBlue)

	return map[domain.RateSource]domain.RateQuote{domain.RateSourceBlue: quote}
}

type testApp struct {
	db         *testutil.TestDB
	ledger     *usecase.LedgerUseCase
	conversion *usecase.ConversionUseCase
	fee        *usecase.FeeUseCase
}

func newTestApp(t *testing.T, rates usecase.RateProvider) *testApp {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	db.TruncateAll(context.Background())

	pool := db.Pool
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()
	accountRepo := postgres.NewAccountRepository(pool, idGen)
	movementRepo := postgres.NewMovementRepository(pool)
	conversionRepo := postgres.NewConversionRepository(pool)
	feeRepo := postgres.NewFeeRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)

	ledger := usecase.NewLedgerUseCase(txManager, accountRepo, movementRepo, idGen, retrier, nil)
	conversion := usecase.NewConversionUseCase(txManager, conversionRepo, ledger, rates, idGen, retrier, nil)
	fee := usecase.NewFeeUseCase(txManager, feeRepo, settingsRepo, ledger, idGen, retrier, nil)

	return &testApp{
		db:         db,
		ledger:     ledger,
		conversion: conversion,
		fee:        fee,
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}

	return d
}
