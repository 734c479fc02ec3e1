package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/infrastructure/metrics"
)

// ConversionUseCase rebalances the master account's currency mix: it
// quotes a live rate, validates the source-currency balance, and records
// both legs plus the conversion record in one transaction.
type ConversionUseCase struct {
	txManager      TransactionManager
	conversionRepo ConversionRepository
	ledger         *LedgerUseCase
	rates          RateProvider
	idGen          IDGenerator
	retrier        Retrier
	metrics        *metrics.Metrics
}

// NewConversionUseCase creates a ConversionUseCase. metrics may be nil.
func NewConversionUseCase(
	txManager TransactionManager,
	conversionRepo ConversionRepository,
	ledger *LedgerUseCase,
	rates RateProvider,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *ConversionUseCase {
	return &ConversionUseCase{
		txManager:      txManager,
		conversionRepo: conversionRepo,
		ledger:         ledger,
		rates:          rates,
		idGen:          idGen,
		retrier:        retrier,
		metrics:        m,
	}
}

// ConvertInput represents a conversion request.
type ConvertInput struct {
	Amount       decimal.Decimal
	FromCurrency domain.Currency
	ToCurrency   domain.Currency
	Source       domain.RateSource
}

// Convert swaps currency inside the master account. The request walks the
// conversion state machine; both movement legs, the balance updates and
// the conversion record land in a single transaction, so the books can
// never hold one leg without the other.
func (uc *ConversionUseCase) Convert(ctx context.Context, input ConvertInput) (*domain.Conversion, error) {
	conversion := &domain.Conversion{
		ID:           uc.idGen.Generate(),
		FromCurrency: input.FromCurrency,
		ToCurrency:   input.ToCurrency,
		FromAmount:   input.Amount,
		State:        domain.ConversionQuoted,
		CreatedAt:    time.Now().UTC(),
	}

	if err := conversion.Validate(); err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = domain.RateSourceBlue
	}

	quote, err := uc.rates.GetRate(ctx, source)
	if err != nil {
		return nil, err
	}

	rate, err := quote.RateFor(input.FromCurrency, input.ToCurrency)
	if err != nil {
		return nil, err
	}

	conversion.Rate = rate
	conversion.RateSource = string(source)
	conversion.ToAmount = domain.RoundMoney(input.Amount.Mul(rate))

	err = uc.retrier.Retry(ctx, func() error {
		return uc.execute(ctx, conversion)
	})
	if errors.Is(err, domain.ErrInsufficientFunds) {
		uc.recordRejection(ctx, conversion)

		if uc.metrics != nil {
			uc.metrics.ConversionsRejected.Inc()
		}

		return nil, err
	}

	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ConversionsCompleted.Inc()
		amount, _ := conversion.FromAmount.Float64()
		uc.metrics.ConversionAmount.Observe(amount)
	}

	return conversion, nil
}

// execute runs the Validated -> Debited -> Credited -> Recorded steps inside
// one transaction.
func (uc *ConversionUseCase) execute(ctx context.Context, conversion *domain.Conversion) error {
	conversion.State = domain.ConversionQuoted

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.conversionRepo.Create(ctx, tx, conversion); err != nil {
		return err
	}

	master := domain.MasterRef()
	description := fmt.Sprintf("Conversión %s %s -> %s %s (%s)",
		conversion.FromAmount, conversion.FromCurrency,
		conversion.ToAmount, conversion.ToCurrency,
		conversion.RateSource)

	legs := []RecordMovementInput{
		{
			Kind:        domain.MovementCurrencyExchange,
			Source:      &master,
			Amount:      conversion.FromAmount,
			Currency:    conversion.FromCurrency,
			Rate:        conversion.Rate,
			Description: description,
			Links:       domain.MovementLinks{ConversionID: conversion.ID},
		},
		{
			Kind:        domain.MovementCurrencyExchange,
			Destination: &master,
			Amount:      conversion.ToAmount,
			Currency:    conversion.ToCurrency,
			Rate:        conversion.Rate,
			Description: description,
			Links:       domain.MovementLinks{ConversionID: conversion.ID},
		},
	}

	if err := conversion.Advance(domain.ConversionValidated); err != nil {
		return err
	}

	// Both legs and both balance writes happen here, atomically. The
	// batch surfaces ErrInsufficientFunds while the master row is locked,
	// which is what Rejected-at-Validated means in practice.
	recorded, err := uc.ledger.RecordBatchTx(ctx, tx, legs)
	if err != nil {
		return err
	}

	for _, state := range []domain.ConversionState{
		domain.ConversionDebited,
		domain.ConversionCredited,
		domain.ConversionRecorded,
		domain.ConversionCompleted,
	} {
		if err := conversion.Advance(state); err != nil {
			return err
		}
	}

	if err := uc.conversionRepo.UpdateState(ctx, tx, conversion.ID, conversion.State); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.ledger.observeMovements(recorded...)

	return nil
}

// recordRejection persists the rejected conversion for audit. No money
// moved, so this runs in its own small transaction.
func (uc *ConversionUseCase) recordRejection(ctx context.Context, conversion *domain.Conversion) {
	conversion.State = domain.ConversionValidated
	if err := conversion.Advance(domain.ConversionRejected); err != nil {
		return
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return
	}
	defer tx.Rollback(ctx)

	if err := uc.conversionRepo.Create(ctx, tx, conversion); err != nil {
		return
	}

	_ = tx.Commit(ctx)
}

// GetConversion retrieves a conversion by ID.
func (uc *ConversionUseCase) GetConversion(ctx context.Context, id string) (*domain.Conversion, error) {
	return uc.conversionRepo.GetByID(ctx, id)
}

// ListConversions lists conversions, newest first.
func (uc *ConversionUseCase) ListConversions(ctx context.Context, limit, offset int) ([]*domain.Conversion, error) {
	limit, offset = clampPage(limit, offset)

	return uc.conversionRepo.List(ctx, limit, offset)
}
