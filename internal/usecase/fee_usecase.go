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

// FeeUseCase owns the administrator fee lifecycle. Money only moves
// through the ledger store, and collection is a single transaction: the
// Master->Admin movement, the income record and the fee status change
// either all land or none do.
type FeeUseCase struct {
	txManager TransactionManager
	feeRepo   FeeRepository
	settings  SettingsRepository
	ledger    *LedgerUseCase
	idGen     IDGenerator
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewFeeUseCase creates a FeeUseCase. metrics may be nil.
func NewFeeUseCase(
	txManager TransactionManager,
	feeRepo FeeRepository,
	settings SettingsRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *FeeUseCase {
	return &FeeUseCase{
		txManager: txManager,
		feeRepo:   feeRepo,
		settings:  settings,
		ledger:    ledger,
		idGen:     idGen,
		retrier:   retrier,
		metrics:   m,
	}
}

// ApplicableFeePercentage resolves the fee percentage for a project: a
// project override (including an explicit exemption, read as 0) wins,
// then the studio-wide setting, then the hardcoded default.
func (uc *FeeUseCase) ApplicableFeePercentage(ctx context.Context, projectID string) (decimal.Decimal, error) {
	override, err := uc.settings.ProjectFeeOverride(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}

	if override != nil {
		if override.Exempt {
			return decimal.Zero, nil
		}

		return override.Percent, nil
	}

	percent, err := uc.settings.AdminFeePercent(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if percent.IsPositive() {
		return percent, nil
	}

	return DefaultAdminFeePercent, nil
}

// CreateFeeInput represents a fee creation request from a payment event.
type CreateFeeInput struct {
	ProjectID     string
	PaymentAmount decimal.Decimal
	Currency      domain.Currency
	// Percent overrides the resolved percentage when non-nil.
	Percent       *decimal.Decimal
	InstallmentID string
}

// CreateFee computes and records a pending fee for a payment. When the
// payment is tied to an installment that already has a fee, it returns
// (nil, nil): the duplicate is a deliberate no-op, not an error. An
// exempt project also yields no fee.
func (uc *FeeUseCase) CreateFee(ctx context.Context, input CreateFeeInput) (*domain.AdminFee, error) {
	if input.PaymentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if !input.Currency.IsValid() {
		return nil, domain.ErrInvalidCurrency
	}

	if input.InstallmentID != "" {
		_, err := uc.feeRepo.GetByInstallment(ctx, input.InstallmentID)
		if err == nil {
			return nil, nil
		}

		if !errors.Is(err, domain.ErrFeeNotFound) {
			return nil, err
		}
	}

	var percent decimal.Decimal
	if input.Percent != nil {
		percent = *input.Percent
	} else {
		resolved, err := uc.ApplicableFeePercentage(ctx, input.ProjectID)
		if err != nil {
			return nil, err
		}

		percent = resolved
	}

	if percent.IsZero() {
		return nil, nil
	}

	now := time.Now().UTC()

	fee := &domain.AdminFee{
		ID:            uc.idGen.Generate(),
		ProjectID:     input.ProjectID,
		InstallmentID: input.InstallmentID,
		Percent:       percent,
		Amount:        domain.FeeAmount(input.PaymentAmount, percent),
		Currency:      input.Currency,
		Status:        domain.FeePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := fee.Validate(); err != nil {
		return nil, err
	}

	if err := uc.feeRepo.Create(ctx, fee); err != nil {
		// Two requests can race past the pre-check; the unique index on
		// installment_id decides, and the loser is the same no-op as a
		// detected duplicate.
		if errors.Is(err, domain.ErrDuplicateFee) {
			return nil, nil
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FeesCreated.Inc()
	}

	return fee, nil
}

// CollectFee moves the fee amount from Master to Admin and marks the fee
// collected, all in one transaction. Master lacking funds surfaces
// ErrInsufficientFunds with nothing written; the fee stays pending for
// the caller to decide.
func (uc *FeeUseCase) CollectFee(ctx context.Context, feeID string) (*domain.AdminFee, error) {
	var collected *domain.AdminFee

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		fee, err := uc.feeRepo.GetByIDForUpdate(ctx, tx, feeID)
		if err != nil {
			return err
		}

		if fee.Status != domain.FeePending {
			return domain.ErrFeeNotPending
		}

		master := domain.MasterRef()
		admin := domain.AdminRef()

		recorded, err := uc.ledger.RecordBatchTx(ctx, tx, []RecordMovementInput{{
			Kind:        domain.MovementFeeCollection,
			Source:      &master,
			Destination: &admin,
			Amount:      fee.Amount,
			Currency:    fee.Currency,
			Description: fmt.Sprintf("Honorarios %s%% proyecto %s", fee.Percent, fee.ProjectID),
			Links: domain.MovementLinks{
				ProjectID:     fee.ProjectID,
				InstallmentID: fee.InstallmentID,
				FeeID:         fee.ID,
			},
		}})
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		if err := fee.MarkCollected(fee.Amount, now); err != nil {
			return err
		}

		if err := uc.feeRepo.Update(ctx, tx, fee); err != nil {
			return err
		}

		record := &domain.IncomeRecord{
			ID:         uc.idGen.Generate(),
			FeeID:      fee.ID,
			ProjectID:  fee.ProjectID,
			Concept:    fmt.Sprintf("Honorarios administrativos proyecto %s", fee.ProjectID),
			Amount:     fee.Amount,
			Currency:   fee.Currency,
			RecordedAt: now,
		}

		if err := uc.feeRepo.CreateIncomeRecord(ctx, tx, record); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		uc.ledger.observeMovements(recorded...)

		collected = fee

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FeesCollected.Inc()
		amount, _ := collected.CollectedAmount.Float64()
		uc.metrics.FeeAmount.Observe(amount)
	}

	return collected, nil
}

// CancelFee cancels a pending fee. It moves no money.
func (uc *FeeUseCase) CancelFee(ctx context.Context, feeID, reason string) (*domain.AdminFee, error) {
	var cancelled *domain.AdminFee

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		fee, err := uc.feeRepo.GetByIDForUpdate(ctx, tx, feeID)
		if err != nil {
			return err
		}

		if err := fee.MarkCancelled(reason, time.Now().UTC()); err != nil {
			return err
		}

		if err := uc.feeRepo.Update(ctx, tx, fee); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		cancelled = fee

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FeesCancelled.Inc()
	}

	return cancelled, nil
}

// GetFee retrieves a fee by ID.
func (uc *FeeUseCase) GetFee(ctx context.Context, id string) (*domain.AdminFee, error) {
	return uc.feeRepo.GetByID(ctx, id)
}

// ListFeesByProject lists a project's fees.
func (uc *FeeUseCase) ListFeesByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error) {
	limit, offset = clampPage(limit, offset)

	return uc.feeRepo.ListByProject(ctx, projectID, limit, offset)
}
