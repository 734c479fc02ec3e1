package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatus is the lifecycle state of an administrator fee.
// pending -> collected | cancelled; both end states are terminal.
type FeeStatus string

const (
	FeePending   FeeStatus = "pending"
	FeeCollected FeeStatus = "collected"
	FeeCancelled FeeStatus = "cancelled"
)

// AdminFee is the administrator's cut of a project payment. It belongs to
// exactly one project and optionally to one installment; at most one fee
// may exist per installment.
type AdminFee struct {
	ID            string
	ProjectID     string
	InstallmentID string
	Percent       decimal.Decimal
	Amount        decimal.Decimal
	Currency      Currency

	Status          FeeStatus
	CollectedAmount decimal.Decimal
	CollectedAt     *time.Time
	CancelReason    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fee creation parameters.
func (f *AdminFee) Validate() error {
	if f.Percent.IsNegative() || f.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercent
	}

	if f.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !f.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	return nil
}

// MarkCollected transitions the fee to collected. Only a pending fee can
// be collected.
func (f *AdminFee) MarkCollected(amount decimal.Decimal, at time.Time) error {
	if f.Status != FeePending {
		return ErrFeeNotPending
	}

	f.Status = FeeCollected
	f.CollectedAmount = amount
	f.CollectedAt = &at
	f.UpdatedAt = at

	return nil
}

// MarkCancelled transitions the fee to cancelled. Moves no money.
func (f *AdminFee) MarkCancelled(reason string, at time.Time) error {
	if f.Status != FeePending {
		return ErrFeeNotPending
	}

	f.Status = FeeCancelled
	f.CancelReason = reason
	f.UpdatedAt = at

	return nil
}

// FeeAmount computes the fee owed on a payment at the given percentage,
// rounded to 2 decimals.
func FeeAmount(paymentAmount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(paymentAmount.Mul(percent).Div(decimal.NewFromInt(100)))
}
