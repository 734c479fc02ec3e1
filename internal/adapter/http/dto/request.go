package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/plan"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// AccountRefRequest addresses one cash account in a request body.
type AccountRefRequest struct {
	Kind      string `json:"kind"`
	ProjectID string `json:"project_id,omitempty"`
}

// ToDomain converts to a domain reference. A nil receiver means the
// movement side is external.
func (r *AccountRefRequest) ToDomain() *domain.AccountRef {
	if r == nil {
		return nil
	}

	return &domain.AccountRef{
		Kind:      domain.AccountKind(r.Kind),
		ProjectID: r.ProjectID,
	}
}

// RecordMovementRequest represents a request to record a movement.
type RecordMovementRequest struct {
	Kind          string             `json:"kind"`
	Source        *AccountRefRequest `json:"source,omitempty"`
	Destination   *AccountRefRequest `json:"destination,omitempty"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      string             `json:"currency"`
	Rate          decimal.Decimal    `json:"rate,omitempty"`
	Description   string             `json:"description,omitempty"`
	ProjectID     string             `json:"project_id,omitempty"`
	InstallmentID string             `json:"installment_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordMovementRequest) ToUseCaseInput() usecase.RecordMovementInput {
	return usecase.RecordMovementInput{
		Kind:        domain.MovementKind(r.Kind),
		Source:      r.Source.ToDomain(),
		Destination: r.Destination.ToDomain(),
		Amount:      r.Amount,
		Currency:    domain.Currency(r.Currency),
		Rate:        r.Rate,
		Description: r.Description,
		Links: domain.MovementLinks{
			ProjectID:     r.ProjectID,
			InstallmentID: r.InstallmentID,
		},
	}
}

// ConvertRequest represents a request to convert currency inside the
// master account.
type ConvertRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Source       string          `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ConvertRequest) ToUseCaseInput() usecase.ConvertInput {
	return usecase.ConvertInput{
		Amount:       r.Amount,
		FromCurrency: domain.Currency(r.FromCurrency),
		ToCurrency:   domain.Currency(r.ToCurrency),
		Source:       domain.RateSource(r.Source),
	}
}

// CreateFeeRequest represents a request to record a pending fee for a
// project payment.
type CreateFeeRequest struct {
	ProjectID     string           `json:"project_id"`
	PaymentAmount decimal.Decimal  `json:"payment_amount"`
	Currency      string           `json:"currency"`
	Percent       *decimal.Decimal `json:"percent,omitempty"`
	InstallmentID string           `json:"installment_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateFeeRequest) ToUseCaseInput() usecase.CreateFeeInput {
	return usecase.CreateFeeInput{
		ProjectID:     r.ProjectID,
		PaymentAmount: r.PaymentAmount,
		Currency:      domain.Currency(r.Currency),
		Percent:       r.Percent,
		InstallmentID: r.InstallmentID,
	}
}

// CancelFeeRequest represents a request to cancel a pending fee.
type CancelFeeRequest struct {
	Reason string `json:"reason"`
}

// PlanRequest represents a request to build an installment plan. Policy
// selects the split: "equal", "milestone" or "progressive".
type PlanRequest struct {
	Policy      string          `json:"policy"`
	Total       decimal.Decimal `json:"total"`
	DownPayment decimal.Decimal `json:"down_payment,omitempty"`
	Count       int             `json:"count,omitempty"`
	Cadence     string          `json:"cadence,omitempty"`
	Start       time.Time       `json:"start"`
	Currency    string          `json:"currency"`

	// Equal policy only.
	CustomAmounts []decimal.Decimal `json:"custom_amounts,omitempty"`
	// Progressive policy only.
	Ratio decimal.Decimal `json:"ratio,omitempty"`
}

// ToEqualInput converts to the equal-split plan input.
func (r *PlanRequest) ToEqualInput() plan.EqualInput {
	return plan.EqualInput{
		Total:         r.Total,
		DownPayment:   r.DownPayment,
		Count:         r.Count,
		Cadence:       plan.Cadence(r.Cadence),
		Start:         r.Start,
		Currency:      domain.Currency(r.Currency),
		CustomAmounts: r.CustomAmounts,
	}
}

// ToProgressiveInput converts to the progressive plan input.
func (r *PlanRequest) ToProgressiveInput() plan.ProgressiveInput {
	return plan.ProgressiveInput{
		Total:       r.Total,
		DownPayment: r.DownPayment,
		Count:       r.Count,
		Ratio:       r.Ratio,
		Cadence:     plan.Cadence(r.Cadence),
		Start:       r.Start,
		Currency:    domain.Currency(r.Currency),
	}
}
