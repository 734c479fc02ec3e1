package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountRefResponse addresses one cash account in a response body.
type AccountRefResponse struct {
	Kind      string `json:"kind"`
	ProjectID string `json:"project_id,omitempty"`
}

func refFromDomain(ref *domain.AccountRef) *AccountRefResponse {
	if ref == nil {
		return nil
	}

	return &AccountRefResponse{
		Kind:      string(ref.Kind),
		ProjectID: ref.ProjectID,
	}
}

// AccountResponse represents one currency balance row of an account.
type AccountResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	ProjectID string          `json:"project_id,omitempty"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Kind:      string(account.Ref.Kind),
		ProjectID: account.Ref.ProjectID,
		Currency:  string(account.Currency),
		Balance:   account.Balance,
		UpdatedAt: account.UpdatedAt,
	}
}

// AccountsFromDomain converts a slice of domain accounts.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		out[i] = AccountFromDomain(account)
	}

	return out
}

// ListAccountsResponse wraps a list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
}

// MovementResponse represents a recorded movement.
type MovementResponse struct {
	ID            string              `json:"id"`
	Kind          string              `json:"kind"`
	Source        *AccountRefResponse `json:"source,omitempty"`
	Destination   *AccountRefResponse `json:"destination,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	Rate          decimal.Decimal     `json:"rate"`
	Description   string              `json:"description,omitempty"`
	ProjectID     string              `json:"project_id,omitempty"`
	InstallmentID string              `json:"installment_id,omitempty"`
	FeeID         string              `json:"fee_id,omitempty"`
	ConversionID  string              `json:"conversion_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// MovementFromDomain converts a domain movement.
func MovementFromDomain(movement *domain.Movement) MovementResponse {
	return MovementResponse{
		ID:            movement.ID,
		Kind:          string(movement.Kind),
		Source:        refFromDomain(movement.Source),
		Destination:   refFromDomain(movement.Destination),
		Amount:        movement.Amount,
		Currency:      string(movement.Currency),
		Rate:          movement.Rate,
		Description:   movement.Description,
		ProjectID:     movement.Links.ProjectID,
		InstallmentID: movement.Links.InstallmentID,
		FeeID:         movement.Links.FeeID,
		ConversionID:  movement.Links.ConversionID,
		CreatedAt:     movement.CreatedAt,
	}
}

// MovementsFromDomain converts a slice of domain movements.
func MovementsFromDomain(movements []*domain.Movement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i, movement := range movements {
		out[i] = MovementFromDomain(movement)
	}

	return out
}

// ListMovementsResponse wraps a list of movements.
type ListMovementsResponse struct {
	Movements []MovementResponse `json:"movements"`
	Total     int64              `json:"total"`
}

// ConversionResponse represents a currency conversion.
type ConversionResponse struct {
	ID           string          `json:"id"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	Rate         decimal.Decimal `json:"rate"`
	RateSource   string          `json:"rate_source"`
	State        string          `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ConversionFromDomain converts a domain conversion.
func ConversionFromDomain(conversion *domain.Conversion) ConversionResponse {
	return ConversionResponse{
		ID:           conversion.ID,
		FromCurrency: string(conversion.FromCurrency),
		ToCurrency:   string(conversion.ToCurrency),
		FromAmount:   conversion.FromAmount,
		ToAmount:     conversion.ToAmount,
		Rate:         conversion.Rate,
		RateSource:   conversion.RateSource,
		State:        string(conversion.State),
		CreatedAt:    conversion.CreatedAt,
	}
}

// ConversionsFromDomain converts a slice of domain conversions.
func ConversionsFromDomain(conversions []*domain.Conversion) []ConversionResponse {
	out := make([]ConversionResponse, len(conversions))
	for i, conversion := range conversions {
		out[i] = ConversionFromDomain(conversion)
	}

	return out
}

// FeeResponse represents an administrator fee.
type FeeResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	InstallmentID   string          `json:"installment_id,omitempty"`
	Percent         decimal.Decimal `json:"percent"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	CollectedAt     *time.Time      `json:"collected_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// FeeFromDomain converts a domain fee.
func FeeFromDomain(fee *domain.AdminFee) FeeResponse {
	return FeeResponse{
		ID:              fee.ID,
		ProjectID:       fee.ProjectID,
		InstallmentID:   fee.InstallmentID,
		Percent:         fee.Percent,
		Amount:          fee.Amount,
		Currency:        string(fee.Currency),
		Status:          string(fee.Status),
		CollectedAmount: fee.CollectedAmount,
		CollectedAt:     fee.CollectedAt,
		CancelReason:    fee.CancelReason,
		CreatedAt:       fee.CreatedAt,
	}
}

// FeesFromDomain converts a slice of domain fees.
func FeesFromDomain(fees []*domain.AdminFee) []FeeResponse {
	out := make([]FeeResponse, len(fees))
	for i, fee := range fees {
		out[i] = FeeFromDomain(fee)
	}

	return out
}

// InstallmentResponse represents one installment of a payment plan.
type InstallmentResponse struct {
	Number      int             `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
	Currency    string          `json:"currency"`
	DownPayment bool            `json:"down_payment"`
}

// PlanResponse wraps a generated installment schedule.
type PlanResponse struct {
	Installments []InstallmentResponse `json:"installments"`
	Total        decimal.Decimal       `json:"total"`
}

// PlanFromDomain converts an installment schedule.
func PlanFromDomain(schedule []domain.Installment) PlanResponse {
	total := decimal.Zero
	installments := make([]InstallmentResponse, len(schedule))

	for i, inst := range schedule {
		total = total.Add(inst.Amount)
		installments[i] = InstallmentResponse{
			Number:      inst.Number,
			Amount:      inst.Amount,
			DueDate:     inst.DueDate,
			Description: inst.Description,
			Currency:    string(inst.Currency),
			DownPayment: inst.DownPayment,
		}
	}

	return PlanResponse{
		Installments: installments,
		Total:        total,
	}
}

// RateResponse represents one market quote.
type RateResponse struct {
	Source string          `json:"source"`
	Buy    decimal.Decimal `json:"buy"`
	Sell   decimal.Decimal `json:"sell"`
	AsOf   time.Time       `json:"as_of"`
}

// RateFromDomain converts a domain quote.
func RateFromDomain(quote domain.RateQuote) RateResponse {
	return RateResponse{
		Source: string(quote.Source),
		Buy:    quote.Buy,
		Sell:   quote.Sell,
		AsOf:   quote.AsOf,
	}
}

// ConversionPreviewResponse quotes a conversion without moving money.
type ConversionPreviewResponse struct {
	Amount             decimal.Decimal `json:"amount"`
	FromCurrency       string          `json:"from_currency"`
	ToCurrency         string          `json:"to_currency"`
	Source             string          `json:"source"`
	Converted          decimal.Decimal `json:"converted"`
	FormattedAmount    string          `json:"formatted_amount"`
	FormattedConverted string          `json:"formatted_converted"`
}

// ConsistencyMismatchResponse reports one balance that does not reconcile
// to its movement history.
type ConsistencyMismatchResponse struct {
	Kind      string          `json:"kind"`
	ProjectID string          `json:"project_id,omitempty"`
	Currency  string          `json:"currency"`
	Cached    decimal.Decimal `json:"cached"`
	Derived   decimal.Decimal `json:"derived"`
}

// ConsistencyResponse wraps a consistency check result.
type ConsistencyResponse struct {
	Consistent bool                          `json:"consistent"`
	Mismatches []ConsistencyMismatchResponse `json:"mismatches"`
}

// ConsistencyFromDomain converts consistency check results.
func ConsistencyFromDomain(mismatches []usecase.ConsistencyMismatch) ConsistencyResponse {
	out := make([]ConsistencyMismatchResponse, len(mismatches))
	for i, m := range mismatches {
		out[i] = ConsistencyMismatchResponse{
			Kind:      string(m.Ref.Kind),
			ProjectID: m.Ref.ProjectID,
			Currency:  string(m.Currency),
			Cached:    m.Cached,
			Derived:   m.Derived,
		}
	}

	return ConsistencyResponse{
		Consistent: len(mismatches) == 0,
		Mismatches: out,
	}
}
