package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies why money moved.
type MovementKind string

const (
	MovementProjectIncome     MovementKind = "project_income"
	MovementMasterDuplication MovementKind = "master_duplication"
	MovementFeeCollection     MovementKind = "fee_collection"
	MovementCurrencyExchange  MovementKind = "currency_exchange"
	MovementExpense           MovementKind = "expense"
	MovementTransfer          MovementKind = "transfer"
	MovementAdjustment        MovementKind = "adjustment"
)

var validMovementKinds = map[MovementKind]bool{
	MovementProjectIncome:     true,
	MovementMasterDuplication: true,
	MovementFeeCollection:     true,
	MovementCurrencyExchange:  true,
	MovementExpense:           true,
	MovementTransfer:          true,
	MovementAdjustment:        true,
}

// IsValid reports whether the kind is known.
func (k MovementKind) IsValid() bool {
	return validMovementKinds[k]
}

// MovementLinks ties a movement to the business records that caused it.
type MovementLinks struct {
	ProjectID     string
	InstallmentID string
	FeeID         string
	ConversionID  string
}

// Movement is an immutable record of money entering or leaving an account.
// Source is nil for external inflows, Destination is nil for external
// outflows. Movements are the sole source of truth for balance history.
type Movement struct {
	ID          string
	Kind        MovementKind
	Source      *AccountRef
	Destination *AccountRef
	Amount      decimal.Decimal
	Currency    Currency
	// Rate is the exchange rate in effect; 1 when no conversion occurred.
	Rate        decimal.Decimal
	Description string
	Links       MovementLinks
	CreatedAt   time.Time
}

// Validate checks the movement before it is recorded.
func (m *Movement) Validate() error {
	if !m.Kind.IsValid() {
		return ErrInvalidMovementKind
	}

	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !m.Currency.IsValid() {
		return ErrInvalidCurrency
	}

	if m.Source == nil && m.Destination == nil {
		return ErrExternalBothSides
	}

	if m.Source != nil {
		if err := m.Source.Validate(); err != nil {
			return err
		}
	}

	if m.Destination != nil {
		if err := m.Destination.Validate(); err != nil {
			return err
		}
	}

	// Moving money from an account to itself would net to zero; reject
	// it so the movement log never carries self-referential rows.
	if m.Source != nil && m.Destination != nil && *m.Source == *m.Destination {
		return ErrSameAccount
	}

	return nil
}
