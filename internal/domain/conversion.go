package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ConversionState tracks a conversion request through its lifecycle.
// The happy path is Quoted -> Validated -> Debited -> Credited -> Recorded ->
// Completed. A request is Rejected at Validated when the master account
// lacks funds, and Failed if any later step errors.
type ConversionState string

const (
	ConversionQuoted    ConversionState = "quoted"
	ConversionValidated ConversionState = "validated"
	ConversionDebited   ConversionState = "debited"
	ConversionCredited  ConversionState = "credited"
	ConversionRecorded  ConversionState = "recorded"
	ConversionCompleted ConversionState = "completed"
	ConversionRejected  ConversionState = "rejected"
	ConversionFailed    ConversionState = "failed"
)

var conversionTransitions = map[ConversionState][]ConversionState{
	ConversionQuoted:    {ConversionValidated, ConversionFailed},
	ConversionValidated: {ConversionDebited, ConversionRejected, ConversionFailed},
	ConversionDebited:   {ConversionCredited, ConversionFailed},
	ConversionCredited:  {ConversionRecorded, ConversionFailed},
	ConversionRecorded:  {ConversionCompleted, ConversionFailed},
}

// CanTransition reports whether moving from s to next is legal.
func (s ConversionState) CanTransition(next ConversionState) bool {
	for _, allowed := range conversionTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (s ConversionState) IsTerminal() bool {
	switch s {
	case ConversionCompleted, ConversionRejected, ConversionFailed:
		return true
	}

	return false
}

// Conversion pairs exactly two movements: an outbound leg in the source
// currency and an inbound leg in the destination currency, both against the
// master account. ToAmount = FromAmount * Rate within rounding.
type Conversion struct {
	ID           string
	FromCurrency Currency
	ToCurrency   Currency
	FromAmount   decimal.Decimal
	ToAmount     decimal.Decimal
	Rate         decimal.Decimal
	RateSource   string
	State        ConversionState
	CreatedAt    time.Time
}

// Advance moves the conversion to the next state, rejecting illegal jumps.
func (c *Conversion) Advance(next ConversionState) error {
	if !c.State.CanTransition(next) {
		return fmt.Errorf("conversion %s: illegal transition %s -> %s", c.ID, c.State, next)
	}

	c.State = next

	return nil
}

// Validate checks the conversion request parameters.
func (c *Conversion) Validate() error {
	if !c.FromCurrency.IsValid() || !c.ToCurrency.IsValid() {
		return ErrInvalidCurrency
	}

	if c.FromCurrency == c.ToCurrency {
		return ErrSameCurrency
	}

	if c.FromAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// CheckLegs verifies the conversion invariant against its recorded legs.
func (c *Conversion) CheckLegs() error {
	expected := RoundMoney(c.FromAmount.Mul(c.Rate))
	if !c.ToAmount.Equal(expected) {
		return fmt.Errorf("conversion %s: to_amount %s does not equal %s * %s = %s",
			c.ID, c.ToAmount, c.FromAmount, c.Rate, expected)
	}

	return nil
}
