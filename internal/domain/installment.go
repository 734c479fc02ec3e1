package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one dated payment obligation in a plan. Number 0 is
// reserved for the down payment. An installment is not a ledger entity;
// a later payment movement realizes it.
type Installment struct {
	Number      int
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
	Currency    Currency
	DownPayment bool
}

// IncomeRecord is the reporting-side entry appended when a fee is
// collected. It feeds the studio's income reports, not the ledger.
type IncomeRecord struct {
	ID         string
	FeeID      string
	ProjectID  string
	Concept    string
	Amount     decimal.Decimal
	Currency   Currency
	RecordedAt time.Time
}
