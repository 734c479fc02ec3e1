package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind identifies one of the three cash pools the studio operates.
type AccountKind string

const (
	// AccountMaster is the firm-wide pool mirroring aggregate project income.
	AccountMaster AccountKind = "master"
	// AccountAdmin holds collected administrator fees.
	AccountAdmin AccountKind = "admin"
	// AccountProject tracks a single project's own receipts.
	AccountProject AccountKind = "project"
)

// AccountRef addresses one cash account. Master and Admin are singletons;
// Project is parameterized by the project ID.
type AccountRef struct {
	Kind      AccountKind
	ProjectID string
}

// MasterRef returns the reference to the master account.
func MasterRef() AccountRef {
	return AccountRef{Kind: AccountMaster}
}

// AdminRef returns the reference to the admin fee account.
func AdminRef() AccountRef {
	return AccountRef{Kind: AccountAdmin}
}

// ProjectRef returns the reference to a project's account.
func ProjectRef(projectID string) AccountRef {
	return AccountRef{Kind: AccountProject, ProjectID: projectID}
}

// Validate checks that the reference is well formed.
func (r AccountRef) Validate() error {
	switch r.Kind {
	case AccountMaster, AccountAdmin:
		if r.ProjectID != "" {
			return fmt.Errorf("%s account cannot reference a project", r.Kind)
		}
	case AccountProject:
		if r.ProjectID == "" {
			return fmt.Errorf("project account requires a project id")
		}
	default:
		return fmt.Errorf("unknown account kind %q", r.Kind)
	}

	return nil
}

// Key returns a stable string identity for the reference. Used for sorting
// row locks so concurrent transactions always lock in the same order.
func (r AccountRef) Key() string {
	if r.Kind == AccountProject {
		return string(r.Kind) + ":" + r.ProjectID
	}

	return string(r.Kind)
}

func (r AccountRef) String() string {
	return r.Key()
}

// Account is one currency balance row of a cash account. Accounts are
// created lazily with a zero balance and never deleted. The balance is a
// cached total that must always reconcile to the sum of movements touching
// this (ref, currency) pair.
type Account struct {
	ID        string
	Ref       AccountRef
	Currency  Currency
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks whether the account can be debited by amount.
// No account in the ledger may ever hold a negative balance.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return fmt.Errorf("%w: %s has %s %s, need %s",
			ErrInsufficientFunds, a.Ref, a.Balance, a.Currency, amount)
	}

	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
