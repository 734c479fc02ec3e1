package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountRef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ref     AccountRef
		wantErr bool
	}{
		{"master", MasterRef(), false},
		{"admin", AdminRef(), false},
		{"project with id", ProjectRef("prj-1"), false},
		{"project without id", AccountRef{Kind: AccountProject}, true},
		{"master with project id", AccountRef{Kind: AccountMaster, ProjectID: "prj-1"}, true},
		{"unknown kind", AccountRef{Kind: "vault"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountRef_Key(t *testing.T) {
	if got := MasterRef().Key(); got != "master" {
		t.Errorf("master key = %q", got)
	}

	if got := ProjectRef("prj-9").Key(); got != "project:prj-9" {
		t.Errorf("project key = %q", got)
	}
}

func TestAccount_ValidateDebit(t *testing.T) {
	acc := &Account{
		Ref:      MasterRef(),
		Currency: CurrencyARS,
		Balance:  decimal.NewFromInt(100),
	}

	if err := acc.ValidateDebit(decimal.NewFromInt(100)); err != nil {
		t.Errorf("debit to exactly zero should pass, got %v", err)
	}

	err := acc.ValidateDebit(decimal.NewFromInt(101))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestAccount_ApplyDebitCredit(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(50)}

	if got := acc.ApplyDebit(decimal.NewFromInt(20)); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("ApplyDebit = %s, want 30", got)
	}

	if got := acc.ApplyCredit(decimal.NewFromInt(20)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("ApplyCredit = %s, want 70", got)
	}
}
