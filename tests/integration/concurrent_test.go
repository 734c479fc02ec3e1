package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// Concurrent expenses against the same account must serialize on the
// locked balance row: the total debited can never exceed the funds.
func TestConcurrentExpensesNeverOverdraw(t *testing.T) {
	app := newTestApp(t, fixedRateProvider{})
	ctx := context.Background()

	master := domain.MasterRef()
	app.db.SeedAccount(ctx, master, domain.CurrencyARS, mustDecimal(t, "1000"))

	const workers = 10
	amount := mustDecimal(t, "300")

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := app.ledger.RecordMovement(ctx, usecase.RecordMovementInput{
				Kind:        domain.MovementExpense,
				Source:      &master,
				Amount:      amount,
				Currency:    domain.CurrencyARS,
				Description: "Gasto concurrente",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}

		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	// 1000 / 300 leaves room for exactly three successful debits.
	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}

	balance, err := app.ledger.GetBalance(ctx, master, domain.CurrencyARS)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	expected := mustDecimal(t, "1000").Sub(amount.Mul(decimal.NewFromInt(int64(succeeded))))
	if !balance.Equal(expected) {
		t.Errorf("balance = %s, want %s", balance, expected)
	}

	mismatches, err := app.ledger.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("check consistency: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches after concurrent load, got %+v", mismatches)
	}
}

// Fee collection and conversion both lock the master row; running them
// together must not deadlock or double-spend.
func TestConcurrentFeeCollectionAndConversion(t *testing.T) {
	rates := fixedRateProvider{
		buy:  mustDecimal(t, "1000"),
		sell: mustDecimal(t, "1050"),
	}
	app := newTestApp(t, rates)
	ctx := context.Background()

	master := domain.MasterRef()
	app.db.SeedAccount(ctx, master, domain.CurrencyARS, mustDecimal(t, "500000"))

	fee, err := app.fee.CreateFee(ctx, usecase.CreateFeeInput{
		ProjectID:     "casa-moderna",
		PaymentAmount: mustDecimal(t, "100000"),
		Currency:      domain.CurrencyARS,
	})
	if err != nil || fee == nil {
		t.Fatalf("create fee: fee=%v err=%v", fee, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := app.fee.CollectFee(ctx, fee.ID); err != nil {
			t.Errorf("collect fee: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		_, err := app.conversion.Convert(ctx, usecase.ConvertInput{
			Amount:       mustDecimal(t, "100000"),
			FromCurrency: domain.CurrencyARS,
			ToCurrency:   domain.CurrencyUSD,
		})
		if err != nil {
			t.Errorf("convert: %v", err)
		}
	}()

	wg.Wait()

	mismatches, err := app.ledger.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("check consistency: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected consistent books, got %+v", mismatches)
	}

	// 500000 - 10000 fee - 100000 converted.
	balance, err := app.ledger.GetBalance(ctx, master, domain.CurrencyARS)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "390000")) {
		t.Errorf("master ARS balance = %s, want 390000", balance)
	}
}
