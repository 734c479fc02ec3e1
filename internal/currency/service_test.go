package currency_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/atelierhq/studioledger/internal/currency"
	"github.com/atelierhq/studioledger/internal/currency/mocks"
	"github.com/atelierhq/studioledger/internal/domain"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1.234,56"},
		{"1000000", "1.000.000,00"},
		{"0.5", "0,50"},
		{"-9876.1", "-9.876,10"},
		{"12", "12,00"},
		{"123", "123,00"},
	}

	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.in)
		if got := currency.FormatAmount(d); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestService_Format(t *testing.T) {
	svc := currency.NewService(nil)

	got := svc.Format(decimal.NewFromFloat(1234.5), domain.CurrencyUSD)
	if got != "US$ 1.234,50" {
		t.Errorf("Format = %q", got)
	}

	got = svc.Format(decimal.NewFromInt(15000), domain.CurrencyARS)
	if got != "$ 15.000,00" {
		t.Errorf("Format = %q", got)
	}
}

func TestService_Convert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateStore(ctrl)
	store.EXPECT().LatestQuote(gomock.Any(), domain.RateSourceBlue).Return(domain.RateQuote{
		Source: domain.RateSourceBlue,
		Buy:    decimal.NewFromInt(1000),
		Sell:   decimal.NewFromInt(1050),
		AsOf:   time.Now().UTC(),
	}, nil).Times(2)

	svc := currency.NewService(store)
	ctx := context.Background()

	ars, err := svc.Convert(ctx, decimal.NewFromInt(100), domain.CurrencyUSD, domain.CurrencyARS, domain.RateSourceBlue)
	if err != nil {
		t.Fatal(err)
	}

	if !ars.Equal(decimal.NewFromInt(105000)) {
		t.Errorf("USD->ARS = %s, want 105000", ars)
	}

	usd, err := svc.Convert(ctx, decimal.NewFromInt(100000), domain.CurrencyARS, domain.CurrencyUSD, domain.RateSourceBlue)
	if err != nil {
		t.Fatal(err)
	}

	if !usd.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ARS->USD = %s, want 100", usd)
	}
}

func TestService_ConvertSameCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No store call expected for the no-op path.
	store := mocks.NewMockRateStore(ctrl)

	svc := currency.NewService(store)

	amount := decimal.NewFromInt(42)
	got, err := svc.Convert(context.Background(), amount, domain.CurrencyARS, domain.CurrencyARS, domain.RateSourceBlue)
	if err != nil {
		t.Fatal(err)
	}

	if !got.Equal(amount) {
		t.Errorf("same-currency convert = %s, want %s", got, amount)
	}
}

func TestService_ConvertNoPersistedQuote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateStore(ctrl)
	store.EXPECT().LatestQuote(gomock.Any(), domain.RateSourceMEP).
		Return(domain.RateQuote{}, domain.ErrRateUnavailable)

	svc := currency.NewService(store)

	_, err := svc.Convert(context.Background(), decimal.NewFromInt(10), domain.CurrencyUSD, domain.CurrencyARS, domain.RateSourceMEP)
	if err == nil {
		t.Fatal("expected error when no quote persisted")
	}
}
