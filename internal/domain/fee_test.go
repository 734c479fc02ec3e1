package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFeeAmount(t *testing.T) {
	tests := []struct {
		payment string
		percent string
		want    string
	}{
		{"100000", "15", "15000"},
		{"1000", "7.5", "75"},
		{"333.33", "10", "33.33"},
		{"100", "0", "0"},
	}

	for _, tt := range tests {
		payment, _ := decimal.NewFromString(tt.payment)
		percent, _ := decimal.NewFromString(tt.percent)
		want, _ := decimal.NewFromString(tt.want)

		if got := FeeAmount(payment, percent); !got.Equal(want) {
			t.Errorf("FeeAmount(%s, %s%%) = %s, want %s", tt.payment, tt.percent, got, want)
		}
	}
}

func TestAdminFee_MarkCollected(t *testing.T) {
	now := time.Now().UTC()

	fee := &AdminFee{
		ID:       "fee-1",
		Status:   FeePending,
		Amount:   decimal.NewFromInt(15000),
		Currency: CurrencyARS,
	}

	if err := fee.MarkCollected(fee.Amount, now); err != nil {
		t.Fatalf("collect pending fee: %v", err)
	}

	if fee.Status != FeeCollected {
		t.Errorf("status = %s, want collected", fee.Status)
	}

	if fee.CollectedAt == nil || !fee.CollectedAt.Equal(now) {
		t.Error("collected timestamp not set")
	}

	// Terminal: collecting again must fail.
	if err := fee.MarkCollected(fee.Amount, now); !errors.Is(err, ErrFeeNotPending) {
		t.Errorf("expected ErrFeeNotPending, got %v", err)
	}
}

func TestAdminFee_MarkCancelled(t *testing.T) {
	now := time.Now().UTC()

	fee := &AdminFee{ID: "fee-2", Status: FeePending}
	if err := fee.MarkCancelled("project dropped", now); err != nil {
		t.Fatalf("cancel pending fee: %v", err)
	}

	if fee.Status != FeeCancelled || fee.CancelReason != "project dropped" {
		t.Errorf("unexpected fee state: %+v", fee)
	}

	collected := &AdminFee{Status: FeeCollected}
	if err := collected.MarkCancelled("", now); !errors.Is(err, ErrFeeNotPending) {
		t.Errorf("cancelling a collected fee must fail, got %v", err)
	}
}

func TestAdminFee_Validate(t *testing.T) {
	fee := &AdminFee{
		Percent:  decimal.NewFromInt(150),
		Amount:   decimal.NewFromInt(10),
		Currency: CurrencyARS,
	}

	if err := fee.Validate(); !errors.Is(err, ErrInvalidPercent) {
		t.Errorf("expected ErrInvalidPercent, got %v", err)
	}
}
