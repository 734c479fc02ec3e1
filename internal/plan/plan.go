// Package plan computes installment schedules. It is pure: no clock, no
// storage, no side effects. A schedule only becomes money when a payment
// movement later realizes an installment.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// Cadence is the spacing between consecutive installments.
type Cadence string

const (
	Weekly    Cadence = "weekly"
	Biweekly  Cadence = "biweekly"
	Monthly   Cadence = "monthly"
	Quarterly Cadence = "quarterly"
)

var (
	ErrInvalidCadence      = errors.New("unknown cadence")
	ErrInvalidCount        = errors.New("installment count cannot be negative")
	ErrDownPaymentTooLarge = errors.New("down payment exceeds total")
	ErrCustomAmountCount   = errors.New("custom amounts must match installment count")
	ErrCustomAmountSum     = errors.New("custom amounts do not sum to the financed remainder")
	ErrInvalidRatio        = errors.New("progression ratio must be positive")
	ErrTotalMismatch       = errors.New("schedule does not sum to the expected total")
)

// centTolerance is the rounding slack allowed when comparing schedule
// totals.
var centTolerance = decimal.New(1, -2)

// Advance returns the due date i steps after start.
func (c Cadence) Advance(start time.Time, i int) (time.Time, error) {
	switch c {
	case Weekly:
		return start.AddDate(0, 0, 7*i), nil
	case Biweekly:
		return start.AddDate(0, 0, 14*i), nil
	case Monthly:
		return start.AddDate(0, i, 0), nil
	case Quarterly:
		return start.AddDate(0, 3*i, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCadence, c)
	}
}

// EqualInput describes an equal-installment plan request.
type EqualInput struct {
	Total       decimal.Decimal
	DownPayment decimal.Decimal
	Count       int
	Cadence     Cadence
	Start       time.Time
	Currency    domain.Currency
	// CustomAmounts, when set, replaces the equal split. It must contain
	// Count entries summing to Total - DownPayment.
	CustomAmounts []decimal.Decimal
}

// Equal builds a plan where the financed remainder is split into Count
// equal shares. The down payment, if any, becomes installment 0 at the
// start date. Count == 0 with DownPayment == Total yields a lump-sum
// schedule of just the down payment.
func Equal(in EqualInput) ([]domain.Installment, error) {
	if in.Count < 0 {
		return nil, ErrInvalidCount
	}

	remainder := in.Total.Sub(in.DownPayment)
	if remainder.IsNegative() {
		return nil, ErrDownPaymentTooLarge
	}

	schedule := downPaymentOnly(in.DownPayment, in.Start, in.Currency)

	if in.Count == 0 || remainder.LessThanOrEqual(decimal.Zero) {
		return schedule, nil
	}

	amounts := in.CustomAmounts
	if amounts != nil {
		if len(amounts) != in.Count {
			return nil, ErrCustomAmountCount
		}

		sum := decimal.Zero
		for _, a := range amounts {
			sum = sum.Add(a)
		}

		if sum.Sub(remainder).Abs().GreaterThan(centTolerance) {
			return nil, fmt.Errorf("%w: got %s, want %s", ErrCustomAmountSum, sum, remainder)
		}
	} else {
		amounts = splitEven(remainder, in.Count)
	}

	for i, amount := range amounts {
		due, err := in.Cadence.Advance(in.Start, i+1)
		if err != nil {
			return nil, err
		}

		schedule = append(schedule, domain.Installment{
			Number:      i + 1,
			Amount:      amount,
			DueDate:     due,
			Description: fmt.Sprintf("Cuota %d de %d", i+1, in.Count),
			Currency:    in.Currency,
		})
	}

	return schedule, nil
}

// Milestone stage breakdown for long-cycle construction projects:
// percentage of the total and day offset from the start date.
var milestoneStages = []struct {
	Percent int64
	Days    int
}{
	{20, 0},
	{15, 30},
	{20, 60},
	{15, 120},
	{15, 180},
	{15, 240},
}

// Milestone builds the fixed six-stage plan.
func Milestone(total decimal.Decimal, start time.Time, currency domain.Currency) []domain.Installment {
	hundred := decimal.NewFromInt(100)

	schedule := make([]domain.Installment, 0, len(milestoneStages))
	allocated := decimal.Zero

	for i, stage := range milestoneStages {
		amount := domain.RoundMoney(total.Mul(decimal.NewFromInt(stage.Percent)).Div(hundred))

		// Last stage absorbs rounding drift so the schedule sums exactly.
		if i == len(milestoneStages)-1 {
			amount = total.Sub(allocated)
		}

		allocated = allocated.Add(amount)

		schedule = append(schedule, domain.Installment{
			Number:      i + 1,
			Amount:      amount,
			DueDate:     start.AddDate(0, 0, stage.Days),
			Description: fmt.Sprintf("Etapa %d (%d%%)", i+1, stage.Percent),
			Currency:    currency,
		})
	}

	return schedule
}

// ProgressiveInput describes a geometrically progressive plan request.
type ProgressiveInput struct {
	Total       decimal.Decimal
	DownPayment decimal.Decimal
	Count       int
	// Ratio is the fixed growth factor between consecutive installments.
	Ratio    decimal.Decimal
	Cadence  Cadence
	Start    time.Time
	Currency domain.Currency
}

// Progressive builds a plan where each installment grows by Ratio over the
// previous one. The base amount is solved so the geometric series sums
// exactly to the financed remainder, so no manual rebalancing is needed.
func Progressive(in ProgressiveInput) ([]domain.Installment, error) {
	if in.Count < 0 {
		return nil, ErrInvalidCount
	}

	if in.Ratio.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidRatio
	}

	remainder := in.Total.Sub(in.DownPayment)
	if remainder.IsNegative() {
		return nil, ErrDownPaymentTooLarge
	}

	schedule := downPaymentOnly(in.DownPayment, in.Start, in.Currency)

	if in.Count == 0 || remainder.LessThanOrEqual(decimal.Zero) {
		return schedule, nil
	}

	// base = remainder / sum(ratio^i) for i in 0..count-1
	seriesSum := decimal.Zero
	power := decimal.NewFromInt(1)

	powers := make([]decimal.Decimal, in.Count)
	for i := 0; i < in.Count; i++ {
		powers[i] = power
		seriesSum = seriesSum.Add(power)
		power = power.Mul(in.Ratio)
	}

	base := remainder.Div(seriesSum)

	allocated := decimal.Zero
	for i := 0; i < in.Count; i++ {
		amount := domain.RoundMoney(base.Mul(powers[i]))
		if i == in.Count-1 {
			amount = remainder.Sub(allocated)
		}

		allocated = allocated.Add(amount)

		due, err := in.Cadence.Advance(in.Start, i+1)
		if err != nil {
			return nil, err
		}

		schedule = append(schedule, domain.Installment{
			Number:      i + 1,
			Amount:      amount,
			DueDate:     due,
			Description: fmt.Sprintf("Cuota progresiva %d de %d", i+1, in.Count),
			Currency:    in.Currency,
		})
	}

	return schedule, nil
}

// ValidateTotal checks that the schedule sums to the expected total within
// one cent. Every generated plan must satisfy this.
func ValidateTotal(schedule []domain.Installment, total decimal.Decimal) error {
	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
	}

	if sum.Sub(total).Abs().GreaterThan(centTolerance) {
		return fmt.Errorf("%w: schedule sums to %s, expected %s", ErrTotalMismatch, sum, total)
	}

	return nil
}

func downPaymentOnly(down decimal.Decimal, start time.Time, currency domain.Currency) []domain.Installment {
	if down.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	return []domain.Installment{{
		Number:      0,
		Amount:      down,
		DueDate:     start,
		Description: "Anticipo",
		Currency:    currency,
		DownPayment: true,
	}}
}

// splitEven divides amount into n shares rounded to the cent, with the
// last share absorbing the rounding drift.
func splitEven(amount decimal.Decimal, n int) []decimal.Decimal {
	share := domain.RoundMoney(amount.Div(decimal.NewFromInt(int64(n))))

	shares := make([]decimal.Decimal, n)
	allocated := decimal.Zero

	for i := 0; i < n; i++ {
		if i == n-1 {
			shares[i] = amount.Sub(allocated)
			break
		}

		shares[i] = share
		allocated = allocated.Add(share)
	}

	return shares
}
