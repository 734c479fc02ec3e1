// Package currency is the thin currency-math utility: formatting, symbol
// lookup, and conversion against the latest persisted quote. Live quoting
// with cache and fallback lives in the rates package.
package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// RateStore reads the most recently persisted quote for a source.
type RateStore interface {
	LatestQuote(ctx context.Context, source domain.RateSource) (domain.RateQuote, error)
}

// Service provides currency math over persisted rates.
type Service struct {
	store RateStore
}

// NewService creates a currency Service.
func NewService(store RateStore) *Service {
	return &Service{store: store}
}

// Symbol returns the display symbol for a currency.
func (s *Service) Symbol(c domain.Currency) string {
	return c.Symbol()
}

// Name returns the human-readable name for a currency.
func (s *Service) Name(c domain.Currency) string {
	return c.Name()
}

// Format renders an amount with its currency symbol using the studio's
// es-AR convention: dot for thousands, comma for decimals.
func (s *Service) Format(amount decimal.Decimal, c domain.Currency) string {
	return c.Symbol() + " " + FormatAmount(amount)
}

// Convert converts between the two supported currencies using the latest
// persisted quote for the given source. Same-currency requests are a
// no-op, not an error, since this is a math helper rather than a ledger
// operation.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, source domain.RateSource) (decimal.Decimal, error) {
	if !from.IsValid() || !to.IsValid() {
		return decimal.Zero, domain.ErrInvalidCurrency
	}

	if from == to {
		return amount, nil
	}

	quote, err := s.store.LatestQuote(ctx, source)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: no persisted quote for %s", domain.ErrRateUnavailable, source)
	}

	rate, err := quote.RateFor(from, to)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.RoundMoney(amount.Mul(rate)), nil
}

// FormatAmount renders a decimal with 2 decimals, dot thousands
// separators and a comma decimal mark.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, decPart := parts[0], parts[1]

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}

	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}

		b.WriteRune(digit)
	}

	b.WriteByte(',')
	b.WriteString(decPart)

	return b.String()
}
