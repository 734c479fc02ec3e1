package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource identifies a market-rate quote series for the USD/ARS pair.
type RateSource string

const (
	RateSourceBlue    RateSource = "blue"
	RateSourceOficial RateSource = "oficial"
	RateSourceMEP     RateSource = "mep"
	RateSourceCCL     RateSource = "ccl"
)

// KnownRateSources lists every quote series the provider fetches.
var KnownRateSources = []RateSource{
	RateSourceBlue,
	RateSourceOficial,
	RateSourceMEP,
	RateSourceCCL,
}

var validRateSources = map[RateSource]bool{
	RateSourceBlue:    true,
	RateSourceOficial: true,
	RateSourceMEP:     true,
	RateSourceCCL:     true,
}

// IsValid reports whether the source tag is known.
func (s RateSource) IsValid() bool {
	return validRateSources[s]
}

// RateQuote is a buy/sell quote for USD against ARS from one source.
// Buy is what the market pays for a dollar, Sell is what it charges for
// one; the spread is real and the two must never be swapped.
type RateQuote struct {
	Source RateSource
	Buy    decimal.Decimal
	Sell   decimal.Decimal
	AsOf   time.Time
}

// USDToARS converts a USD amount to ARS using the sell rate.
func (q RateQuote) USDToARS(amount decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(q.Sell))
}

// ARSToUSD converts an ARS amount to USD using the buy rate.
func (q RateQuote) ARSToUSD(amount decimal.Decimal) decimal.Decimal {
	if q.Buy.IsZero() {
		return decimal.Zero
	}

	return RoundMoney(amount.Div(q.Buy))
}

// RateFor returns the multiplier a conversion between the two currencies
// must carry, such that toAmount = fromAmount * rate. USD->ARS applies the
// sell rate; ARS->USD applies the inverse of the buy rate.
func (q RateQuote) RateFor(from, to Currency) (decimal.Decimal, error) {
	switch {
	case from == CurrencyUSD && to == CurrencyARS:
		return q.Sell, nil
	case from == CurrencyARS && to == CurrencyUSD:
		if q.Buy.IsZero() {
			return decimal.Zero, ErrRateUnavailable
		}

		return decimal.NewFromInt(1).Div(q.Buy), nil
	default:
		return decimal.Zero, ErrSameCurrency
	}
}
