package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one of the two currencies the ledger supports.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

var supportedCurrencies = map[Currency]bool{
	CurrencyARS: true,
	CurrencyUSD: true,
}

type currencyInfo struct {
	Symbol string
	Name   string
}

var currencyDetails = map[Currency]currencyInfo{
	CurrencyARS: {Symbol: "$", Name: "Peso Argentino"},
	CurrencyUSD: {Symbol: "US$", Name: "Dólar Estadounidense"},
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !supportedCurrencies[c] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}

	return c, nil
}

// IsValid reports whether the currency is supported by the ledger.
func (c Currency) IsValid() bool {
	return supportedCurrencies[c]
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	return currencyDetails[c].Symbol
}

// Name returns the human-readable currency name.
func (c Currency) Name() string {
	return currencyDetails[c].Name
}

func (c Currency) String() string {
	return string(c)
}

// RoundMoney rounds an amount to 2 decimal places, the precision every
// balance and movement is stored with.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
