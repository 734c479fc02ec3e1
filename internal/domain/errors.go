package domain

import "errors"

var (
	// Ledger errors
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidCurrency     = errors.New("unsupported currency")
	ErrMovementNotFound    = errors.New("movement not found")
	ErrInvalidMovementKind = errors.New("unknown movement kind")
	ErrExternalBothSides   = errors.New("movement needs a source or a destination account")
	ErrSameAccount         = errors.New("source and destination are the same account")

	// Conversion errors
	ErrSameCurrency       = errors.New("cannot convert a currency to itself")
	ErrConversionNotFound = errors.New("conversion not found")

	// Fee errors
	ErrFeeNotFound    = errors.New("fee not found")
	ErrFeeNotPending  = errors.New("fee is not pending")
	ErrDuplicateFee   = errors.New("a fee already exists for this installment")
	ErrInvalidPercent = errors.New("fee percentage must be between 0 and 100")

	// Rate errors
	ErrRateUnavailable   = errors.New("exchange rate unavailable")
	ErrUnknownRateSource = errors.New("unknown rate source")
)
