package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/plan"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrMovementNotFound),
		errors.Is(err, domain.ErrConversionNotFound),
		errors.Is(err, domain.ErrFeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFeeNotPending),
		errors.Is(err, domain.ErrDuplicateFee):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidMovementKind),
		errors.Is(err, domain.ErrExternalBothSides),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrSameCurrency),
		errors.Is(err, domain.ErrInvalidPercent),
		errors.Is(err, domain.ErrUnknownRateSource):
		return http.StatusBadRequest
	case errors.Is(err, plan.ErrInvalidCadence),
		errors.Is(err, plan.ErrInvalidCount),
		errors.Is(err, plan.ErrDownPaymentTooLarge),
		errors.Is(err, plan.ErrCustomAmountCount),
		errors.Is(err, plan.ErrCustomAmountSum),
		errors.Is(err, plan.ErrInvalidRatio):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
