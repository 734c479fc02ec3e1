package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// FeeService defines the behavior needed by FeeHandler.
type FeeService interface {
	CreateFee(ctx context.Context, input usecase.CreateFeeInput) (*domain.AdminFee, error)
	CollectFee(ctx context.Context, feeID string) (*domain.AdminFee, error)
	CancelFee(ctx context.Context, feeID, reason string) (*domain.AdminFee, error)
	GetFee(ctx context.Context, id string) (*domain.AdminFee, error)
	ListFeesByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error)
	ApplicableFeePercentage(ctx context.Context, projectID string) (decimal.Decimal, error)
}

// FeeHandler handles administrator fee HTTP requests.
type FeeHandler struct {
	feeUC FeeService
}

// NewFeeHandler creates a new FeeHandler.
func NewFeeHandler(feeUC FeeService) *FeeHandler {
	return &FeeHandler{feeUC: feeUC}
}

// Create records a pending fee for a project payment. A payment that
// yields no fee (exempt project, installment already charged) returns
// 204 rather than an error.
func (h *FeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fee, err := h.feeUC.CreateFee(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create fee", err.Error())
		return
	}

	if fee == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, dto.FeeFromDomain(fee))
}

// Collect moves a pending fee from the master account to the admin account.
func (h *FeeHandler) Collect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fee ID", "")
		return
	}

	fee, err := h.feeUC.CollectFee(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to collect fee", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeFromDomain(fee))
}

// Cancel cancels a pending fee without moving money.
func (h *FeeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fee ID", "")
		return
	}

	var req dto.CancelFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fee, err := h.feeUC.CancelFee(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel fee", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeFromDomain(fee))
}

// Get retrieves a fee by ID.
func (h *FeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fee ID", "")
		return
	}

	fee, err := h.feeUC.GetFee(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get fee", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeFromDomain(fee))
}

// ListByProject lists a project's fees.
func (h *FeeHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	fees, err := h.feeUC.ListFeesByProject(r.Context(), projectID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list fees", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeesFromDomain(fees))
}

// Percentage returns the fee percentage that applies to a project.
func (h *FeeHandler) Percentage(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project ID", "")
		return
	}

	percent, err := h.feeUC.ApplicableFeePercentage(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve fee percentage", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"percent": percent})
}
