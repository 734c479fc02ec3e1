package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// ConversionService defines the behavior needed by ConversionHandler.
type ConversionService interface {
	Convert(ctx context.Context, input usecase.ConvertInput) (*domain.Conversion, error)
	GetConversion(ctx context.Context, id string) (*domain.Conversion, error)
	ListConversions(ctx context.Context, limit, offset int) ([]*domain.Conversion, error)
}

// ConversionHandler handles currency conversion HTTP requests.
type ConversionHandler struct {
	conversionUC ConversionService
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversionUC ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionUC: conversionUC}
}

// Create executes a currency conversion inside the master account.
func (h *ConversionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	conversion, err := h.conversionUC.Convert(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "conversion failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ConversionFromDomain(conversion))
}

// Get retrieves a conversion by ID.
func (h *ConversionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing conversion ID", "")
		return
	}

	conversion, err := h.conversionUC.GetConversion(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get conversion", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversionFromDomain(conversion))
}

// List lists conversions, most recent first.
func (h *ConversionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	conversions, err := h.conversionUC.ListConversions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversionsFromDomain(conversions))
}
