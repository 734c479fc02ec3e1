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

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	RecordMovement(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error)
	GetBalances(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)
	ListMovements(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error)
	CheckConsistency(ctx context.Context) ([]usecase.ConsistencyMismatch, error)
}

// LedgerHandler handles account and movement HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// RecordMovement records a single movement.
func (h *LedgerHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := h.ledgerUC.RecordMovement(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record movement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// ListAccounts lists all account balance rows.
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.ledgerUC.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// GetBalances returns every currency balance of one account. The account
// is addressed by kind in the path, with project accounts taking the
// project ID from a query parameter.
func (h *LedgerHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	ref := domain.AccountRef{
		Kind:      domain.AccountKind(chi.URLParam(r, "kind")),
		ProjectID: r.URL.Query().Get("project_id"),
	}

	if err := ref.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account reference", err.Error())
		return
	}

	accounts, err := h.ledgerUC.GetBalances(r.Context(), ref)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balances", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// GetMovement retrieves a movement by ID.
func (h *LedgerHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	movement, err := h.ledgerUC.GetMovement(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get movement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// ListMovements lists recent movements, optionally filtered to one account
// via kind and project_id query parameters.
func (h *LedgerHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListMovementsInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		input.Ref = &domain.AccountRef{
			Kind:      domain.AccountKind(kind),
			ProjectID: r.URL.Query().Get("project_id"),
		}
	}

	movements, err := h.ledgerUC.ListMovements(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements: dto.MovementsFromDomain(movements),
		Total:     int64(len(movements)),
	})
}

// CheckConsistency reconciles every cached balance against the movement log.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromDomain(mismatches))
}
