package handler

import (
	"encoding/json"
	"net/http"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/plan"
)

// PlanHandler builds installment plan previews. Plans are pure
// calculations; nothing is persisted.
type PlanHandler struct{}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// Preview generates an installment schedule for the requested policy.
func (h *PlanHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var (
		schedule []domain.Installment
		err      error
	)

	switch req.Policy {
	case "equal", "":
		schedule, err = plan.Equal(req.ToEqualInput())
	case "milestone":
		schedule = plan.Milestone(req.Total, req.Start, domain.Currency(req.Currency))
	case "progressive":
		schedule, err = plan.Progressive(req.ToProgressiveInput())
	default:
		writeError(w, http.StatusBadRequest, "unknown plan policy", req.Policy)
		return
	}

	if err != nil {
		writeError(w, mapDomainError(err), "failed to build plan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PlanFromDomain(schedule))
}
