package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/adapter/http/dto"
	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

type ledgerServiceStub struct {
	recordFn       func(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error)
	balancesFn     func(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error)
	listAccountsFn func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	getMovementFn  func(ctx context.Context, id string) (*domain.Movement, error)
	listFn         func(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error)
	consistencyFn  func(ctx context.Context) ([]usecase.ConsistencyMismatch, error)
}

func (s *ledgerServiceStub) RecordMovement(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error) {
	return s.recordFn(ctx, input)
}

func (s *ledgerServiceStub) GetBalances(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
	return s.balancesFn(ctx, ref)
}

func (s *ledgerServiceStub) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return s.listAccountsFn(ctx, limit, offset)
}

func (s *ledgerServiceStub) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return s.getMovementFn(ctx, id)
}

func (s *ledgerServiceStub) ListMovements(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error) {
	return s.listFn(ctx, input)
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) ([]usecase.ConsistencyMismatch, error) {
	return s.consistencyFn(ctx)
}

func TestLedgerHandler_RecordMovement_Success(t *testing.T) {
	movement := &domain.Movement{
		ID:          "mov-1",
		Kind:        domain.MovementProjectIncome,
		Destination: &domain.AccountRef{Kind: domain.AccountProject, ProjectID: "prj-1"},
		Amount:      decimal.NewFromInt(150000),
		Currency:    domain.CurrencyARS,
		Rate:        decimal.NewFromInt(1),
	}

	var captured usecase.RecordMovementInput
	handler := NewLedgerHandler(&ledgerServiceStub{
		recordFn: func(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error) {
			captured = input
			return movement, nil
		},
	})

	body, _ := json.Marshal(dto.RecordMovementRequest{
		Kind:        "project_income",
		Destination: &dto.AccountRefRequest{Kind: "project", ProjectID: "prj-1"},
		Amount:      decimal.NewFromInt(150000),
		Currency:    "ARS",
	})

	req := httptest.NewRequest(http.MethodPost, "/movements", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.RecordMovement(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Kind != domain.MovementProjectIncome {
		t.Errorf("expected kind project_income, got %s", captured.Kind)
	}

	if captured.Destination == nil || captured.Destination.ProjectID != "prj-1" {
		t.Errorf("expected destination project prj-1, got %+v", captured.Destination)
	}

	var resp dto.MovementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.ID != "mov-1" {
		t.Errorf("expected movement ID mov-1, got %s", resp.ID)
	}
}

func TestLedgerHandler_RecordMovement_InvalidBody(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/movements", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.RecordMovement(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestLedgerHandler_RecordMovement_InsufficientFunds(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{
		recordFn: func(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error) {
			return nil, domain.ErrInsufficientFunds
		},
	})

	body, _ := json.Marshal(dto.RecordMovementRequest{
		Kind:     "expense",
		Source:   &dto.AccountRefRequest{Kind: "master"},
		Amount:   decimal.NewFromInt(999999),
		Currency: "ARS",
	})

	req := httptest.NewRequest(http.MethodPost, "/movements", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.RecordMovement(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestLedgerHandler_GetBalances(t *testing.T) {
	accounts := []*domain.Account{
		{ID: "acc-1", Ref: domain.MasterRef(), Currency: domain.CurrencyARS, Balance: decimal.NewFromInt(500000)},
		{ID: "acc-2", Ref: domain.MasterRef(), Currency: domain.CurrencyUSD, Balance: decimal.NewFromInt(1200)},
	}

	var captured domain.AccountRef
	handler := NewLedgerHandler(&ledgerServiceStub{
		balancesFn: func(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
			captured = ref
			return accounts, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/master/balances", nil)
	req = withURLParam(req, "kind", "master")
	rec := httptest.NewRecorder()
	handler.GetBalances(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Kind != domain.AccountMaster {
		t.Errorf("expected master ref, got %s", captured.Kind)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("expected 2 accounts, got %d", resp.Total)
	}
}

func TestLedgerHandler_GetBalances_ProjectFromQuery(t *testing.T) {
	var captured domain.AccountRef
	handler := NewLedgerHandler(&ledgerServiceStub{
		balancesFn: func(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
			captured = ref
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/project/balances?project_id=prj-7", nil)
	req = withURLParam(req, "kind", "project")
	rec := httptest.NewRecorder()
	handler.GetBalances(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if captured.ProjectID != "prj-7" {
		t.Errorf("expected project_id prj-7, got %s", captured.ProjectID)
	}
}

func TestLedgerHandler_GetBalances_InvalidRef(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{})

	// project accounts require a project_id
	req := httptest.NewRequest(http.MethodGet, "/accounts/project/balances", nil)
	req = withURLParam(req, "kind", "project")
	rec := httptest.NewRecorder()
	handler.GetBalances(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestLedgerHandler_GetMovement_NotFound(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{
		getMovementFn: func(ctx context.Context, id string) (*domain.Movement, error) {
			return nil, domain.ErrMovementNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/movements/nope", nil)
	req = withURLParam(req, "id", "nope")
	rec := httptest.NewRecorder()
	handler.GetMovement(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestLedgerHandler_ListMovements_Filtered(t *testing.T) {
	var captured usecase.ListMovementsInput
	handler := NewLedgerHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error) {
			captured = input
			return []*domain.Movement{
				{ID: "mov-1", Kind: domain.MovementExpense, Amount: decimal.NewFromInt(100), Currency: domain.CurrencyARS, Rate: decimal.NewFromInt(1)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/movements?kind=project&project_id=prj-1&limit=5", nil)
	rec := httptest.NewRecorder()
	handler.ListMovements(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.Ref == nil || captured.Ref.ProjectID != "prj-1" {
		t.Errorf("expected filter on project prj-1, got %+v", captured.Ref)
	}

	if captured.Limit != 5 {
		t.Errorf("expected limit 5, got %d", captured.Limit)
	}

	var resp dto.ListMovementsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Total != 1 {
		t.Errorf("expected 1 movement, got %d", resp.Total)
	}
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		mismatches []usecase.ConsistencyMismatch
		consistent bool
	}{
		{
			name:       "clean ledger",
			mismatches: nil,
			consistent: true,
		},
		{
			name: "drifted balance",
			mismatches: []usecase.ConsistencyMismatch{
				{
					Ref:      domain.AdminRef(),
					Currency: domain.CurrencyARS,
					Cached:   decimal.NewFromInt(100),
					Derived:  decimal.NewFromInt(99),
				},
			},
			consistent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLedgerHandler(&ledgerServiceStub{
				consistencyFn: func(ctx context.Context) ([]usecase.ConsistencyMismatch, error) {
					return tt.mismatches, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, "/consistency", nil)
			rec := httptest.NewRecorder()
			handler.CheckConsistency(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}

			var resp dto.ConsistencyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if resp.Consistent != tt.consistent {
				t.Errorf("expected consistent=%v, got %v", tt.consistent, resp.Consistent)
			}

			if len(resp.Mismatches) != len(tt.mismatches) {
				t.Errorf("expected %d mismatches, got %d", len(tt.mismatches), len(resp.Mismatches))
			}
		})
	}
}
