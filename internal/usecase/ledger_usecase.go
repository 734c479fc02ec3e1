package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/infrastructure/metrics"
)

// LedgerUseCase is the ledger store: the only component that mutates
// account balances and appends movements. Every mutation runs inside a
// single transaction with the touched account rows locked in sorted
// order, so a half-applied balance update is impossible.
type LedgerUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
	idGen        IDGenerator
	retrier      Retrier
	metrics      *metrics.Metrics
}

// NewLedgerUseCase creates a LedgerUseCase. m may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	idGen IDGenerator,
	retrier Retrier,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		idGen:        idGen,
		retrier:      retrier,
		metrics:      m,
	}
}

// RecordMovementInput describes one balance change to record.
type RecordMovementInput struct {
	Kind        domain.MovementKind
	Source      *domain.AccountRef
	Destination *domain.AccountRef
	Amount      decimal.Decimal
	Currency    domain.Currency
	// Rate is the exchange rate in effect; left zero it defaults to 1.
	Rate        decimal.Decimal
	Description string
	Links       domain.MovementLinks
}

// RecordMovement records a single movement in its own transaction,
// retrying on serialization conflicts.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input RecordMovementInput) (*domain.Movement, error) {
	var movement *domain.Movement

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		movements, err := uc.RecordBatchTx(ctx, tx, []RecordMovementInput{input})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		movement = movements[0]

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.observeMovements(movement)

	return movement, nil
}

// observeMovements records committed movements in the metrics, one
// sample per movement. Callers invoke it only after the transaction
// carrying the movements has committed.
func (uc *LedgerUseCase) observeMovements(movements ...*domain.Movement) {
	if uc.metrics == nil {
		return
	}

	for _, m := range movements {
		uc.metrics.MovementsRecorded.WithLabelValues(string(m.Kind)).Inc()
		amount, _ := m.Amount.Float64()
		uc.metrics.MovementAmount.WithLabelValues(string(m.Currency)).Observe(amount)
	}
}

// accountSlot identifies one balance row touched by a batch.
type accountSlot struct {
	ref      domain.AccountRef
	currency domain.Currency
}

func (s accountSlot) key() string {
	return s.ref.Key() + "|" + string(s.currency)
}

// RecordBatchTx records a set of movements inside the caller's
// transaction: it locks every touched (account, currency) row in sorted
// order, validates each debit against the running balance, appends the
// movements, and writes back the new cached balances. The caller owns
// commit and rollback, so engines composing several movements with their
// own writes (a fee update, a conversion record) stay atomic.
func (uc *LedgerUseCase) RecordBatchTx(ctx context.Context, tx Transaction, inputs []RecordMovementInput) ([]*domain.Movement, error) {
	now := time.Now().UTC()

	prepared := make([]*domain.Movement, 0, len(inputs))
	for _, input := range inputs {
		rate := input.Rate
		if rate.IsZero() {
			rate = decimal.NewFromInt(1)
		}

		m := &domain.Movement{
			ID:          uc.idGen.Generate(),
			Kind:        input.Kind,
			Source:      input.Source,
			Destination: input.Destination,
			Amount:      input.Amount,
			Currency:    input.Currency,
			Rate:        rate,
			Description: input.Description,
			Links:       input.Links,
			CreatedAt:   now,
		}

		if err := m.Validate(); err != nil {
			return nil, err
		}

		prepared = append(prepared, m)
	}

	// Lock rows in a globally consistent order (deadlock prevention).
	slots := collectSlots(prepared)
	sort.Slice(slots, func(i, j int) bool { return slots[i].key() < slots[j].key() })

	accounts := make(map[string]*domain.Account, len(slots))
	for _, slot := range slots {
		account, err := uc.accountRepo.GetOrCreateForUpdate(ctx, tx, slot.ref, slot.currency)
		if err != nil {
			return nil, err
		}

		accounts[slot.key()] = account
	}

	for _, m := range prepared {
		if m.Source != nil {
			account := accounts[accountSlot{*m.Source, m.Currency}.key()]
			if err := account.ValidateDebit(m.Amount); err != nil {
				return nil, err
			}

			account.Balance = account.ApplyDebit(m.Amount)
		}

		if m.Destination != nil {
			account := accounts[accountSlot{*m.Destination, m.Currency}.key()]
			account.Balance = account.ApplyCredit(m.Amount)
		}

		if err := uc.movementRepo.Create(ctx, tx, m); err != nil {
			return nil, err
		}
	}

	for _, slot := range slots {
		account := accounts[slot.key()]
		account.Version++

		err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.Balance, account.Version, now)
		if err != nil {
			return nil, err
		}
	}

	return prepared, nil
}

// GetOrCreateAccount materializes the account row on first access.
func (uc *LedgerUseCase) GetOrCreateAccount(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	if !currency.IsValid() {
		return nil, domain.ErrInvalidCurrency
	}

	return uc.accountRepo.GetOrCreate(ctx, ref, currency)
}

// GetBalance returns the cached balance of one (account, currency) pair.
// A missing account reads as zero rather than erroring.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (decimal.Decimal, error) {
	account, err := uc.GetOrCreateAccount(ctx, ref, currency)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// GetBalances returns every currency balance of one account.
func (uc *LedgerUseCase) GetBalances(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	return uc.accountRepo.ListByRef(ctx, ref)
}

// ListAccounts returns all account balance rows.
func (uc *LedgerUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = clampPage(limit, offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

// GetMovement retrieves a movement by ID.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// ListMovementsInput represents input for listing movements.
type ListMovementsInput struct {
	Ref    *domain.AccountRef
	Limit  int
	Offset int
}

// ListMovements lists recent movements, optionally scoped to one account.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, input ListMovementsInput) ([]*domain.Movement, error) {
	limit, offset := clampPage(input.Limit, input.Offset)

	if input.Ref != nil {
		if err := input.Ref.Validate(); err != nil {
			return nil, err
		}

		return uc.movementRepo.ListByAccount(ctx, *input.Ref, limit, offset)
	}

	return uc.movementRepo.ListRecent(ctx, limit, offset)
}

// ConsistencyMismatch reports one account whose cached balance does not
// equal the net of its movements.
type ConsistencyMismatch struct {
	Ref      domain.AccountRef
	Currency domain.Currency
	Cached   decimal.Decimal
	Derived  decimal.Decimal
}

// CheckConsistency verifies that every cached balance reconciles to the
// sum of credits minus debits over the movement log.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) ([]ConsistencyMismatch, error) {
	accounts, err := uc.accountRepo.List(ctx, maxPageSize*10, 0)
	if err != nil {
		return nil, err
	}

	var mismatches []ConsistencyMismatch
	for _, account := range accounts {
		derived, err := uc.movementRepo.NetByAccount(ctx, account.Ref, account.Currency)
		if err != nil {
			return nil, err
		}

		if !account.Balance.Equal(derived) {
			mismatches = append(mismatches, ConsistencyMismatch{
				Ref:      account.Ref,
				Currency: account.Currency,
				Cached:   account.Balance,
				Derived:  derived,
			})
		}
	}

	return mismatches, nil
}

func collectSlots(movements []*domain.Movement) []accountSlot {
	seen := make(map[string]bool)

	var slots []accountSlot
	add := func(ref *domain.AccountRef, currency domain.Currency) {
		if ref == nil {
			return
		}

		slot := accountSlot{*ref, currency}
		if !seen[slot.key()] {
			seen[slot.key()] = true
			slots = append(slots, slot)
		}
	}

	for _, m := range movements {
		add(m.Source, m.Currency)
		add(m.Destination, m.Currency)
	}

	return slots
}
