// Package mocks provides hand-written in-memory fakes for the usecase
// interfaces. Each method can be overridden per test via its Func field;
// without an override the fake behaves like a tiny in-memory store.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	nextID   int

	GetOrCreateFunc          func(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error)
	GetOrCreateForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error)
	UpdateBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

// Seed installs an account with a starting balance.
func (m *MockAccountRepository) Seed(ref domain.AccountRef, currency domain.Currency, balance decimal.Decimal) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getOrCreateLocked(ref, currency, balance)
}

func (m *MockAccountRepository) getOrCreateLocked(ref domain.AccountRef, currency domain.Currency, balance decimal.Decimal) *domain.Account {
	key := ref.Key() + "|" + string(currency)
	if acc, ok := m.accounts[key]; ok {
		return acc
	}

	m.nextID++
	acc := &domain.Account{
		ID:       fmt.Sprintf("acc-%d", m.nextID),
		Ref:      ref,
		Currency: currency,
		Balance:  balance,
	}
	m.accounts[key] = acc

	return acc
}

func (m *MockAccountRepository) GetOrCreate(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, ref, currency)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.getOrCreateLocked(ref, currency, decimal.Zero)
	copied := *acc

	return &copied, nil
}

func (m *MockAccountRepository) GetOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error) {
	if m.GetOrCreateForUpdateFunc != nil {
		return m.GetOrCreateForUpdateFunc(ctx, tx, ref, currency)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.getOrCreateLocked(ref, currency, decimal.Zero)
	copied := *acc

	return &copied, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, version, updatedAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.ID == id {
			acc.Balance = balance
			acc.Version = version
			acc.UpdatedAt = updatedAt

			return nil
		}
	}

	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ListByRef(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Account
	for _, acc := range m.accounts {
		if acc.Ref == ref {
			copied := *acc
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Account
	for _, acc := range m.accounts {
		copied := *acc
		out = append(out, &copied)
	}

	return out, nil
}

// Balance reads the stored balance for assertions.
func (m *MockAccountRepository) Balance(ref domain.AccountRef, currency domain.Currency) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if acc, ok := m.accounts[ref.Key()+"|"+string(currency)]; ok {
		return acc.Balance
	}

	return decimal.Zero
}

// MockMovementRepository is an in-memory MovementRepository.
type MockMovementRepository struct {
	mu        sync.RWMutex
	movements []*domain.Movement

	CreateFunc func(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error
}

func NewMockMovementRepository() *MockMovementRepository {
	return &MockMovementRepository{}
}

func (m *MockMovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, movement)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, movement)

	return nil
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mv := range m.movements {
		if mv.ID == id {
			return mv, nil
		}
	}

	return nil, domain.ErrMovementNotFound
}

func (m *MockMovementRepository) ListByAccount(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Movement
	for _, mv := range m.movements {
		if (mv.Source != nil && *mv.Source == ref) || (mv.Destination != nil && *mv.Destination == ref) {
			out = append(out, mv)
		}
	}

	return out, nil
}

func (m *MockMovementRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*domain.Movement(nil), m.movements...), nil
}

func (m *MockMovementRepository) NetByAccount(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	net := decimal.Zero
	for _, mv := range m.movements {
		if mv.Currency != currency {
			continue
		}

		if mv.Destination != nil && *mv.Destination == ref {
			net = net.Add(mv.Amount)
		}

		if mv.Source != nil && *mv.Source == ref {
			net = net.Sub(mv.Amount)
		}
	}

	return net, nil
}

// All returns every recorded movement.
func (m *MockMovementRepository) All() []*domain.Movement {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*domain.Movement(nil), m.movements...)
}

// MockConversionRepository is an in-memory ConversionRepository.
type MockConversionRepository struct {
	mu          sync.RWMutex
	conversions map[string]*domain.Conversion

	CreateFunc func(ctx context.Context, tx usecase.Transaction, conversion *domain.Conversion) error
}

func NewMockConversionRepository() *MockConversionRepository {
	return &MockConversionRepository{conversions: make(map[string]*domain.Conversion)}
}

func (m *MockConversionRepository) Create(ctx context.Context, tx usecase.Transaction, conversion *domain.Conversion) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, conversion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *conversion
	m.conversions[conversion.ID] = &copied

	return nil
}

func (m *MockConversionRepository) UpdateState(ctx context.Context, tx usecase.Transaction, id string, state domain.ConversionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversions[id]
	if !ok {
		return domain.ErrConversionNotFound
	}

	conv.State = state

	return nil
}

func (m *MockConversionRepository) GetByID(ctx context.Context, id string) (*domain.Conversion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if conv, ok := m.conversions[id]; ok {
		return conv, nil
	}

	return nil, domain.ErrConversionNotFound
}

func (m *MockConversionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Conversion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Conversion
	for _, conv := range m.conversions {
		out = append(out, conv)
	}

	return out, nil
}

// MockFeeRepository is an in-memory FeeRepository.
type MockFeeRepository struct {
	mu      sync.RWMutex
	fees    map[string]*domain.AdminFee
	records []*domain.IncomeRecord

	CreateFunc             func(ctx context.Context, fee *domain.AdminFee) error
	CreateIncomeRecordFunc func(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error
}

func NewMockFeeRepository() *MockFeeRepository {
	return &MockFeeRepository{fees: make(map[string]*domain.AdminFee)}
}

func (m *MockFeeRepository) Create(ctx context.Context, fee *domain.AdminFee) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, fee)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *fee
	m.fees[fee.ID] = &copied

	return nil
}

func (m *MockFeeRepository) GetByID(ctx context.Context, id string) (*domain.AdminFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if fee, ok := m.fees[id]; ok {
		copied := *fee

		return &copied, nil
	}

	return nil, domain.ErrFeeNotFound
}

func (m *MockFeeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AdminFee, error) {
	return m.GetByID(ctx, id)
}

func (m *MockFeeRepository) GetByInstallment(ctx context.Context, installmentID string) (*domain.AdminFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, fee := range m.fees {
		if fee.InstallmentID == installmentID {
			copied := *fee

			return &copied, nil
		}
	}

	return nil, domain.ErrFeeNotFound
}

func (m *MockFeeRepository) Update(ctx context.Context, tx usecase.Transaction, fee *domain.AdminFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.fees[fee.ID]; !ok {
		return domain.ErrFeeNotFound
	}

	copied := *fee
	m.fees[fee.ID] = &copied

	return nil
}

func (m *MockFeeRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.AdminFee
	for _, fee := range m.fees {
		if fee.ProjectID == projectID {
			copied := *fee
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (m *MockFeeRepository) CreateIncomeRecord(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	if m.CreateIncomeRecordFunc != nil {
		return m.CreateIncomeRecordFunc(ctx, tx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)

	return nil
}

// IncomeRecords returns the appended reporting records.
func (m *MockFeeRepository) IncomeRecords() []*domain.IncomeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*domain.IncomeRecord(nil), m.records...)
}

// Count reports how many fees exist.
func (m *MockFeeRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.fees)
}

// MockSettingsRepository is a configurable SettingsRepository.
type MockSettingsRepository struct {
	GlobalPercent decimal.Decimal
	Overrides     map[string]*usecase.FeeOverride
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{Overrides: make(map[string]*usecase.FeeOverride)}
}

func (m *MockSettingsRepository) AdminFeePercent(ctx context.Context) (decimal.Decimal, error) {
	return m.GlobalPercent, nil
}

func (m *MockSettingsRepository) ProjectFeeOverride(ctx context.Context, projectID string) (*usecase.FeeOverride, error) {
	return m.Overrides[projectID], nil
}

// MockRateProvider returns canned quotes.
type MockRateProvider struct {
	Quotes map[domain.RateSource]domain.RateQuote
	Err    error
}

func NewMockRateProvider() *MockRateProvider {
	return &MockRateProvider{Quotes: make(map[domain.RateSource]domain.RateQuote)}
}

func (m *MockRateProvider) GetRate(ctx context.Context, source domain.RateSource) (domain.RateQuote, error) {
	if m.Err != nil {
		return domain.RateQuote{}, m.Err
	}

	if quote, ok := m.Quotes[source]; ok {
		return quote, nil
	}

	return domain.RateQuote{}, domain.ErrRateUnavailable
}

func (m *MockRateProvider) GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote {
	return m.Quotes
}

// MockTransaction is a no-op transaction recording its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true

	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}

	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu   sync.Mutex
	Txs  []*MockTransaction
	Fail error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &MockTransaction{}
	m.Txs = append(m.Txs, tx)

	return tx, nil
}

// MockIDGenerator yields sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++

	return fmt.Sprintf("id-%d", m.next)
}

// MockRetrier runs the operation once, no backoff.
type MockRetrier struct{}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}
