package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// AccountRepository defines data access for cash accounts. Accounts
// materialize lazily: the Get[OrCreate] calls insert a zero-balance row on
// first access.
type AccountRepository interface {
	// GetOrCreate returns the account row without locking it.
	GetOrCreate(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error)
	// GetOrCreateForUpdate returns the account row holding a FOR UPDATE
	// lock for the duration of tx.
	GetOrCreateForUpdate(ctx context.Context, tx Transaction, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error)
	// UpdateBalance writes a new cached balance, bumping the version.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	// ListByRef returns every currency row of one account.
	ListByRef(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error)
	// List returns all account rows.
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// MovementRepository defines data access for the append-only movement log.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	ListByAccount(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]*domain.Movement, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.Movement, error)
	// NetByAccount returns credits minus debits recorded against the
	// (account, currency) pair, the ground truth balances reconcile to.
	NetByAccount(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (decimal.Decimal, error)
}

// ConversionRepository defines data access for conversion records.
type ConversionRepository interface {
	Create(ctx context.Context, tx Transaction, conversion *domain.Conversion) error
	UpdateState(ctx context.Context, tx Transaction, id string, state domain.ConversionState) error
	GetByID(ctx context.Context, id string) (*domain.Conversion, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Conversion, error)
}

// FeeRepository defines data access for administrator fees.
type FeeRepository interface {
	Create(ctx context.Context, fee *domain.AdminFee) error
	GetByID(ctx context.Context, id string) (*domain.AdminFee, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.AdminFee, error)
	// GetByInstallment returns domain.ErrFeeNotFound when no fee exists
	// for the installment.
	GetByInstallment(ctx context.Context, installmentID string) (*domain.AdminFee, error)
	Update(ctx context.Context, tx Transaction, fee *domain.AdminFee) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error)
	// CreateIncomeRecord appends the reporting-side record written when a
	// fee is collected, within the same transaction.
	CreateIncomeRecord(ctx context.Context, tx Transaction, record *domain.IncomeRecord) error
}

// FeeOverride is a project-specific fee policy. Exempt means the project
// explicitly pays no fee, regardless of Percent.
type FeeOverride struct {
	Percent decimal.Decimal
	Exempt  bool
}

// SettingsRepository reads studio-wide tunables.
type SettingsRepository interface {
	// AdminFeePercent returns the studio-wide fee percentage.
	AdminFeePercent(ctx context.Context) (decimal.Decimal, error)
	// ProjectFeeOverride returns nil when the project has no override.
	ProjectFeeOverride(ctx context.Context, projectID string) (*FeeOverride, error)
}

// RateProvider serves live market quotes.
type RateProvider interface {
	GetRate(ctx context.Context, source domain.RateSource) (domain.RateQuote, error)
	GetAllRates(ctx context.Context) map[domain.RateSource]domain.RateQuote
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on retryable conflicts (deadlock,
// serialization failure).
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
