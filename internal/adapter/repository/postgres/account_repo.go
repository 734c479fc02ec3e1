package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository. Account rows
// materialize lazily on first access, one row per (kind, project, currency).
type AccountRepository struct {
	pool  *pgxpool.Pool
	idGen usecase.IDGenerator
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool, idGen usecase.IDGenerator) *AccountRepository {
	return &AccountRepository{
		pool:  pool,
		idGen: idGen,
	}
}

const accountColumns = `id, kind, project_id, currency, balance, version, created_at, updated_at`

const insertAccountIfAbsent = `
INSERT INTO accounts (id, kind, project_id, currency, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, 1, $5, $5)
ON CONFLICT (kind, project_id, currency) DO NOTHING`

// GetOrCreate returns the account row without locking it, inserting a
// zero-balance row on first access.
func (r *AccountRepository) GetOrCreate(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error) {
	now := time.Now().UTC()

	_, err := r.pool.Exec(ctx, insertAccountIfAbsent,
		r.idGen.Generate(), string(ref.Kind), ref.ProjectID, string(currency), timeToPgTimestamptz(now))
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE kind = $1 AND project_id = $2 AND currency = $3`,
		string(ref.Kind), ref.ProjectID, string(currency))

	return scanAccount(row)
}

// GetOrCreateForUpdate returns the account row holding a FOR UPDATE lock
// for the duration of tx. Callers must lock accounts in sorted key order.
func (r *AccountRepository) GetOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, ref domain.AccountRef, currency domain.Currency) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	now := time.Now().UTC()

	_, err := pgxTx.Exec(ctx, insertAccountIfAbsent,
		r.idGen.Generate(), string(ref.Kind), ref.ProjectID, string(currency), timeToPgTimestamptz(now))
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE kind = $1 AND project_id = $2 AND currency = $3
FOR UPDATE`,
		string(ref.Kind), ref.ProjectID, string(currency))

	return scanAccount(row)
}

// UpdateBalance writes a new cached balance, bumping the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
UPDATE accounts
SET balance = $2, version = $3, updated_at = $4
WHERE id = $1`,
		id, decimalToNumeric(balance), version, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListByRef returns every currency row of one account.
func (r *AccountRepository) ListByRef(ctx context.Context, ref domain.AccountRef) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE kind = $1 AND project_id = $2
ORDER BY currency`,
		string(ref.Kind), ref.ProjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// List returns all account rows with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+accountColumns+`
FROM accounts
ORDER BY kind, project_id, currency
LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0)

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account  domain.Account
		kind     string
		currency string
		balance  pgtype.Numeric
		created  pgtype.Timestamptz
		updated  pgtype.Timestamptz
	)

	err := row.Scan(&account.ID, &kind, &account.Ref.ProjectID, &currency,
		&balance, &account.Version, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Ref.Kind = domain.AccountKind(kind)
	account.Currency = domain.Currency(currency)
	account.Balance = numericToDecimal(balance)
	account.CreatedAt = created.Time
	account.UpdatedAt = updated.Time

	return &account, nil
}
