package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// FeeRepository implements usecase.FeeRepository.
type FeeRepository struct {
	pool *pgxpool.Pool
}

// NewFeeRepository creates a new FeeRepository.
func NewFeeRepository(pool *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{pool: pool}
}

const feeColumns = `id, project_id, installment_id, percent, amount, currency,
status, collected_amount, collected_at, cancel_reason, created_at, updated_at`

// Create persists a new fee. A partial unique index on installment_id
// guards against two fees for the same installment racing past the
// application-level check.
func (r *FeeRepository) Create(ctx context.Context, fee *domain.AdminFee) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO fees (`+feeColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		fee.ID,
		fee.ProjectID,
		fee.InstallmentID,
		decimalToNumeric(fee.Percent),
		decimalToNumeric(fee.Amount),
		string(fee.Currency),
		string(fee.Status),
		decimalToNumeric(fee.CollectedAmount),
		timePtrToPgTimestamptz(fee.CollectedAt),
		fee.CancelReason,
		timeToPgTimestamptz(fee.CreatedAt),
		timeToPgTimestamptz(fee.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateFee
		}

		return err
	}

	return nil
}

// GetByID retrieves a fee by ID.
func (r *FeeRepository) GetByID(ctx context.Context, id string) (*domain.AdminFee, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+feeColumns+`
FROM fees
WHERE id = $1`, id)

	return scanFee(row)
}

// GetByIDForUpdate retrieves a fee by ID with a FOR UPDATE lock.
func (r *FeeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AdminFee, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
SELECT `+feeColumns+`
FROM fees
WHERE id = $1
FOR UPDATE`, id)

	return scanFee(row)
}

// GetByInstallment retrieves the fee tied to an installment, if any.
func (r *FeeRepository) GetByInstallment(ctx context.Context, installmentID string) (*domain.AdminFee, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+feeColumns+`
FROM fees
WHERE installment_id = $1`, installmentID)

	return scanFee(row)
}

// Update writes the mutable lifecycle fields of a fee.
func (r *FeeRepository) Update(ctx context.Context, tx usecase.Transaction, fee *domain.AdminFee) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
UPDATE fees
SET status = $2, collected_amount = $3, collected_at = $4, cancel_reason = $5, updated_at = $6
WHERE id = $1`,
		fee.ID,
		string(fee.Status),
		decimalToNumeric(fee.CollectedAmount),
		timePtrToPgTimestamptz(fee.CollectedAt),
		fee.CancelReason,
		timeToPgTimestamptz(fee.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrFeeNotFound
	}

	return nil
}

// ListByProject retrieves a project's fees, most recent first.
func (r *FeeRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.AdminFee, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+feeColumns+`
FROM fees
WHERE project_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`,
		projectID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fees := make([]*domain.AdminFee, 0)

	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}

		fees = append(fees, fee)
	}

	return fees, rows.Err()
}

// CreateIncomeRecord appends the reporting record written when a fee is
// collected, within the same transaction.
func (r *FeeRepository) CreateIncomeRecord(ctx context.Context, tx usecase.Transaction, record *domain.IncomeRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
INSERT INTO income_records (id, fee_id, project_id, concept, amount, currency, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID,
		record.FeeID,
		record.ProjectID,
		record.Concept,
		decimalToNumeric(record.Amount),
		string(record.Currency),
		timeToPgTimestamptz(record.RecordedAt),
	)

	return err
}

func scanFee(row pgx.Row) (*domain.AdminFee, error) {
	var (
		fee         domain.AdminFee
		percent     pgtype.Numeric
		amount      pgtype.Numeric
		currency    string
		status      string
		collected   pgtype.Numeric
		collectedAt pgtype.Timestamptz
		created     pgtype.Timestamptz
		updated     pgtype.Timestamptz
	)

	err := row.Scan(&fee.ID, &fee.ProjectID, &fee.InstallmentID, &percent, &amount, &currency,
		&status, &collected, &collectedAt, &fee.CancelReason, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFeeNotFound
		}

		return nil, err
	}

	fee.Percent = numericToDecimal(percent)
	fee.Amount = numericToDecimal(amount)
	fee.Currency = domain.Currency(currency)
	fee.Status = domain.FeeStatus(status)
	fee.CollectedAmount = numericToDecimal(collected)
	fee.CollectedAt = pgTimestamptzToTimePtr(collectedAt)
	fee.CreatedAt = created.Time
	fee.UpdatedAt = updated.Time

	return &fee, nil
}
