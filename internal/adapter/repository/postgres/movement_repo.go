package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository over an
// append-only movements table.
type MovementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

const movementColumns = `id, kind, source_kind, source_project_id, destination_kind, destination_project_id,
amount, currency, rate, description, project_id, installment_id, fee_id, conversion_id, created_at`

// Create appends a movement. Movements are never updated or deleted.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	pgxTx := tx.(*Tx).PgxTx()

	sourceKind, sourceProject := refToColumns(movement.Source)
	destKind, destProject := refToColumns(movement.Destination)

	_, err := pgxTx.Exec(ctx, `
INSERT INTO movements (`+movementColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		movement.ID,
		string(movement.Kind),
		sourceKind,
		sourceProject,
		destKind,
		destProject,
		decimalToNumeric(movement.Amount),
		string(movement.Currency),
		decimalToNumeric(movement.Rate),
		movement.Description,
		movement.Links.ProjectID,
		movement.Links.InstallmentID,
		movement.Links.FeeID,
		movement.Links.ConversionID,
		timeToPgTimestamptz(movement.CreatedAt),
	)

	return err
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+movementColumns+`
FROM movements
WHERE id = $1`, id)

	return scanMovement(row)
}

// ListByAccount retrieves movements touching either side of an account,
// most recent first.
func (r *MovementRepository) ListByAccount(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]*domain.Movement, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+movementColumns+`
FROM movements
WHERE (source_kind = $1 AND source_project_id = $2)
   OR (destination_kind = $1 AND destination_project_id = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`,
		string(ref.Kind), ref.ProjectID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// ListRecent retrieves the most recent movements across all accounts.
func (r *MovementRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.Movement, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+movementColumns+`
FROM movements
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// NetByAccount returns credits minus debits recorded against the
// (account, currency) pair.
func (r *MovementRepository) NetByAccount(ctx context.Context, ref domain.AccountRef, currency domain.Currency) (decimal.Decimal, error) {
	var net pgtype.Numeric

	// Credits and debits are summed as independent terms so a row whose
	// source and destination both match still nets to zero.
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(
      (CASE WHEN destination_kind = $1 AND destination_project_id = $2 THEN amount ELSE 0 END)
    - (CASE WHEN source_kind = $1 AND source_project_id = $2 THEN amount ELSE 0 END)
), 0)
FROM movements
WHERE currency = $3
  AND ((source_kind = $1 AND source_project_id = $2)
    OR (destination_kind = $1 AND destination_project_id = $2))`,
		string(ref.Kind), ref.ProjectID, string(currency)).Scan(&net)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(net), nil
}

func scanMovements(rows pgx.Rows) ([]*domain.Movement, error) {
	movements := make([]*domain.Movement, 0)

	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}

		movements = append(movements, movement)
	}

	return movements, rows.Err()
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var (
		movement      domain.Movement
		kind          string
		currency      string
		sourceKind    pgtype.Text
		sourceProject pgtype.Text
		destKind      pgtype.Text
		destProject   pgtype.Text
		amount        pgtype.Numeric
		rate          pgtype.Numeric
		created       pgtype.Timestamptz
	)

	err := row.Scan(&movement.ID, &kind, &sourceKind, &sourceProject, &destKind, &destProject,
		&amount, &currency, &rate, &movement.Description,
		&movement.Links.ProjectID, &movement.Links.InstallmentID,
		&movement.Links.FeeID, &movement.Links.ConversionID, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, err
	}

	movement.Kind = domain.MovementKind(kind)
	movement.Currency = domain.Currency(currency)
	movement.Source = columnsToRef(sourceKind, sourceProject)
	movement.Destination = columnsToRef(destKind, destProject)
	movement.Amount = numericToDecimal(amount)
	movement.Rate = numericToDecimal(rate)
	movement.CreatedAt = created.Time

	return &movement, nil
}
