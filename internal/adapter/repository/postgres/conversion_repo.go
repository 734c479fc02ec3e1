package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// ConversionRepository implements usecase.ConversionRepository.
type ConversionRepository struct {
	pool *pgxpool.Pool
}

// NewConversionRepository creates a new ConversionRepository.
func NewConversionRepository(pool *pgxpool.Pool) *ConversionRepository {
	return &ConversionRepository{pool: pool}
}

const conversionColumns = `id, from_currency, to_currency, from_amount, to_amount, rate, rate_source, state, created_at`

// Create persists a conversion record.
func (r *ConversionRepository) Create(ctx context.Context, tx usecase.Transaction, conversion *domain.Conversion) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
INSERT INTO conversions (`+conversionColumns+`, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		conversion.ID,
		string(conversion.FromCurrency),
		string(conversion.ToCurrency),
		decimalToNumeric(conversion.FromAmount),
		decimalToNumeric(conversion.ToAmount),
		decimalToNumeric(conversion.Rate),
		conversion.RateSource,
		string(conversion.State),
		timeToPgTimestamptz(conversion.CreatedAt),
	)

	return err
}

// UpdateState moves a conversion to a new lifecycle state.
func (r *ConversionRepository) UpdateState(ctx context.Context, tx usecase.Transaction, id string, state domain.ConversionState) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
UPDATE conversions
SET state = $2, updated_at = $3
WHERE id = $1`,
		id, string(state), timeToPgTimestamptz(time.Now().UTC()))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConversionNotFound
	}

	return nil
}

// GetByID retrieves a conversion by ID.
func (r *ConversionRepository) GetByID(ctx context.Context, id string) (*domain.Conversion, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+conversionColumns+`
FROM conversions
WHERE id = $1`, id)

	return scanConversion(row)
}

// List retrieves conversions, most recent first.
func (r *ConversionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Conversion, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+conversionColumns+`
FROM conversions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversions := make([]*domain.Conversion, 0)

	for rows.Next() {
		conversion, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}

		conversions = append(conversions, conversion)
	}

	return conversions, rows.Err()
}

func scanConversion(row pgx.Row) (*domain.Conversion, error) {
	var (
		conversion domain.Conversion
		from       string
		to         string
		fromAmount pgtype.Numeric
		toAmount   pgtype.Numeric
		rate       pgtype.Numeric
		state      string
		created    pgtype.Timestamptz
	)

	err := row.Scan(&conversion.ID, &from, &to, &fromAmount, &toAmount,
		&rate, &conversion.RateSource, &state, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversionNotFound
		}

		return nil, err
	}

	conversion.FromCurrency = domain.Currency(from)
	conversion.ToCurrency = domain.Currency(to)
	conversion.FromAmount = numericToDecimal(fromAmount)
	conversion.ToAmount = numericToDecimal(toAmount)
	conversion.Rate = numericToDecimal(rate)
	conversion.State = domain.ConversionState(state)
	conversion.CreatedAt = created.Time

	return &conversion, nil
}
