package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierhq/studioledger/internal/domain"
	"github.com/atelierhq/studioledger/internal/usecase"
)

// RateRepository keeps a history of fetched market quotes. It is the
// persistence sink behind the rate provider and the quote store the
// currency service converts with.
type RateRepository struct {
	pool  *pgxpool.Pool
	idGen usecase.IDGenerator
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool *pgxpool.Pool, idGen usecase.IDGenerator) *RateRepository {
	return &RateRepository{
		pool:  pool,
		idGen: idGen,
	}
}

// SaveQuote appends a fetched quote to the history.
func (r *RateRepository) SaveQuote(ctx context.Context, quote domain.RateQuote) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO rate_quotes (id, source, buy, sell, as_of)
VALUES ($1, $2, $3, $4, $5)`,
		r.idGen.Generate(),
		string(quote.Source),
		decimalToNumeric(quote.Buy),
		decimalToNumeric(quote.Sell),
		timeToPgTimestamptz(quote.AsOf),
	)

	return err
}

// LatestQuote returns the most recently saved quote for a source.
func (r *RateRepository) LatestQuote(ctx context.Context, source domain.RateSource) (domain.RateQuote, error) {
	var (
		buy  pgtype.Numeric
		sell pgtype.Numeric
		asOf pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, `
SELECT buy, sell, as_of
FROM rate_quotes
WHERE source = $1
ORDER BY as_of DESC, id DESC
LIMIT 1`, string(source)).Scan(&buy, &sell, &asOf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RateQuote{}, domain.ErrRateUnavailable
		}

		return domain.RateQuote{}, err
	}

	return domain.RateQuote{
		Source: source,
		Buy:    numericToDecimal(buy),
		Sell:   numericToDecimal(sell),
		AsOf:   asOf.Time,
	}, nil
}
