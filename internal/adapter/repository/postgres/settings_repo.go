package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/usecase"
)

// SettingsRepository implements usecase.SettingsRepository over the
// studio settings and per-project fee override tables.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

const settingAdminFeePercent = "admin_fee_percent"

// AdminFeePercent returns the studio-wide fee percentage. A missing or
// blank setting returns zero; callers fall back to the built-in default.
func (r *SettingsRepository) AdminFeePercent(ctx context.Context) (decimal.Decimal, error) {
	var value string

	err := r.pool.QueryRow(ctx, `
SELECT value
FROM settings
WHERE key = $1`, settingAdminFeePercent).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}

		return decimal.Zero, err
	}

	if value == "" {
		return decimal.Zero, nil
	}

	percent, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse setting %s: %w", settingAdminFeePercent, err)
	}

	return percent, nil
}

// ProjectFeeOverride returns the project's fee override, or nil when the
// project has none.
func (r *SettingsRepository) ProjectFeeOverride(ctx context.Context, projectID string) (*usecase.FeeOverride, error) {
	var (
		percent pgtype.Numeric
		exempt  bool
	)

	err := r.pool.QueryRow(ctx, `
SELECT percent, exempt
FROM fee_overrides
WHERE project_id = $1`, projectID).Scan(&percent, &exempt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &usecase.FeeOverride{
		Percent: numericToDecimal(percent),
		Exempt:  exempt,
	}, nil
}
