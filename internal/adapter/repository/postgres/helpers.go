package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/studioledger/internal/domain"
)

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func pgTimestamptzToTimePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}

	t := ts.Time

	return &t
}

// Account references are stored flattened as (kind, project_id) with an
// empty project_id for the singleton accounts, so the pair can carry a
// plain unique constraint.
func refToColumns(ref *domain.AccountRef) (pgtype.Text, pgtype.Text) {
	if ref == nil {
		return pgtype.Text{}, pgtype.Text{}
	}

	return pgtype.Text{String: string(ref.Kind), Valid: true},
		pgtype.Text{String: ref.ProjectID, Valid: true}
}

func columnsToRef(kind, projectID pgtype.Text) *domain.AccountRef {
	if !kind.Valid {
		return nil
	}

	return &domain.AccountRef{
		Kind:      domain.AccountKind(kind.String),
		ProjectID: projectID.String,
	}
}
