package usecase

import "github.com/shopspring/decimal"

// DefaultAdminFeePercent applies when neither a project override nor a
// studio-wide setting exists.
var DefaultAdminFeePercent = decimal.NewFromInt(10)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
