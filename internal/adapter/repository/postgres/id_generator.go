package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator mints lexicographically sortable IDs for ledger records.
// Movements ordered by ID come out in creation order, which the
// consistency check relies on.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
