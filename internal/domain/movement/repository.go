package movement

import (
	"context"

	"clinstock/internal/core/id"
)

// Repository persists and reads the movement journal.
type Repository interface {
	// Create inserts one journal row. Must be called inside a transaction
	// together with the ledger updates it records.
	Create(ctx context.Context, m *Movement) error

	// List returns one page of movements ordered by created_at descending,
	// plus the total row count.
	List(ctx context.Context, page, limit int) ([]Movement, int64, error)

	// Search returns up to limit movements whose reason or notes match the
	// term, or whose from/to location id is in locationIDs, newest first.
	Search(ctx context.Context, term string, locationIDs []id.ID, limit int) ([]Movement, error)

	// ListByProduct returns one page of a product's movements, newest
	// first, plus the product's total row count.
	ListByProduct(ctx context.Context, productID id.ID, page, limit int) ([]Movement, int64, error)
}
