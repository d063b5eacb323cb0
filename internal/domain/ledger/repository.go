package ledger

import (
	"context"

	"clinstock/internal/core/id"
	"clinstock/internal/domain/location"
)

// Repository defines storage operations for ledger rows.
type Repository interface {
	// GetForUpdate returns the row with a transaction-scoped exclusive lock,
	// or nil when no row exists for the pair. Must be called inside a
	// transaction; the lock is held until commit or rollback.
	GetForUpdate(ctx context.Context, productID id.ID, ref location.Reference) (*StockLocation, error)

	// Create inserts a new ledger row (lazy creation on first inbound).
	Create(ctx context.Context, row *StockLocation) error

	// Update persists quantity and metadata of a locked row.
	Update(ctx context.Context, row *StockLocation) error

	// ListByProduct returns all rows for a product across locations.
	ListByProduct(ctx context.Context, productID id.ID) ([]StockLocation, error)

	// SumByProduct returns the total quantity for a product across locations.
	SumByProduct(ctx context.Context, productID id.ID) (int64, error)
}
