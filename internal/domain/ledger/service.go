package ledger

import (
	"context"
	"fmt"
	"time"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/location"
	"clinstock/pkg/logger"
)

// Service provides the atomic increment/decrement operations on ledger rows.
// Transactions are managed by the caller (the movement processor); both
// Increase and Decrease must run inside one, since they rely on the row lock
// taken by Repository.GetForUpdate.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Increase adds qty to the (product, location) row, creating it lazily with
// quantity zero when absent. Non-null incoming batch metadata overwrites the
// stored values (last write wins). Returns the updated row.
func (s *Service) Increase(ctx context.Context, productID id.ID, ref location.Reference, qty int64, defaults Defaults) (*StockLocation, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty)
	}

	row, err := s.repo.GetForUpdate(ctx, productID, ref)
	if err != nil {
		return nil, fmt.Errorf("lock ledger row: %w", err)
	}

	if row == nil {
		row = newStockLocation(productID, ref, defaults)
		if err := s.repo.Create(ctx, row); err != nil {
			return nil, fmt.Errorf("create ledger row: %w", err)
		}
	} else {
		defaults.apply(row)
	}

	row.Quantity += qty
	row.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("update ledger row: %w", err)
	}

	logger.Debug(ctx, "ledger increased",
		"product_id", productID,
		"location", ref.Key(),
		"quantity", qty,
		"balance", row.Quantity,
	)

	return row, nil
}

// Decrease subtracts qty from the (product, location) row. Fails with
// InsufficientStock when the row is absent or holds less than qty; the
// quantity never goes negative. Returns the updated row.
func (s *Service) Decrease(ctx context.Context, productID id.ID, ref location.Reference, qty int64) (*StockLocation, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty)
	}

	row, err := s.repo.GetForUpdate(ctx, productID, ref)
	if err != nil {
		return nil, fmt.Errorf("lock ledger row: %w", err)
	}

	available := int64(0)
	if row != nil {
		available = row.Quantity
	}
	if available < qty {
		return nil, apperror.NewInsufficientStock(productID.String(), qty, available).
			WithDetail("location", ref.Key())
	}

	row.Quantity -= qty
	row.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("update ledger row: %w", err)
	}

	logger.Debug(ctx, "ledger decreased",
		"product_id", productID,
		"location", ref.Key(),
		"quantity", qty,
		"balance", row.Quantity,
	)

	return row, nil
}

// LocationsByProduct returns the current ledger rows for a product.
func (s *Service) LocationsByProduct(ctx context.Context, productID id.ID) ([]StockLocation, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// TotalByProduct returns the product's available quantity across locations.
func (s *Service) TotalByProduct(ctx context.Context, productID id.ID) (int64, error) {
	total, err := s.repo.SumByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("sum ledger rows: %w", err)
	}
	return total, nil
}
