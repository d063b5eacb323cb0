// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/location"
	"clinstock/internal/infrastructure/storage/postgres"
)

const stockLocationsTable = "stock_locations"

var stockLocationColumns = []string{
	"id", "product_id", "location_type", "location_id",
	"quantity", "price", "sku", "expiry_date",
	"created_at", "updated_at",
}

// StockLocationRepo implements ledger.Repository.
type StockLocationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockLocationRepo creates a new stock ledger repository.
func NewStockLocationRepo(txm *postgres.TxManager) *StockLocationRepo {
	return &StockLocationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetForUpdate returns the ledger row with a pessimistic lock, or nil when
// no row exists yet. The lock is only meaningful inside a transaction, so
// callers outside one are rejected.
func (r *StockLocationRepo) GetForUpdate(ctx context.Context, productID id.ID, ref location.Reference) (*ledger.StockLocation, error) {
	if !r.txm.InTx(ctx) {
		return nil, apperror.NewInternal(errors.New("GetForUpdate requires an active transaction"))
	}

	sql := `
		SELECT id, product_id, location_type, location_id,
		       quantity, price, sku, expiry_date,
		       created_at, updated_at
		FROM stock_locations
		WHERE product_id = $1 AND location_type = $2 AND location_id = $3
		FOR UPDATE
	`

	var row ledger.StockLocation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, productID, ref.Kind, ref.ID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewPersistence(fmt.Errorf("get stock location for update: %w", err))
	}

	return &row, nil
}

// Create inserts a new ledger row.
func (r *StockLocationRepo) Create(ctx context.Context, row *ledger.StockLocation) error {
	q := r.builder.Insert(stockLocationsTable).
		Columns(stockLocationColumns...).
		Values(
			row.ID, row.ProductID, row.LocationType, row.LocationID,
			row.Quantity, row.Price, row.SKU, row.ExpiryDate,
			row.CreatedAt, row.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Another writer created the row between our lock attempt and
			// this insert.
			return apperror.NewConflict("stock location already exists").
				WithDetail("product_id", row.ProductID.String()).
				WithDetail("location", row.Location().Key()).
				WithCause(err)
		}
		return apperror.NewPersistence(fmt.Errorf("insert stock location: %w", err))
	}

	return nil
}

// Update persists quantity and batch metadata of a locked row.
func (r *StockLocationRepo) Update(ctx context.Context, row *ledger.StockLocation) error {
	q := r.builder.Update(stockLocationsTable).
		Set("quantity", row.Quantity).
		Set("price", row.Price).
		Set("sku", row.SKU).
		Set("expiry_date", row.ExpiryDate).
		Set("updated_at", row.UpdatedAt).
		Where(squirrel.Eq{"id": row.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(fmt.Errorf("update stock location: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock_location", row.ID.String())
	}

	return nil
}

// ListByProduct returns every ledger row of a product, including rows that
// reached zero.
func (r *StockLocationRepo) ListByProduct(ctx context.Context, productID id.ID) ([]ledger.StockLocation, error) {
	q := r.builder.Select(stockLocationColumns...).
		From(stockLocationsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("location_type", "location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.StockLocation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, apperror.NewPersistence(fmt.Errorf("select stock locations: %w", err))
	}

	return rows, nil
}

// SumByProduct returns the product total across all locations.
func (r *StockLocationRepo) SumByProduct(ctx context.Context, productID id.ID) (int64, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_locations
		WHERE product_id = $1
	`

	var total int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID).Scan(&total); err != nil {
		return 0, apperror.NewPersistence(fmt.Errorf("sum stock locations: %w", err))
	}

	return total, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*StockLocationRepo)(nil)
