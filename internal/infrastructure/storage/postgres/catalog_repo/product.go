package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/movement"
	"clinstock/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductCatalog implements movement.ProductCatalog over the products table.
type ProductCatalog struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductCatalog creates a read-only product catalog.
func NewProductCatalog(txm *postgres.TxManager) *ProductCatalog {
	return &ProductCatalog{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByID returns the product read model.
func (c *ProductCatalog) FindByID(ctx context.Context, productID id.ID) (movement.ProductInfo, error) {
	q := c.builder.Select("id", "name", "unit", "minimum_stock").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return movement.ProductInfo{}, fmt.Errorf("build query: %w", err)
	}

	var info movement.ProductInfo
	querier := c.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &info, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return movement.ProductInfo{}, apperror.NewNotFound("product", productID.String())
		}
		return movement.ProductInfo{}, apperror.NewPersistence(fmt.Errorf("get product: %w", err))
	}

	return info, nil
}

// Exists reports whether the product is in the catalog.
func (c *ProductCatalog) Exists(ctx context.Context, productID id.ID) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	querier := c.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID).Scan(&exists); err != nil {
		return false, apperror.NewPersistence(fmt.Errorf("check product exists: %w", err))
	}

	return exists, nil
}

// Ensure interface compliance.
var _ movement.ProductCatalog = (*ProductCatalog)(nil)
