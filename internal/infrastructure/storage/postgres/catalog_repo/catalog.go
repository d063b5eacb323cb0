// Package catalog_repo provides read-only PostgreSQL views over the
// surrounding application's catalog tables. Movements reference these
// entities but never modify them.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/location"
	"clinstock/internal/infrastructure/storage/postgres"
)

// NameCatalog reads display identities from one catalog table. The table
// only needs id and name columns.
type NameCatalog struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	table   string
	entity  string
}

func newNameCatalog(txm *postgres.TxManager, table, entity string) *NameCatalog {
	return &NameCatalog{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		table:   table,
		entity:  entity,
	}
}

// NewSupplierCatalog reads supplier identities.
func NewSupplierCatalog(txm *postgres.TxManager) *NameCatalog {
	return newNameCatalog(txm, "suppliers", "supplier")
}

// NewUserCatalog reads user identities.
func NewUserCatalog(txm *postgres.TxManager) *NameCatalog {
	return newNameCatalog(txm, "users", "user")
}

// NewClientCatalog reads client identities.
func NewClientCatalog(txm *postgres.TxManager) *NameCatalog {
	return newNameCatalog(txm, "clients", "client")
}

// FindByID returns the display identity for one catalog entry.
func (c *NameCatalog) FindByID(ctx context.Context, entityID id.ID) (location.Identity, error) {
	q := c.builder.Select("id", "name").
		From(c.table).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return location.Identity{}, fmt.Errorf("build query: %w", err)
	}

	var identity location.Identity
	querier := c.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &identity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return location.Identity{}, apperror.NewNotFound(c.entity, entityID.String())
		}
		return location.Identity{}, apperror.NewPersistence(fmt.Errorf("get %s: %w", c.entity, err))
	}

	return identity, nil
}

// SearchIDs returns ids of entries whose name matches term.
func (c *NameCatalog) SearchIDs(ctx context.Context, term string) ([]id.ID, error) {
	q := c.builder.Select("id").
		From(c.table).
		Where(squirrel.ILike{"name": "%" + term + "%"})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	querier := c.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &ids, sql, args...); err != nil {
		return nil, apperror.NewPersistence(fmt.Errorf("search %s ids: %w", c.entity, err))
	}

	return ids, nil
}

// Ensure interface compliance.
var _ location.Catalog = (*NameCatalog)(nil)
