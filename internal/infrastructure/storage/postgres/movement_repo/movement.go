// Package movement_repo provides the PostgreSQL implementation of the
// movement journal repository.
package movement_repo

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

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "product_id", "type", "quantity",
	"from_location_type", "from_location_id",
	"to_location_type", "to_location_id",
	"user_id", "reason", "notes",
	"unit_price", "total_value", "created_at",
}

// MovementRepo implements movement.Repository.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement journal repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create appends one journal row.
func (r *MovementRepo) Create(ctx context.Context, m *movement.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.ProductID, m.Type, m.Quantity,
			m.FromLocationType, m.FromLocationID,
			m.ToLocationType, m.ToLocationID,
			m.UserID, m.Reason, m.Notes,
			m.UnitPrice, m.TotalValue, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(fmt.Errorf("insert movement: %w", err))
	}

	return nil
}

// List returns one page of movements, newest first, plus the total count.
func (r *MovementRepo) List(ctx context.Context, page, limit int) ([]movement.Movement, int64, error) {
	q := r.baseSelect().
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))

	rows, err := r.selectMovements(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, r.builder.Select("COUNT(*)").From(movementsTable))
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// Search returns up to limit movements matching the term in reason or
// notes, or referencing one of the name-matched locations, newest first.
func (r *MovementRepo) Search(ctx context.Context, term string, locationIDs []id.ID, limit int) ([]movement.Movement, error) {
	q, err := r.searchQuery(term, locationIDs, limit)
	if err != nil {
		return nil, err
	}
	return r.selectMovements(ctx, q)
}

// searchQuery builds the OR-union of the text and location-id predicates.
func (r *MovementRepo) searchQuery(term string, locationIDs []id.ID, limit int) (squirrel.SelectBuilder, error) {
	pattern := "%" + term + "%"
	or := squirrel.Or{
		squirrel.ILike{"type": pattern},
		squirrel.ILike{"reason": pattern},
		squirrel.ILike{"notes": pattern},
	}
	if len(locationIDs) > 0 {
		or = append(or,
			squirrel.Eq{"from_location_id": locationIDs},
			squirrel.Eq{"to_location_id": locationIDs},
		)
	}

	q := r.baseSelect().
		Where(or).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	return q, nil
}

// ListByProduct returns one page of a product's movements, newest first,
// plus the product's total count.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID id.ID, page, limit int) ([]movement.Movement, int64, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))

	rows, err := r.selectMovements(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, r.builder.Select("COUNT(*)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}))
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *MovementRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(movementColumns...).From(movementsTable)
}

func (r *MovementRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]movement.Movement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []movement.Movement
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, apperror.NewPersistence(fmt.Errorf("select movements: %w", err))
	}

	return rows, nil
}

func (r *MovementRepo) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, apperror.NewPersistence(fmt.Errorf("count movements: %w", err))
	}

	return total, nil
}

// Ensure interface compliance.
var _ movement.Repository = (*MovementRepo)(nil)
