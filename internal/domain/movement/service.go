package movement

import (
	"context"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/core/tx"
	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/location"
	"clinstock/pkg/logger"
)

// ProductInfo is the product catalog's read model.
type ProductInfo struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Unit         string `db:"unit" json:"unit"`
	MinimumStock int64  `db:"minimum_stock" json:"minimumStock"`
}

// ProductCatalog resolves products referenced by movements.
type ProductCatalog interface {
	FindByID(ctx context.Context, productID id.ID) (ProductInfo, error)
	Exists(ctx context.Context, productID id.ID) (bool, error)
}

// Service records stock movements. Each movement runs in a single
// transaction covering the ledger updates and the journal insert, so a
// reader never observes a half-applied movement.
type Service struct {
	repo     Repository
	ledger   *ledger.Service
	resolver *location.Resolver
	txm      tx.Manager
}

func NewService(repo Repository, ledgerSvc *ledger.Service, resolver *location.Resolver, txm tx.Manager) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledgerSvc,
		resolver: resolver,
		txm:      txm,
	}
}

// Create validates, applies and journals one movement.
//
// Validation runs in a fixed order: input shape first, then location
// existence against the catalogs, then ledger preconditions under row
// locks. Any failure leaves quantities untouched.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Movement, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	from, to, err := in.refs()
	if err != nil {
		return nil, err
	}

	// Catalog reads are cheap and failures are common (typos, stale ids),
	// so they happen before the transaction opens.
	if !from.IsZero() {
		if _, err := s.resolver.Resolve(ctx, from); err != nil {
			return nil, err
		}
	}
	if !to.IsZero() {
		if _, err := s.resolver.Resolve(ctx, to); err != nil {
			return nil, err
		}
	}

	m := newMovement(in, from, to)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.applyToLedger(ctx, in, from, to); err != nil {
			return err
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement recorded",
		"movement_id", m.ID,
		"product_id", m.ProductID,
		"type", m.Type,
		"quantity", m.Quantity,
	)
	return m, nil
}

// applyToLedger mutates the ledger rows for one movement. Must run inside
// the movement's transaction.
func (s *Service) applyToLedger(ctx context.Context, in *CreateInput, from, to location.Reference) error {
	switch in.Type {
	case TypeEntrada:
		defaults := ledger.Defaults{
			Price:      in.UnitPrice,
			SKU:        in.SKU,
			ExpiryDate: in.ExpiryDate,
		}
		_, err := s.ledger.Increase(ctx, in.ProductID, to, in.Quantity, defaults)
		return err

	case TypeSaida:
		_, err := s.ledger.Decrease(ctx, in.ProductID, from, in.Quantity)
		return err

	case TypeTransferencia:
		// Debit first so an insufficient source aborts before the
		// destination row is touched. The credited row inherits the
		// source row's batch metadata.
		src, err := s.ledger.Decrease(ctx, in.ProductID, from, in.Quantity)
		if err != nil {
			return err
		}
		_, err = s.ledger.Increase(ctx, in.ProductID, to, in.Quantity, ledger.DefaultsFrom(src))
		return err
	}

	// Unreachable after Validate, kept so a new type cannot silently no-op.
	return apperror.NewValidation("invalid movement type").WithDetail("type", string(in.Type))
}
